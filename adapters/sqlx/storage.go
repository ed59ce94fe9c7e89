package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// database drivers selected via Config.Driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"missionctl/core"
)

// Driver names supported by the SQL store.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds SQL connection configuration.
type Config struct {
	Driver          string        `json:"driver" env:"MISSIONCTL_STORAGE_SQL_DRIVER"`
	DSN             string        `json:"dsn" env:"MISSIONCTL_STORAGE_SQL_DSN"`
	MaxOpenConns    int           `json:"max_open_conns" env:"MISSIONCTL_STORAGE_SQL_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `json:"max_idle_conns" env:"MISSIONCTL_STORAGE_SQL_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" env:"MISSIONCTL_STORAGE_SQL_CONN_MAX_LIFETIME"`
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver string) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements engine.Storage on a SQL database via sqlx.
// Schema (see EnsureSchema): one row per intern in table interns, with the
// achievements list stored as a JSON text column and a position column
// carrying store order.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New connects to the database and seeds the interns table when empty.
func New(cfg Config, seedRecords []core.Intern) (*Store, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	s := NewWithDB(db, cfg.Driver)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if err := s.Seed(ctx, seedRecords); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection (useful for testing).
func NewWithDB(db *sqlx.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the interns table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS interns (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		join_date DATE NOT NULL,
		total_donations DOUBLE PRECISION NOT NULL DEFAULT 0,
		missions_completed INTEGER NOT NULL DEFAULT 0,
		trees_planted INTEGER NOT NULL DEFAULT 0,
		lives_impacted INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 0,
		badge VARCHAR(16) NOT NULL DEFAULT 'rookie',
		achievements TEXT NOT NULL,
		position INTEGER NOT NULL
	)`
	if s.driver == DriverMySQL {
		ddl = `CREATE TABLE IF NOT EXISTS interns (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			join_date DATE NOT NULL,
			total_donations DOUBLE NOT NULL DEFAULT 0,
			missions_completed INT NOT NULL DEFAULT 0,
			trees_planted INT NOT NULL DEFAULT 0,
			lives_impacted INT NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 0,
			badge VARCHAR(16) NOT NULL DEFAULT 'rookie',
			achievements TEXT NOT NULL,
			position INT NOT NULL
		)`
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Seed inserts the dataset only when the table is empty.
func (s *Store) Seed(ctx context.Context, records []core.Intern) error {
	if len(records) == 0 {
		return nil
	}
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM interns"); err != nil {
		return fmt.Errorf("failed to probe seed state: %w", err)
	}
	if count > 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	insert := s.db.Rebind(`INSERT INTO interns
		(id, name, join_date, total_donations, missions_completed, trees_planted,
		 lives_impacted, level, badge, achievements, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for pos, rec := range records {
		row, err := fromDomain(rec, pos)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert,
			row.ID, row.Name, row.JoinDate, row.TotalDonations, row.MissionsCompleted,
			row.TreesPlanted, row.LivesImpacted, row.Level, row.Badge,
			row.Achievements, row.Position); err != nil {
			return fmt.Errorf("failed to seed intern %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

type internRow struct {
	ID                string    `db:"id"`
	Name              string    `db:"name"`
	JoinDate          time.Time `db:"join_date"`
	TotalDonations    float64   `db:"total_donations"`
	MissionsCompleted int       `db:"missions_completed"`
	TreesPlanted      int       `db:"trees_planted"`
	LivesImpacted     int       `db:"lives_impacted"`
	Level             int       `db:"level"`
	Badge             string    `db:"badge"`
	Achievements      string    `db:"achievements"`
	Position          int       `db:"position"`
}

func fromDomain(rec core.Intern, pos int) (internRow, error) {
	achievements, err := json.Marshal(rec.Achievements)
	if err != nil {
		return internRow{}, err
	}
	return internRow{
		ID:                string(rec.ID),
		Name:              rec.Name,
		JoinDate:          rec.JoinDate.Time,
		TotalDonations:    rec.TotalDonations,
		MissionsCompleted: rec.MissionsCompleted,
		TreesPlanted:      rec.TreesPlanted,
		LivesImpacted:     rec.LivesImpacted,
		Level:             rec.Level,
		Badge:             string(rec.Badge),
		Achievements:      string(achievements),
		Position:          pos,
	}, nil
}

func (r internRow) toDomain() (core.Intern, error) {
	var achievements []string
	if r.Achievements != "" {
		if err := json.Unmarshal([]byte(r.Achievements), &achievements); err != nil {
			return core.Intern{}, fmt.Errorf("corrupt achievements for %s: %w", r.ID, err)
		}
	}
	return core.Intern{
		ID:                core.InternID(r.ID),
		Name:              r.Name,
		JoinDate:          core.Date{Time: r.JoinDate},
		TotalDonations:    r.TotalDonations,
		MissionsCompleted: r.MissionsCompleted,
		TreesPlanted:      r.TreesPlanted,
		LivesImpacted:     r.LivesImpacted,
		Level:             r.Level,
		Badge:             core.Badge(r.Badge),
		Achievements:      achievements,
	}, nil
}

const selectColumns = `id, name, join_date, total_donations, missions_completed,
	trees_planted, lives_impacted, level, badge, achievements, position`

func (s *Store) Find(ctx context.Context, id core.InternID) (core.Intern, error) {
	var row internRow
	query := s.db.Rebind("SELECT " + selectColumns + " FROM interns WHERE id = ?")
	err := s.db.GetContext(ctx, &row, query, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Intern{}, core.ErrRecordNotFound
	}
	if err != nil {
		return core.Intern{}, fmt.Errorf("failed to fetch intern: %w", err)
	}
	return row.toDomain()
}

func (s *Store) Snapshot(ctx context.Context) ([]core.Intern, error) {
	var rows []internRow
	query := "SELECT " + selectColumns + " FROM interns ORDER BY position"
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list interns: %w", err)
	}
	out := make([]core.Intern, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ApplyDonation runs the whole progression transaction inside one SQL
// transaction so no partial update is ever visible.
func (s *Store) ApplyDonation(ctx context.Context, id core.InternID, amount float64) (core.DonationResult, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return core.DonationResult{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.DonationResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var row internRow
	selectQ := s.db.Rebind("SELECT " + selectColumns + " FROM interns WHERE id = ? FOR UPDATE")
	err = tx.GetContext(ctx, &row, selectQ, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.DonationResult{}, core.ErrRecordNotFound
	}
	if err != nil {
		return core.DonationResult{}, fmt.Errorf("failed to fetch intern: %w", err)
	}

	rec, err := row.toDomain()
	if err != nil {
		return core.DonationResult{}, err
	}
	next, res, err := core.Advance(rec, amount)
	if err != nil {
		return core.DonationResult{}, err
	}

	updated, err := fromDomain(next, row.Position)
	if err != nil {
		return core.DonationResult{}, err
	}
	updateQ := s.db.Rebind(`UPDATE interns SET
		total_donations = ?, missions_completed = ?, trees_planted = ?,
		lives_impacted = ?, level = ?, badge = ?, achievements = ?
		WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, updateQ,
		updated.TotalDonations, updated.MissionsCompleted, updated.TreesPlanted,
		updated.LivesImpacted, updated.Level, updated.Badge, updated.Achievements,
		updated.ID); err != nil {
		return core.DonationResult{}, fmt.Errorf("failed to commit donation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.DonationResult{}, fmt.Errorf("failed to commit donation: %w", err)
	}
	return res, nil
}
