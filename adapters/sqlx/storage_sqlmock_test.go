package sqlx_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "missionctl/adapters/sqlx"
	"missionctl/core"
)

var rowColumns = []string{
	"id", "name", "join_date", "total_donations", "missions_completed",
	"trees_planted", "lives_impacted", "level", "badge", "achievements", "position",
}

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	store := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return store, mock, cleanup
}

func internRow(total float64, missions, trees, lives, level int, badge, achievements string) *sqlmock.Rows {
	join := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(rowColumns).
		AddRow("i1", "One", join, total, missions, trees, lives, level, badge, achievements, 0)
}

func TestSQLMock_Find(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM interns WHERE id =`).
		WithArgs("i1").
		WillReturnRows(internRow(1200, 1, 24, 4, 1, "bronze", `["Impact Maker"]`))

	rec, err := store.Find(context.Background(), "i1")
	require.NoError(t, err)
	require.Equal(t, float64(1200), rec.TotalDonations)
	require.Equal(t, core.BadgeBronze, rec.Badge)
	require.Equal(t, []string{"Impact Maker"}, rec.Achievements)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_FindNotFound(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM interns WHERE id =`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Find(context.Background(), "ghost")
	require.ErrorIs(t, err, core.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Snapshot(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	join := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(rowColumns).
		AddRow("i1", "One", join, 100.0, 1, 2, 0, 0, "rookie", "[]", 0).
		AddRow("i2", "Two", join, 50.0, 1, 1, 0, 0, "rookie", "[]", 1)
	mock.ExpectQuery(`SELECT (.+) FROM interns ORDER BY position`).
		WillReturnRows(rows)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 2)
	require.Equal(t, core.InternID("i1"), snap[0].ID)
	require.Equal(t, core.InternID("i2"), snap[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_ApplyDonation(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM interns WHERE id = (.+) FOR UPDATE`).
		WithArgs("i1").
		WillReturnRows(internRow(0, 0, 0, 0, 0, "rookie", "[]"))
	mock.ExpectExec(`UPDATE interns SET`).
		WithArgs(float64(1200), 1, 24, 4, 1, "bronze", `["Impact Maker"]`, "i1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := store.ApplyDonation(context.Background(), "i1", 1200)
	require.NoError(t, err)
	require.Equal(t, float64(1200), res.NewTotal)
	require.Equal(t, "Impact Maker", res.NewAchievement)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_ApplyDonationNotFound(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM interns WHERE id = (.+) FOR UPDATE`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.ApplyDonation(context.Background(), "ghost", 10)
	require.ErrorIs(t, err, core.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_ApplyDonationInvalidAmount(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	// validation fails before any SQL is issued
	_, err := store.ApplyDonation(context.Background(), "i1", -5)
	require.ErrorIs(t, err, core.ErrInvalidAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}
