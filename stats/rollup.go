package stats

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Period identifies a rollup granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Rollup is one aggregated slice of donation activity, keyed by calendar
// period ("2006-01-02", "2006-W34", "2006-01").
type Rollup struct {
	Period       Period    `json:"period"`
	Key          string    `json:"key"`
	Donations    int64     `json:"donations"`
	AmountRaised float64   `json:"amount_raised"`
	Achievements int64     `json:"achievements_unlocked"`
	TierAdvances int64     `json:"tier_advances"`
	ActiveDonors int       `json:"active_donors"`
	CreatedAt    time.Time `json:"created_at"`
}

// RollupEngine periodically condenses the ledger into per-period rollups.
// Rebuilding a period that already exists overwrites it, so a rollup always
// reflects the ledger at the most recent pass.
type RollupEngine struct {
	ledger   *Ledger
	interval time.Duration

	mu      sync.RWMutex
	rollups map[Period]map[string]*Rollup
}

func NewRollupEngine(ledger *Ledger, interval time.Duration) *RollupEngine {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RollupEngine{
		ledger:   ledger,
		interval: interval,
		rollups: map[Period]map[string]*Rollup{
			PeriodDaily:   {},
			PeriodWeekly:  {},
			PeriodMonthly: {},
		},
	}
}

// RollupNow rebuilds the rollups for the current day, ISO week, and month.
func (r *RollupEngine) RollupNow() error {
	now := time.Now().UTC()
	r.rollupDay(now)
	r.rollupWeek(now)
	r.rollupMonth(now)
	return nil
}

func (r *RollupEngine) rollupDay(now time.Time) {
	day := dayKey(now)
	r.store(&Rollup{
		Period:       PeriodDaily,
		Key:          day,
		Donations:    r.ledger.DonationsOn(day),
		AmountRaised: r.ledger.AmountOn(day),
		Achievements: r.ledger.AchievementsOn(day),
		TierAdvances: r.ledger.TierAdvancesOn(day),
		ActiveDonors: r.ledger.ActiveDonors(day),
		CreatedAt:    now,
	})
}

func (r *RollupEngine) rollupWeek(now time.Time) {
	// Monday-anchored ISO week bounds.
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := now.AddDate(0, 0, -(weekday - 1)).Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 6)

	rollup := &Rollup{
		Period:       PeriodWeekly,
		Key:          weekKey(now),
		ActiveDonors: r.ledger.WeeklyActiveDonors(weekKey(now)),
		CreatedAt:    now,
	}
	for _, day := range r.ledger.daysIn(start, end) {
		rollup.Donations += r.ledger.DonationsOn(day)
		rollup.AmountRaised += r.ledger.AmountOn(day)
		rollup.Achievements += r.ledger.AchievementsOn(day)
		rollup.TierAdvances += r.ledger.TierAdvancesOn(day)
	}
	r.store(rollup)
}

func (r *RollupEngine) rollupMonth(now time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	rollup := &Rollup{
		Period:       PeriodMonthly,
		Key:          monthKey(now),
		ActiveDonors: r.ledger.MonthlyActiveDonors(monthKey(now)),
		CreatedAt:    now,
	}
	for _, day := range r.ledger.daysIn(start, end) {
		rollup.Donations += r.ledger.DonationsOn(day)
		rollup.AmountRaised += r.ledger.AmountOn(day)
		rollup.Achievements += r.ledger.AchievementsOn(day)
		rollup.TierAdvances += r.ledger.TierAdvancesOn(day)
	}
	r.store(rollup)
}

func (r *RollupEngine) store(rollup *Rollup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollups[rollup.Period][rollup.Key] = rollup
}

// Get returns the rollup for a period and key, if one has been built.
func (r *RollupEngine) Get(period Period, key string) (*Rollup, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rollup, ok := r.rollups[period][key]
	if !ok {
		return nil, false
	}
	copied := *rollup
	return &copied, true
}

// All returns every rollup built for a period.
func (r *RollupEngine) All(period Period) []*Rollup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Rollup, 0, len(r.rollups[period]))
	for _, rollup := range r.rollups[period] {
		copied := *rollup
		out = append(out, &copied)
	}
	return out
}

// ExportJSON renders a period's rollups for the metrics listener.
func (r *RollupEngine) ExportJSON(period Period) ([]byte, error) {
	return json.Marshal(r.All(period))
}

// Start rebuilds rollups on the configured interval until ctx is done.
func (r *RollupEngine) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = r.RollupNow()
		case <-ctx.Done():
			return
		}
	}
}
