package stats

import (
	"fmt"
	"sync"
	"time"

	"missionctl/core"
)

// Period key formats. Weeks use ISO week numbering so a rollup key never
// splits across a year boundary mid-week.
func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func weekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthKey(t time.Time) string { return t.UTC().Format("2006-01") }

// Ledger indexes donation events by calendar period so rollups and the
// dashboard can answer "what happened today / this week / this month"
// without replaying history. Safe for concurrent use.
type Ledger struct {
	mu sync.RWMutex

	donationsByDay    map[string]int64
	amountByDay       map[string]float64
	achievementsByDay map[string]int64
	tierAdvancesByDay map[string]int64

	// distinct donors per period
	dailyActive   map[string]map[core.InternID]struct{}
	weeklyActive  map[string]map[core.InternID]struct{}
	monthlyActive map[string]map[core.InternID]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		donationsByDay:    make(map[string]int64),
		amountByDay:       make(map[string]float64),
		achievementsByDay: make(map[string]int64),
		tierAdvancesByDay: make(map[string]int64),
		dailyActive:       make(map[string]map[core.InternID]struct{}),
		weeklyActive:      make(map[string]map[core.InternID]struct{}),
		monthlyActive:     make(map[string]map[core.InternID]struct{}),
	}
}

// OnEvent records one domain event against its calendar periods.
func (l *Ledger) OnEvent(e core.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := dayKey(e.Time)
	switch e.Type {
	case core.EventDonationApplied:
		l.donationsByDay[day]++
		l.amountByDay[day] += e.Amount
		l.markActive(e.InternID, e.Time)
	case core.EventAchievementUnlocked:
		l.achievementsByDay[day]++
	case core.EventTierAdvanced:
		l.tierAdvancesByDay[day]++
	}
}

func (l *Ledger) markActive(id core.InternID, t time.Time) {
	for _, bucket := range []struct {
		set map[string]map[core.InternID]struct{}
		key string
	}{
		{l.dailyActive, dayKey(t)},
		{l.weeklyActive, weekKey(t)},
		{l.monthlyActive, monthKey(t)},
	} {
		if bucket.set[bucket.key] == nil {
			bucket.set[bucket.key] = make(map[core.InternID]struct{})
		}
		bucket.set[bucket.key][id] = struct{}{}
	}
}

// DonationsOn reports the donation count recorded for a day key.
func (l *Ledger) DonationsOn(day string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.donationsByDay[day]
}

// AmountOn reports the amount raised on a day key.
func (l *Ledger) AmountOn(day string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.amountByDay[day]
}

// AchievementsOn reports achievements unlocked on a day key.
func (l *Ledger) AchievementsOn(day string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.achievementsByDay[day]
}

// TierAdvancesOn reports tier advances on a day key.
func (l *Ledger) TierAdvancesOn(day string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tierAdvancesByDay[day]
}

// ActiveDonors counts distinct donating interns for a day key.
func (l *Ledger) ActiveDonors(day string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.dailyActive[day])
}

// WeeklyActiveDonors counts distinct donating interns for an ISO week key.
func (l *Ledger) WeeklyActiveDonors(week string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.weeklyActive[week])
}

// MonthlyActiveDonors counts distinct donating interns for a month key.
func (l *Ledger) MonthlyActiveDonors(month string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.monthlyActive[month])
}

// daysIn returns the day keys currently tracked inside [from, to].
func (l *Ledger) daysIn(from, to time.Time) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var days []string
	for day := range l.donationsByDay {
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		if !t.Before(from) && !t.After(to) {
			days = append(days, day)
		}
	}
	return days
}
