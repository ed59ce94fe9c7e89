package stats

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"missionctl/core"
)

// Hook receives domain events for counter aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// BridgeHook fans one event source out to multiple hooks.
type BridgeHook struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *BridgeHook { return &BridgeHook{hooks: hooks} }

func (b *BridgeHook) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// Counters holds the running event totals since process start.
type Counters struct {
	StartedAt            time.Time `json:"started_at"`
	DonationsProcessed   int64     `json:"donations_processed"`
	AmountRaised         float64   `json:"amount_raised"`
	AchievementsUnlocked int64     `json:"achievements_unlocked"`
	TierAdvances         int64     `json:"tier_advances"`
}

// Metrics aggregates domain events into Counters. Safe for concurrent use.
type Metrics struct {
	mu sync.Mutex
	c  Counters
}

func NewMetrics() *Metrics {
	return &Metrics{c: Counters{StartedAt: time.Now().UTC()}}
}

func (m *Metrics) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch e.Type {
	case core.EventDonationApplied:
		m.c.DonationsProcessed++
		m.c.AmountRaised += e.Amount
	case core.EventAchievementUnlocked:
		m.c.AchievementsUnlocked++
	case core.EventTierAdvanced:
		m.c.TierAdvances++
	}
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Counters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.c
}

// Handler serves the counters as JSON for the metrics listener.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.Snapshot())
	})
}
