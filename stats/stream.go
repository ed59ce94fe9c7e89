package stats

import (
	"sync"
	"time"

	"missionctl/core"
)

// StreamSubscriber receives the live event feed. Send must not block
// indefinitely; slow subscribers should drop or buffer on their side.
type StreamSubscriber interface {
	Send(e core.Event) error
}

// StreamPublisher feeds every domain event into the ledger and then fans it
// out to named subscribers. A panicking subscriber is isolated so one bad
// consumer cannot take down the donate path.
type StreamPublisher struct {
	ledger *Ledger

	mu          sync.RWMutex
	subscribers map[string]StreamSubscriber
}

func NewStreamPublisher(ledger *Ledger) *StreamPublisher {
	return &StreamPublisher{
		ledger:      ledger,
		subscribers: make(map[string]StreamSubscriber),
	}
}

func (p *StreamPublisher) Subscribe(name string, sub StreamSubscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers[name] = sub
}

func (p *StreamPublisher) Unsubscribe(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subscribers, name)
}

// OnEvent implements Hook. The ledger is updated before fan-out so any
// subscriber reading period counters sees this event included.
func (p *StreamPublisher) OnEvent(e core.Event) {
	p.ledger.OnEvent(e)

	p.mu.RLock()
	subs := make([]StreamSubscriber, 0, len(p.subscribers))
	for _, sub := range p.subscribers {
		subs = append(subs, sub)
	}
	p.mu.RUnlock()

	for _, sub := range subs {
		func(s StreamSubscriber) {
			defer func() { _ = recover() }()
			_ = s.Send(e)
		}(sub)
	}
}

// MemorySubscriber accumulates events. Used in tests and for short-lived
// inspection buffers.
type MemorySubscriber struct {
	mu     sync.Mutex
	events []core.Event
}

func NewMemorySubscriber() *MemorySubscriber { return &MemorySubscriber{} }

func (m *MemorySubscriber) Send(e core.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *MemorySubscriber) Events() []core.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Event, len(m.events))
	copy(out, m.events)
	return out
}

// DashboardData is the snapshot served to the ops dashboard: what happened
// today plus the most recent raw events.
type DashboardData struct {
	GeneratedAt  time.Time    `json:"generated_at"`
	Today        Rollup       `json:"today"`
	RecentEvents []core.Event `json:"recent_events"`
}

// Dashboard keeps a bounded ring of recent events. It subscribes itself to
// the publisher under a reserved name.
type Dashboard struct {
	ledger *Ledger

	mu     sync.RWMutex
	recent []core.Event
	limit  int
}

func NewDashboard(publisher *StreamPublisher, ledger *Ledger, limit int) *Dashboard {
	if limit <= 0 {
		limit = 50
	}
	d := &Dashboard{ledger: ledger, limit: limit}
	publisher.Subscribe("dashboard", d)
	return d
}

func (d *Dashboard) Send(e core.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recent = append(d.recent, e)
	if len(d.recent) > d.limit {
		d.recent = d.recent[len(d.recent)-d.limit:]
	}
	return nil
}

// Data builds the current snapshot from the ledger's today counters.
func (d *Dashboard) Data() DashboardData {
	now := time.Now().UTC()
	day := dayKey(now)

	d.mu.RLock()
	recent := make([]core.Event, len(d.recent))
	copy(recent, d.recent)
	d.mu.RUnlock()

	return DashboardData{
		GeneratedAt: now,
		Today: Rollup{
			Period:       PeriodDaily,
			Key:          day,
			Donations:    d.ledger.DonationsOn(day),
			AmountRaised: d.ledger.AmountOn(day),
			Achievements: d.ledger.AchievementsOn(day),
			TierAdvances: d.ledger.TierAdvancesOn(day),
			ActiveDonors: d.ledger.ActiveDonors(day),
			CreatedAt:    now,
		},
		RecentEvents: recent,
	}
}
