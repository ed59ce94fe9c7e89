package engine

import (
	"context"
	"time"

	"missionctl/core"
	"missionctl/leaderboard"
	"missionctl/stats"
)

// MissionService wires storage and the event bus into the donation API.
type MissionService struct {
	storage Storage
	bus     *EventBus
}

func NewMissionService(storage Storage, bus *EventBus) *MissionService {
	if storage == nil || bus == nil {
		panic("NewMissionService requires non-nil storage and bus")
	}
	return &MissionService{storage: storage, bus: bus}
}

// Subscribe convenience method.
func (m *MissionService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return m.bus.Subscribe(typ, handler)
}

func (m *MissionService) Publish(ctx context.Context, ev core.Event) {
	m.bus.Publish(ctx, ev)
}

// Donate applies one donation and publishes the resulting domain events
// after the store has committed the mutation.
func (m *MissionService) Donate(ctx context.Context, id core.InternID, amount float64) (core.DonationResult, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return core.DonationResult{}, err
	}
	normalized, err := core.NormalizeInternID(id)
	if err != nil {
		return core.DonationResult{}, core.ErrRecordNotFound
	}

	res, err := m.storage.ApplyDonation(ctx, normalized, amount)
	if err != nil {
		return core.DonationResult{}, err
	}

	m.bus.Publish(ctx, core.NewDonationApplied(normalized, amount, res.NewTotal))
	// PreviousLevel was captured inside the adapter's critical section, so
	// the tier decision is consistent with the write even under concurrent
	// donations to the same record.
	if res.Level > res.PreviousLevel {
		m.bus.Publish(ctx, core.NewTierAdvanced(normalized, res.Level, res.Badge))
	}
	if res.NewAchievement != "" {
		m.bus.Publish(ctx, core.NewAchievementUnlocked(normalized, res.NewAchievement))
	}
	return res, nil
}

// Intern returns the current state of one record.
func (m *MissionService) Intern(ctx context.Context, id core.InternID) (core.Intern, error) {
	normalized, err := core.NormalizeInternID(id)
	if err != nil {
		return core.Intern{}, core.ErrRecordNotFound
	}
	return m.storage.Find(ctx, normalized)
}

// Leaderboard builds the ranked view from a snapshot taken at call time.
func (m *MissionService) Leaderboard(ctx context.Context, now time.Time) (leaderboard.Board, error) {
	records, err := m.storage.Snapshot(ctx)
	if err != nil {
		return leaderboard.Board{}, err
	}
	return leaderboard.Build(records, now), nil
}

// Stats summarizes the whole store.
func (m *MissionService) Stats(ctx context.Context) (stats.Summary, error) {
	records, err := m.storage.Snapshot(ctx)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(records), nil
}

func (m *MissionService) Close() { m.bus.Close() }
