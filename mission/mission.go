// Package mission assembles storage, event bus, realtime hub, and hooks into
// a ready-to-use MissionService.
package mission

import (
	"context"

	mem "missionctl/adapters/memory"
	"missionctl/core"
	"missionctl/engine"
	"missionctl/realtime"
	"missionctl/stats"
)

// Option configures the mission service builder.
type Option func(*config)

type config struct {
	storage engine.Storage
	mode    engine.DispatchMode
	hub     *realtime.Hub
	seed    []core.Intern
	hooks   []stats.Hook
}

// WithStorage sets the record store adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithSeed sets the dataset used when no explicit storage is given.
func WithSeed(records []core.Intern) Option { return func(c *config) { c.seed = records } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithHook subscribes a stats hook (metrics, webhook sink) to all events.
func WithHook(h stats.Hook) Option {
	return func(c *config) {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}

var eventTypes = []core.EventType{
	core.EventDonationApplied,
	core.EventTierAdvanced,
	core.EventAchievementUnlocked,
}

// New builds a configured MissionService. Defaults:
//   - storage: in-memory, seeded with WithSeed records (empty otherwise)
//   - dispatch: async
func New(opts ...Option) *engine.MissionService {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = mem.New(cfg.seed)
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewMissionService(cfg.storage, bus)
	for _, typ := range eventTypes {
		typ := typ
		if cfg.hub != nil {
			bus.Subscribe(typ, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		}
		for _, h := range cfg.hooks {
			h := h
			bus.Subscribe(typ, func(_ context.Context, e core.Event) { h.OnEvent(e) })
		}
	}
	return svc
}
