package engine

import (
	"context"
	"sync"
	"time"

	"missionctl/core"
)

// DispatchMode selects whether donation events reach handlers on the
// donating goroutine or through a worker pool.
type DispatchMode int

const (
	// DispatchSync runs handlers inline before Donate returns. The HTTP
	// response then reflects every side effect, which the API tests rely on.
	DispatchSync DispatchMode = iota
	// DispatchAsync queues events for a small worker pool so webhook and
	// stats hooks never add latency to the donate path.
	DispatchAsync
)

type handlerEntry struct {
	id int64
	fn func(context.Context, core.Event)
}

// EventBus fans donation, tier, and achievement events out to subscribers.
// Safe for concurrent use.
type EventBus struct {
	mode    DispatchMode
	mu      sync.RWMutex
	subs    map[core.EventType]map[int64]handlerEntry
	nextID  int64
	queue   chan core.Event
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewEventBus(mode DispatchMode) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	bus := &EventBus{
		mode:    mode,
		subs:    make(map[core.EventType]map[int64]handlerEntry),
		queue:   make(chan core.Event, 1024),
		workers: 4,
		ctx:     ctx,
		cancel:  cancel,
	}
	if mode == DispatchAsync {
		bus.startWorkers()
	}
	return bus
}

func (e *EventBus) startWorkers() {
	for i := 0; i < e.workers; i++ {
		go func() {
			for {
				select {
				case ev := <-e.queue:
					e.dispatch(context.Background(), ev)
				case <-e.ctx.Done():
					return
				}
			}
		}()
	}
}

// Close stops the worker pool. Events still queued may be dropped.
func (e *EventBus) Close() {
	e.cancel()
	// give in-flight handlers a moment to finish
	time.Sleep(10 * time.Millisecond)
}

// Subscribe registers a handler for one event type and returns the matching
// unsubscribe func. Handlers for a type run in no particular order.
func (e *EventBus) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	if e.subs[typ] == nil {
		e.subs[typ] = make(map[int64]handlerEntry)
	}
	e.subs[typ][id] = handlerEntry{id: id, fn: handler}
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if m := e.subs[typ]; m != nil {
			delete(m, id)
		}
	}
}

// Publish delivers ev according to the bus mode. In async mode a full queue
// drops the event rather than stalling the donation that produced it.
func (e *EventBus) Publish(ctx context.Context, ev core.Event) {
	if e.mode == DispatchAsync {
		select {
		case e.queue <- ev:
		default:
		}
		return
	}
	e.dispatch(ctx, ev)
}

func (e *EventBus) dispatch(ctx context.Context, ev core.Event) {
	e.mu.RLock()
	entries := e.subs[ev.Type]
	// handlers run outside the lock so they may subscribe or unsubscribe
	handlers := make([]func(context.Context, core.Event), 0, len(entries))
	for _, entry := range entries {
		handlers = append(handlers, entry.fn)
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}
