package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"missionctl/core"
)

// Hub distributes live donation events to dashboard connections. Each
// WebSocket session holds one subscription; the hub never blocks on a slow
// session, so a stalled browser cannot back up the donate path.
type Hub struct {
	mu     sync.RWMutex
	feeds  map[int]chan core.Event
	lastID int
}

func NewHub() *Hub { return &Hub{feeds: map[int]chan core.Event{}} }

// Subscribe opens a buffered feed and returns its id for later teardown.
func (h *Hub) Subscribe(buffer int) (int, <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastID++
	id := h.lastID
	ch := make(chan core.Event, buffer)
	h.feeds[id] = ch
	return id, ch
}

// Unsubscribe closes the feed so the reading goroutine unblocks and exits.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.feeds[id]; ok {
		delete(h.feeds, id)
		close(ch)
	}
}

// Broadcast offers ev to every open feed. A feed whose buffer is full misses
// the event; live dashboards recover on the next snapshot fetch.
func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	receivers := make([]chan core.Event, 0, len(h.feeds))
	for _, ch := range h.feeds {
		receivers = append(receivers, ch)
	}
	h.mu.RUnlock()
	for _, ch := range receivers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// MarshalJSON renders an event in the shape the dashboard WebSocket sends.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
