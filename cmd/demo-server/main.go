package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	mem "missionctl/adapters/memory"
	ws "missionctl/adapters/websocket"
	"missionctl/core"
	"missionctl/engine"
	"missionctl/realtime"
	"missionctl/seed"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()
	records, err := seed.Default()
	if err != nil {
		slog.Error("failed to load seed data", "error", err)
		os.Exit(1)
	}
	store := mem.New(records)
	bus := engine.NewEventBus(engine.DispatchAsync)
	svc := engine.NewMissionService(store, bus)
	hub := realtime.NewHub()

	// Forward donation events to WebSocket clients
	bus.Subscribe(core.EventDonationApplied, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventAchievementUnlocked, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventTierAdvanced, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })

	http.Handle("/ws", ws.Handler(hub))
	http.HandleFunc("/interns/", func(w http.ResponseWriter, r *http.Request) {
		// routes: POST /interns/{id}/donate?amount=50, GET /interns/{id}
		parts := split(r.URL.Path, '/')
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		id := core.InternID(parts[1])
		switch r.Method {
		case http.MethodPost:
			if len(parts) >= 3 && parts[2] == "donate" {
				amount, _ := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
				result, err := svc.Donate(ctx, id, amount)
				writeJSON(w, map[string]any{"result": result, "err": errString(err)})
				return
			}
		case http.MethodGet:
			rec, err := svc.Intern(ctx, id)
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			writeJSON(w, rec)
			return
		}
		http.NotFound(w, r)
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func split(p string, sep rune) []string {
	var parts []string
	current := make([]rune, 0, len(p))

	for _, r := range p {
		if r == sep {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = current[:0]
			}
			continue
		}
		current = append(current, r)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
