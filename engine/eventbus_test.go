package engine

import (
	"context"
	"testing"

	"missionctl/core"
)

func TestEventBusSyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	got := 0
	unsub := bus.Subscribe(core.EventDonationApplied, func(ctx context.Context, e core.Event) { got++ })
	bus.Publish(context.Background(), core.NewDonationApplied("i1", 10, 10))
	if got != 1 {
		t.Fatalf("got %d events, want 1", got)
	}

	unsub()
	bus.Publish(context.Background(), core.NewDonationApplied("i1", 10, 20))
	if got != 1 {
		t.Fatal("handler called after unsubscribe")
	}
}

func TestEventBusTypeFiltering(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	got := 0
	bus.Subscribe(core.EventTierAdvanced, func(ctx context.Context, e core.Event) { got++ })
	bus.Publish(context.Background(), core.NewDonationApplied("i1", 10, 10))
	if got != 0 {
		t.Fatal("handler received wrong event type")
	}
}
