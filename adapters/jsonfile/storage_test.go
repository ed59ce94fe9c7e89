package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"missionctl/core"
)

func seedRecords() []core.Intern {
	return []core.Intern{
		{ID: "i1", Name: "One", JoinDate: core.NewDate(2024, time.January, 1), Badge: core.BadgeRookie},
		{ID: "i2", Name: "Two", JoinDate: core.NewDate(2024, time.February, 1), Badge: core.BadgeRookie},
	}
}

func TestStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interns.json")

	store, err := New(path, seedRecords())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	res, err := store.ApplyDonation(context.Background(), "i1", 1200)
	if err != nil || res.NewTotal != 1200 {
		t.Fatalf("donation: res=%+v err=%v", res, err)
	}

	// ensure file written
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s", path)
	}

	// reload; file contents win over seed
	reloaded, err := New(path, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	rec, err := reloaded.Find(context.Background(), "i1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.TotalDonations != 1200 || rec.TreesPlanted != 24 || rec.Badge != core.BadgeBronze {
		t.Fatalf("state lost across reload: %+v", rec)
	}

	snap, err := reloaded.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap) != 2 || snap[0].ID != "i1" || snap[1].ID != "i2" {
		t.Fatalf("store order lost across reload: %+v", snap)
	}
}

func TestStoreInvalidDonationDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interns.json")
	store, err := New(path, seedRecords())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.ApplyDonation(context.Background(), "i1", -1); err != core.ErrInvalidAmount {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	reloaded, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := reloaded.Find(context.Background(), "i1")
	if rec.TotalDonations != 0 {
		t.Fatalf("failed donation persisted: %+v", rec)
	}
}
