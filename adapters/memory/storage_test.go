package memory

import (
	"context"
	"sync"
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

func TestFindAndNotFound(t *testing.T) {
	s := New(seedRecords())
	ctx := context.Background()

	rec, err := s.Find(ctx, "i1")
	if err != nil || rec.Name != "One" {
		t.Fatalf("got %v %v", rec, err)
	}
	if _, err := s.Find(ctx, "ghost"); err != core.ErrRecordNotFound {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestSnapshotOrder(t *testing.T) {
	s := New(seedRecords())
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap) != 2 || snap[0].ID != "i1" || snap[1].ID != "i2" {
		t.Fatalf("snapshot order wrong: %+v", snap)
	}
	// snapshot must not alias the store
	snap[0].Name = "mutated"
	rec, _ := s.Find(context.Background(), "i1")
	if rec.Name != "One" {
		t.Fatal("snapshot aliased stored record")
	}
}

func TestApplyDonation(t *testing.T) {
	s := New(seedRecords())
	ctx := context.Background()

	res, err := s.ApplyDonation(ctx, "i1", 1200)
	if err != nil {
		t.Fatal(err)
	}
	if res.NewTotal != 1200 || res.Badge != core.BadgeBronze || res.NewAchievement != "Impact Maker" {
		t.Fatalf("unexpected result: %+v", res)
	}
	rec, _ := s.Find(ctx, "i1")
	if rec.TreesPlanted != 24 || rec.LivesImpacted != 4 || rec.MissionsCompleted != 1 {
		t.Fatalf("record not committed: %+v", rec)
	}
}

func TestApplyDonationFailureLeavesRecordUnchanged(t *testing.T) {
	s := New(seedRecords())
	ctx := context.Background()

	if _, err := s.ApplyDonation(ctx, "i1", -10); err != core.ErrInvalidAmount {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	rec, _ := s.Find(ctx, "i1")
	if rec.TotalDonations != 0 || rec.MissionsCompleted != 0 {
		t.Fatalf("record changed on failed donation: %+v", rec)
	}

	if _, err := s.ApplyDonation(ctx, "ghost", 10); err != core.ErrRecordNotFound {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestConcurrentDonationsStayConsistent(t *testing.T) {
	s := New(seedRecords())
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ApplyDonation(ctx, "i1", 100); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	rec, _ := s.Find(ctx, "i1")
	if rec.TotalDonations != n*100 || rec.MissionsCompleted != n || rec.TreesPlanted != n*2 {
		t.Fatalf("lost updates: %+v", rec)
	}
}
