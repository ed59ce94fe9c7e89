package core

import (
	"testing"
	"time"
)

func TestNextAchievementPriority(t *testing.T) {
	rec := Intern{ID: "i1", JoinDate: NewDate(2024, time.March, 1)}
	rec.TotalDonations = 1200
	rec.MissionsCompleted = 1

	name, ok := NextAchievement(rec)
	if !ok || name != "Impact Maker" {
		t.Fatalf("got %q/%v, want Impact Maker", name, ok)
	}
}

func TestNextAchievementSkipsOwned(t *testing.T) {
	rec := Intern{ID: "i1"}
	rec.TotalDonations = 1200
	rec.MissionsCompleted = 2
	rec.Achievements = []string{"Impact Maker"}

	// Impact Maker is owned, so evaluation falls through to First Donation.
	name, ok := NextAchievement(rec)
	if !ok || name != "First Donation" {
		t.Fatalf("got %q/%v, want First Donation", name, ok)
	}
}

func TestNextAchievementNone(t *testing.T) {
	rec := Intern{ID: "i1"}
	if name, ok := NextAchievement(rec); ok {
		t.Fatalf("fresh record unexpectedly earned %q", name)
	}

	rec.MissionsCompleted = 1
	rec.Achievements = []string{"First Donation"}
	if name, ok := NextAchievement(rec); ok {
		t.Fatalf("got %q, want none when every matching rule is owned", name)
	}
}

func TestAchievementSetOnlyGrows(t *testing.T) {
	rec := Intern{ID: "i1", Badge: BadgeRookie}
	seen := map[string]int{}
	for i := 0; i < 60; i++ {
		var err error
		rec, _, err = Advance(rec, 600)
		if err != nil {
			t.Fatal(err)
		}
		for _, a := range rec.Achievements {
			seen[a]++
		}
	}
	for name, n := range seen {
		if !rec.HasAchievement(name) {
			t.Fatalf("achievement %q disappeared", name)
		}
		_ = n
	}
	unique := map[string]struct{}{}
	for _, a := range rec.Achievements {
		if _, dup := unique[a]; dup {
			t.Fatalf("duplicate achievement %q", a)
		}
		unique[a] = struct{}{}
	}
}

func TestAchievementNamesOrdered(t *testing.T) {
	names := AchievementNames()
	if len(names) != 12 {
		t.Fatalf("got %d names, want 12", len(names))
	}
	if names[0] != "Elite Contributor" || names[11] != "First Donation" {
		t.Fatalf("unexpected priority order: %v", names)
	}
}
