package stats

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"missionctl/core"
)

func TestSummarize(t *testing.T) {
	records := []core.Intern{
		{ID: "a", Name: "Asha", TotalDonations: 1200, MissionsCompleted: 3, TreesPlanted: 24, LivesImpacted: 4},
		{ID: "b", Name: "Ben", TotalDonations: 5000, MissionsCompleted: 10, TreesPlanted: 100, LivesImpacted: 20},
		{ID: "c", Name: "Chitra", TotalDonations: 300, MissionsCompleted: 1, TreesPlanted: 6, LivesImpacted: 1},
	}
	s := Summarize(records)
	if s.TotalAgents != 3 || s.TotalDonations != 6500 || s.TotalMissions != 14 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.TotalTrees != 130 || s.TotalLives != 25 {
		t.Fatalf("unexpected impact totals: %+v", s)
	}
	if s.TopContributor != "Ben" {
		t.Fatalf("top contributor = %q, want Ben", s.TopContributor)
	}
}

func TestSummarizeTopContributorTie(t *testing.T) {
	records := []core.Intern{
		{ID: "a", Name: "First", TotalDonations: 900},
		{ID: "b", Name: "Second", TotalDonations: 900},
	}
	if s := Summarize(records); s.TopContributor != "First" {
		t.Fatalf("tie should keep store order, got %q", s.TopContributor)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalAgents != 0 || s.TopContributor != "" {
		t.Fatalf("unexpected empty summary: %+v", s)
	}
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.OnEvent(core.NewDonationApplied("i1", 250, 250))
	m.OnEvent(core.NewDonationApplied("i1", 750, 1000))
	m.OnEvent(core.NewTierAdvanced("i1", 1, core.BadgeBronze))
	m.OnEvent(core.NewAchievementUnlocked("i1", "Impact Maker"))

	c := m.Snapshot()
	if c.DonationsProcessed != 2 || c.AmountRaised != 1000 {
		t.Fatalf("donation counters: %+v", c)
	}
	if c.TierAdvances != 1 || c.AchievementsUnlocked != 1 {
		t.Fatalf("derived counters: %+v", c)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.OnEvent(core.NewDonationApplied("i1", 100, 100))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	var c Counters
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatal(err)
	}
	if c.DonationsProcessed != 1 || c.AmountRaised != 100 {
		t.Fatalf("unexpected body: %+v", c)
	}
}

func TestBridgeHook(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	bridge := NewBridge(a, b)
	bridge.OnEvent(core.Event{Type: core.EventDonationApplied, Time: time.Now(), InternID: "i1", Amount: 5})
	if a.Snapshot().DonationsProcessed != 1 || b.Snapshot().DonationsProcessed != 1 {
		t.Fatal("bridge did not fan out")
	}
}
