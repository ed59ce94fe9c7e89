package leaderboard

import (
	"math"
	"sort"
	"time"

	"missionctl/core"
)

// Trend is a coarse classification of average daily donation rate.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendSame Trend = "same"
)

// Entry is one ranked leaderboard row. The intern record is embedded so the
// JSON surface stays flat, matching the read API.
type Entry struct {
	core.Intern
	Rank  int   `json:"rank"`
	Trend Trend `json:"trend"`
}

// Board is the full ranked view plus aggregate totals.
type Board struct {
	Entries     []Entry `json:"entries"`
	TotalAgents int     `json:"totalAgents"`
	TotalRaised float64 `json:"totalRaised"`
	TotalTrees  int     `json:"totalTrees"`
}

// Build derives a ranked, trend-annotated view of the given records without
// mutating them. Records are sorted by total donations descending; ties keep
// their original store order. Ranks are the 1-based positions after sorting.
func Build(records []core.Intern, now time.Time) Board {
	entries := make([]Entry, len(records))
	board := Board{Entries: entries, TotalAgents: len(records)}
	for i, rec := range records {
		entries[i] = Entry{Intern: rec.Clone(), Trend: TrendFor(rec, now)}
		board.TotalRaised += rec.TotalDonations
		board.TotalTrees += rec.TreesPlanted
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].TotalDonations > entries[b].TotalDonations
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return board
}

// TrendFor classifies a record's average donations per whole day since its
// join date: above 100 is "up", below 50 is "down", anything between is
// "same". A record joined today has no elapsed days to average over and is
// reported as "same".
func TrendFor(rec core.Intern, now time.Time) Trend {
	daysActive := int(math.Floor(now.Sub(rec.JoinDate.Time).Hours() / 24))
	if daysActive <= 0 {
		return TrendSame
	}
	avgPerDay := rec.TotalDonations / float64(daysActive)
	switch {
	case avgPerDay > 100:
		return TrendUp
	case avgPerDay < 50:
		return TrendDown
	default:
		return TrendSame
	}
}
