// Package stats computes process-wide summaries of the intern store and
// aggregates domain events into running counters.
package stats

import "missionctl/core"

// Summary is the mission-wide rollup served by the stats endpoint.
type Summary struct {
	TotalAgents    int     `json:"totalAgents"`
	TotalDonations float64 `json:"totalDonations"`
	TotalMissions  int     `json:"totalMissions"`
	TotalTrees     int     `json:"totalTrees"`
	TotalLives     int     `json:"totalLives"`
	TopContributor string  `json:"topContributor"`
}

// Summarize rolls up every record. The top contributor is the record with
// the highest total; on ties the record seen first in store order wins.
func Summarize(records []core.Intern) Summary {
	var s Summary
	s.TotalAgents = len(records)
	var top *core.Intern
	for i := range records {
		rec := &records[i]
		s.TotalDonations += rec.TotalDonations
		s.TotalMissions += rec.MissionsCompleted
		s.TotalTrees += rec.TreesPlanted
		s.TotalLives += rec.LivesImpacted
		if top == nil || rec.TotalDonations > top.TotalDonations {
			top = rec
		}
	}
	if top != nil {
		s.TopContributor = top.Name
	}
	return s
}
