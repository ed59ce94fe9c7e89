package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Intern mirrors the public JSON surface of an intern record.
type Intern struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	JoinDate          string   `json:"joinDate"`
	TotalDonations    float64  `json:"totalDonations"`
	MissionsCompleted int      `json:"missionsCompleted"`
	TreesPlanted      int      `json:"treesPlanted"`
	LivesImpacted     int      `json:"livesImpacted"`
	Level             int      `json:"level"`
	Badge             string   `json:"badge"`
	Achievements      []string `json:"achievements"`
}

// DonationResult describes the outcome of a recorded donation.
type DonationResult struct {
	NewTotal       float64 `json:"newTotal"`
	Level          int     `json:"level"`
	Badge          string  `json:"badge"`
	NewAchievement string  `json:"newAchievement,omitempty"`
}

// LeaderboardEntry is a ranked intern as served by the leaderboard endpoint.
type LeaderboardEntry struct {
	Intern
	Rank  int    `json:"rank"`
	Trend string `json:"trend"`
}

// Leaderboard is the full leaderboard response.
type Leaderboard struct {
	Entries     []LeaderboardEntry
	TotalAgents int
	TotalRaised float64
	TotalTrees  int
}

// Stats mirrors the aggregate statistics response.
type Stats struct {
	TotalAgents    int     `json:"totalAgents"`
	TotalDonations float64 `json:"totalDonations"`
	TotalMissions  int     `json:"totalMissions"`
	TotalTrees     int     `json:"totalTrees"`
	TotalLives     int     `json:"totalLives"`
	TopContributor string  `json:"topContributor"`
}

// HealthStatus describes the /health response.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// envelope is the standard {success, data, error, message} response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decodeEnvelope(resp *http.Response, target any) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if !env.Success {
		if env.Error != "" {
			return errors.New(env.Error)
		}
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	if target == nil {
		return nil
	}
	return json.Unmarshal(env.Data, target)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyInternID is returned when the intern id is empty.
var ErrEmptyInternID = errors.New("intern id is required")
