package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventDonationApplied     EventType = "donation_applied"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventTierAdvanced        EventType = "tier_advanced"
)

// Event represents an immutable domain event.
type Event struct {
	Type        EventType `json:"type"`
	Time        time.Time `json:"time"`
	InternID    InternID  `json:"intern_id"`
	Amount      float64   `json:"amount,omitempty"`
	Total       float64   `json:"total,omitempty"`
	Level       int       `json:"level,omitempty"`
	Badge       Badge     `json:"badge,omitempty"`
	Achievement string    `json:"achievement,omitempty"`
}

func NewDonationApplied(id InternID, amount, total float64) Event {
	return Event{Type: EventDonationApplied, Time: time.Now().UTC(), InternID: id, Amount: amount, Total: total}
}

func NewAchievementUnlocked(id InternID, name string) Event {
	return Event{Type: EventAchievementUnlocked, Time: time.Now().UTC(), InternID: id, Achievement: name}
}

func NewTierAdvanced(id InternID, level int, badge Badge) Event {
	return Event{Type: EventTierAdvanced, Time: time.Now().UTC(), InternID: id, Level: level, Badge: badge}
}
