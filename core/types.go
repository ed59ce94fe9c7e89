package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// InternID uniquely identifies an intern in the mission domain.
type InternID string

// Badge is the tier label derived from cumulative donations.
type Badge string

const (
	BadgeRookie Badge = "rookie"
	BadgeBronze Badge = "bronze"
	BadgeSilver Badge = "silver"
	BadgeGold   Badge = "gold"
)

// Impact conversion rates: one tree per 50 donated, one life per 250.
const (
	TreeDivisor = 50
	LifeDivisor = 250
)

var (
	// ErrInvalidAmount rejects non-positive or non-finite donation amounts.
	ErrInvalidAmount = errors.New("invalid donation amount")
	// ErrRecordNotFound signals an unknown intern id.
	ErrRecordNotFound = errors.New("intern not found")
)

// Date is a calendar day serialized as "2006-01-02".
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Intern is the per-participant donation-progress record.
// Derived fields (trees, lives, level, badge) are maintained incrementally
// by Advance; they are never set independently.
type Intern struct {
	ID                InternID `json:"id"`
	Name              string   `json:"name"`
	JoinDate          Date     `json:"joinDate"`
	TotalDonations    float64  `json:"totalDonations"`
	MissionsCompleted int      `json:"missionsCompleted"`
	TreesPlanted      int      `json:"treesPlanted"`
	LivesImpacted     int      `json:"livesImpacted"`
	Level             int      `json:"level"`
	Badge             Badge    `json:"badge"`
	Achievements      []string `json:"achievements"`
}

// Clone returns a deep copy so stored records never alias caller slices.
func (i Intern) Clone() Intern {
	cp := i
	cp.Achievements = make([]string, len(i.Achievements))
	copy(cp.Achievements, i.Achievements)
	return cp
}

// HasAchievement reports whether name is already in the unlocked set.
func (i Intern) HasAchievement(name string) bool {
	for _, a := range i.Achievements {
		if a == name {
			return true
		}
	}
	return false
}

// DonationResult is the outcome of one applied donation.
type DonationResult struct {
	NewTotal       float64 `json:"newTotal"`
	Level          int     `json:"level"`
	Badge          Badge   `json:"badge"`
	NewAchievement string  `json:"newAchievement,omitempty"`

	// PreviousLevel is the level the record held before this donation was
	// applied. It is captured inside the storage adapter's critical section
	// so callers can detect a tier advance without a second read. Internal
	// bookkeeping, not part of the response body.
	PreviousLevel int `json:"-"`
}

// ValidateAmount enforces the donation precondition: finite and strictly
// positive.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NormalizeInternID trims whitespace from intern identifiers.
func NormalizeInternID(id InternID) (InternID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty intern id")
	}
	return InternID(s), nil
}
