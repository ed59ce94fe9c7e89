package core

import "math"

// Tier pairs a level with its badge label.
type Tier struct {
	Level int
	Badge Badge
}

// tierTable is evaluated highest threshold first; first match wins.
var tierTable = []struct {
	MinTotal float64
	Tier     Tier
}{
	{10000, Tier{3, BadgeGold}},
	{5000, Tier{2, BadgeSilver}},
	{1000, Tier{1, BadgeBronze}},
	{0, Tier{0, BadgeRookie}},
}

// TierFor derives level and badge purely from the cumulative total.
func TierFor(total float64) Tier {
	for _, row := range tierTable {
		if total >= row.MinTotal {
			return row.Tier
		}
	}
	return Tier{0, BadgeRookie}
}

// Advance applies one donation to a copy of rec and returns the updated
// record together with the reported result. rec itself is never mutated; the
// caller commits the returned record.
//
// Trees and lives grow by floor(amount/divisor) per event rather than being
// recomputed from the new total. The two forms diverge when amounts are not
// whole multiples of the divisor, and the incremental form is the observed
// behavior this system preserves.
func Advance(rec Intern, amount float64) (Intern, DonationResult, error) {
	if err := ValidateAmount(amount); err != nil {
		return rec, DonationResult{}, err
	}

	next := rec.Clone()
	next.TotalDonations += amount
	next.MissionsCompleted++
	next.TreesPlanted += int(math.Floor(amount / TreeDivisor))
	next.LivesImpacted += int(math.Floor(amount / LifeDivisor))

	tier := TierFor(next.TotalDonations)
	next.Level = tier.Level
	next.Badge = tier.Badge

	res := DonationResult{
		NewTotal:      next.TotalDonations,
		Level:         next.Level,
		Badge:         next.Badge,
		PreviousLevel: rec.Level,
	}
	if name, ok := NextAchievement(next); ok {
		next.Achievements = append(next.Achievements, name)
		res.NewAchievement = name
	}
	return next, res, nil
}
