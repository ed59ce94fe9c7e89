package core

// achievementRule pairs an unlockable name with its qualifying predicate.
type achievementRule struct {
	Name string
	Met  func(Intern) bool
}

// achievementTable is ordered by priority. Evaluation is top-to-bottom with
// first-unowned-match semantics: rules whose names are already unlocked are
// skipped, so a record that keeps qualifying for a high rule can still earn
// lower ones on later donations.
var achievementTable = []achievementRule{
	{"Elite Contributor", func(i Intern) bool { return i.TotalDonations >= 25000 }},
	{"Mission Master", func(i Intern) bool { return i.MissionsCompleted >= 50 }},
	{"Forest Guardian", func(i Intern) bool { return i.TreesPlanted >= 500 }},
	{"Life Changer", func(i Intern) bool { return i.LivesImpacted >= 100 }},
	{"Gold Standard", func(i Intern) bool { return i.TotalDonations >= 10000 }},
	{"Century Club", func(i Intern) bool { return i.MissionsCompleted >= 25 }},
	{"Tree Hugger", func(i Intern) bool { return i.TreesPlanted >= 100 }},
	{"Consistency Champion", func(i Intern) bool { return i.MissionsCompleted >= 10 }},
	{"Rising Star", func(i Intern) bool { return i.TotalDonations >= 5000 }},
	{"Weekend Warrior", func(i Intern) bool { return i.MissionsCompleted >= 5 }},
	{"Impact Maker", func(i Intern) bool { return i.TotalDonations >= 1000 }},
	{"First Donation", func(i Intern) bool { return i.MissionsCompleted >= 1 }},
}

// NextAchievement returns the highest-priority achievement the record
// qualifies for but has not yet unlocked. At most one achievement is
// reported per donation event.
func NextAchievement(rec Intern) (string, bool) {
	for _, rule := range achievementTable {
		if rec.HasAchievement(rule.Name) {
			continue
		}
		if rule.Met(rec) {
			return rule.Name, true
		}
	}
	return "", false
}

// AchievementNames lists every unlockable name in priority order.
func AchievementNames() []string {
	names := make([]string, len(achievementTable))
	for i, rule := range achievementTable {
		names[i] = rule.Name
	}
	return names
}
