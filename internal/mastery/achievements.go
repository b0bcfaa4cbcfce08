package mastery

import "fmt"

// Achievement is a named criterion over a mastery profile. Granting is
// idempotent: once earned, re-evaluation skips it.
type Achievement struct {
	ID          string
	Name        string
	Description string
	// Criteria reports whether the profile currently satisfies the
	// achievement. Must be a pure read of the profile.
	Criteria func(*UserMasteryProfile) bool
}

// DefaultAchievements builds the standard achievement set for the given
// subject areas: fixed completion-count milestones plus one
// subject-complete achievement per subject.
func DefaultAchievements(subjects []string) []Achievement {
	out := []Achievement{
		{
			ID:          "first_steps",
			Name:        "First Steps",
			Description: "Complete your first skill",
			Criteria: func(p *UserMasteryProfile) bool {
				return p.CompletedCount() >= 1
			},
		},
		{
			ID:          "momentum",
			Name:        "Momentum",
			Description: "Complete 5 skills",
			Criteria: func(p *UserMasteryProfile) bool {
				return p.CompletedCount() >= 5
			},
		},
		{
			ID:          "dedicated",
			Name:        "Dedicated",
			Description: "Complete 15 skills",
			Criteria: func(p *UserMasteryProfile) bool {
				return p.CompletedCount() >= 15
			},
		},
		{
			ID:          "well_rounded",
			Name:        "Well Rounded",
			Description: "Reach 0.5 overall mastery",
			Criteria: func(p *UserMasteryProfile) bool {
				return p.OverallMasteryLevel() >= 0.5
			},
		},
	}

	for _, subject := range subjects {
		subject := subject
		out = append(out, Achievement{
			ID:          "subject_complete:" + subject,
			Name:        fmt.Sprintf("%s Complete", subject),
			Description: fmt.Sprintf("Complete every skill in %s", subject),
			Criteria: func(p *UserMasteryProfile) bool {
				tree, ok := p.Trees[subject]
				if !ok || tree.TotalSkills() == 0 {
					return false
				}
				return tree.CompletedSkills() == tree.TotalSkills()
			},
		})
	}

	return out
}

// evaluateAchievements returns achievements newly satisfied by the
// profile, skipping any already earned.
func evaluateAchievements(registry []Achievement, p *UserMasteryProfile) []Achievement {
	var earned []Achievement
	for _, a := range registry {
		if _, done := p.AchievementsEarned[a.ID]; done {
			continue
		}
		if a.Criteria(p) {
			earned = append(earned, a)
		}
	}
	return earned
}
