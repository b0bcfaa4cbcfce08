package mastery

import (
	"time"

	"github.com/pathwise/pathwise/internal/skillgraph"
)

// UserMasteryProfile is the per-user view of the skill graph: a copy of
// each curriculum tree carrying the user's mastery state, plus earned
// achievements and the quality history that drives the adaptive
// threshold. Owned exclusively by the Tracker; recommendation algorithms
// see read-only copies.
type UserMasteryProfile struct {
	UserID string                          `json:"user_id"`
	Trees  map[string]*skillgraph.SkillTree `json:"trees"`

	// AchievementsEarned maps achievement ID to the time it was granted.
	// Granting is idempotent; re-evaluation never re-grants.
	AchievementsEarned map[string]time.Time `json:"achievements_earned"`

	// QualityHistory holds recent evidence quality per subject area,
	// newest last, capped at qualityHistoryCap.
	QualityHistory map[string][]float64 `json:"quality_history"`
}

// NewUserMasteryProfile returns an empty profile.
func NewUserMasteryProfile(userID string) *UserMasteryProfile {
	return &UserMasteryProfile{
		UserID:             userID,
		Trees:              make(map[string]*skillgraph.SkillTree),
		AchievementsEarned: make(map[string]time.Time),
		QualityHistory:     make(map[string][]float64),
	}
}

// Node finds a skill node across all trees, or nil.
func (p *UserMasteryProfile) Node(skillID string) *skillgraph.SkillNode {
	for _, tree := range p.Trees {
		if n := tree.Node(skillID); n != nil {
			return n
		}
	}
	return nil
}

// CompletedCount returns the number of completed skills across all trees.
func (p *UserMasteryProfile) CompletedCount() int {
	count := 0
	for _, tree := range p.Trees {
		count += tree.CompletedSkills()
	}
	return count
}

// OverallMasteryLevel is the mean mastery across every skill in the
// profile, in [0, 1]. Zero for an empty profile.
func (p *UserMasteryProfile) OverallMasteryLevel() float64 {
	var sum float64
	var count int
	for _, tree := range p.Trees {
		for _, n := range tree.Nodes {
			sum += n.CurrentMastery
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// recordQuality appends evidence quality to the subject's history,
// dropping the oldest entries past the cap.
func (p *UserMasteryProfile) recordQuality(subject string, quality float64) {
	h := append(p.QualityHistory[subject], quality)
	if len(h) > qualityHistoryCap {
		h = h[len(h)-qualityHistoryCap:]
	}
	p.QualityHistory[subject] = h
}

// Clone returns a deep copy of the profile.
func (p *UserMasteryProfile) Clone() *UserMasteryProfile {
	out := &UserMasteryProfile{
		UserID:             p.UserID,
		Trees:              make(map[string]*skillgraph.SkillTree, len(p.Trees)),
		AchievementsEarned: make(map[string]time.Time, len(p.AchievementsEarned)),
		QualityHistory:     make(map[string][]float64, len(p.QualityHistory)),
	}
	for subject, tree := range p.Trees {
		out.Trees[subject] = tree.Clone()
	}
	for id, t := range p.AchievementsEarned {
		out.AchievementsEarned[id] = t
	}
	for subject, h := range p.QualityHistory {
		out.QualityHistory[subject] = append([]float64(nil), h...)
	}
	return out
}
