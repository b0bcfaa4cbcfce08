package recommend

import (
	"context"
	"fmt"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/skillgraph"
)

// prereqScorer pushes content for the incomplete prerequisites of
// almost-unlockable skills: finish these and something new opens up.
type prereqScorer struct{}

func (prereqScorer) Name() string { return AlgPrerequisite }

const prereqThreshold = 0.3

// prereqTarget is one incomplete prerequisite with the unlock it blocks.
type prereqTarget struct {
	prereq      *skillgraph.SkillNode
	blocked     string
	prereqValue float64 // how far the prerequisite is from completion
	impact      float64 // how close the blocked skill is to unlocking
}

func (s prereqScorer) Score(_ context.Context, in *Input) ([]ContentRecommendation, error) {
	targets := prereqTargets(in)
	if len(targets) == 0 {
		return nil, nil
	}

	refs := make([]skillRef, len(targets))
	for i := range targets {
		refs[i] = skillRef{Node: targets[i].prereq, Index: i, Total: len(targets)}
	}

	return scoreEach(in, prereqThreshold, func(item catalog.ContentItem) *ContentRecommendation {
		ref, rel := bestSkillMatch(in.matcher, item, refs)
		if rel == 0 {
			return nil
		}
		target := targets[ref.Index]

		score := clamp01((0.5*target.prereqValue + 0.5*target.impact) * rel)

		return &ContentRecommendation{
			Item:       item,
			Score:      score,
			Confidence: rel,
			Algorithm:  AlgPrerequisite,
			Reasoning:  fmt.Sprintf("completing %s unlocks %s", target.prereq.Name, target.blocked),
			Factors: []Factor{
				{Type: "prerequisite_value", Value: target.prereqValue, Weight: 0.5, Confidence: rel},
				{Type: "unlock_impact", Value: target.impact, Weight: 0.5, Confidence: 0.9},
			},
		}
	}), nil
}

// prereqTargets collects the incomplete prerequisites of every
// unlockable skill, deduplicated on the highest-impact unlock.
func prereqTargets(in *Input) []prereqTarget {
	byPrereq := make(map[string]int)
	var targets []prereqTarget

	for i := range in.Mastery.Unlockable {
		unlockable := &in.Mastery.Unlockable[i]

		completed := 0
		for _, prereqID := range unlockable.Prerequisites {
			if p := in.Mastery.Profile.Node(prereqID); p != nil && p.IsCompleted {
				completed++
			}
		}
		total := len(unlockable.Prerequisites)
		if total == 0 {
			continue
		}
		impact := float64(completed+1) / float64(total)
		if impact > 1 {
			impact = 1
		}

		for _, prereqID := range unlockable.Prerequisites {
			p := in.Mastery.Profile.Node(prereqID)
			if p == nil || p.IsCompleted || !p.IsUnlocked {
				continue
			}
			t := prereqTarget{
				prereq:      p,
				blocked:     unlockable.Name,
				prereqValue: 1 - p.CurrentMastery,
				impact:      impact,
			}
			if idx, ok := byPrereq[prereqID]; ok {
				if t.impact > targets[idx].impact {
					targets[idx] = t
				}
				continue
			}
			byPrereq[prereqID] = len(targets)
			targets = append(targets, t)
		}
	}
	return targets
}
