package recommend

import (
	"context"
	"math"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/skillgraph"
)

// progressionScorer ranks content by fit to the mastery tracker's
// recommended work order. The highest-weighted local algorithm:
// progression-correctness beats popularity.
type progressionScorer struct{}

func (progressionScorer) Name() string { return AlgProgression }

const progressionThreshold = 0.35

func (s progressionScorer) Score(_ context.Context, in *Input) ([]ContentRecommendation, error) {
	prog := in.Mastery.Progression
	if len(prog) == 0 {
		return nil, nil
	}

	refs := make([]skillRef, len(prog))
	for i := range prog {
		refs[i] = skillRef{Node: &prog[i], Index: i, Total: len(prog)}
	}

	return scoreEach(in, progressionThreshold, func(item catalog.ContentItem) *ContentRecommendation {
		ref, rel := bestSkillMatch(in.matcher, item, refs)
		if rel == 0 {
			return nil
		}

		// Earlier in the progression order means more aligned with what
		// the tracker wants worked on next.
		alignment := 1 - float64(ref.Index)/float64(ref.Total)

		pathFit := learningPathFit(in, ref.Node)

		score := clamp01(0.4*alignment + 0.3*rel + 0.3*pathFit)

		return &ContentRecommendation{
			Item:       item,
			Score:      score,
			Confidence: 0.9,
			Algorithm:  AlgProgression,
			Factors: []Factor{
				{Type: "progression_alignment", Value: alignment, Weight: 0.4, Confidence: 0.9},
				{Type: "skill_relevance", Value: rel, Weight: 0.3, Confidence: 0.8},
				{Type: "learning_path_fit", Value: pathFit, Weight: 0.3, Confidence: 0.7},
			},
		}
	}), nil
}

// learningPathFit scores how well the skill sits in a curated learning
// path: earlier path positions score higher, skills in no path get a
// neutral half plus a difficulty-continuity bonus.
func learningPathFit(in *Input, node *skillgraph.SkillNode) float64 {
	tree, ok := in.Mastery.Profile.Trees[node.SubjectArea]
	if !ok {
		return 0.5
	}

	for _, path := range tree.LearningPaths {
		for i, id := range path.SkillIDs {
			if id == node.ID {
				return 1 - float64(i)/float64(len(path.SkillIDs)+1)
			}
		}
	}

	// Not in any path: fall back to difficulty continuity with the
	// user's current level.
	level := 1 + in.Mastery.Profile.OverallMasteryLevel()*9
	delta := math.Abs(float64(node.Difficulty) - level)
	return clamp01(0.5 * (1 - delta/9))
}
