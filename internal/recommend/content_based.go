package recommend

import (
	"context"
	"math"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/profile"
	"github.com/pathwise/pathwise/internal/skillgraph"
)

// contentBasedScorer matches content against the user's learned
// preference vector, their difficulty comfort zone, and their active
// objectives (focus skills and top gaps).
type contentBasedScorer struct{}

func (contentBasedScorer) Name() string { return AlgContentBased }

const contentBasedThreshold = 0.3

func (s contentBasedScorer) Score(_ context.Context, in *Input) ([]ContentRecommendation, error) {
	objectives := activeObjectives(in)
	coldStart := in.Profile.TotalInteractions == 0

	return scoreEach(in, contentBasedThreshold, func(item catalog.ContentItem) *ContentRecommendation {
		// Cold start: no preference signal yet, stay neutral rather
		// than zeroing every candidate out.
		similarity := 0.5
		simConfidence := 0.2
		if !coldStart {
			similarity = cosineSimilarity(in.Profile.PreferenceVector, profile.FeatureVector(item))
			simConfidence = confidenceFromSamples(in.Profile.TotalInteractions)
		}

		diffMatch := difficultyMatch(in, item)

		_, topicRel := bestSkillMatch(in.matcher, item, objectives)

		score := clamp01(0.3*similarity + 0.4*clamp01(diffMatch) + 0.3*topicRel)

		return &ContentRecommendation{
			Item:       item,
			Score:      score,
			Confidence: simConfidence,
			Algorithm:  AlgContentBased,
			Factors: []Factor{
				{Type: "preference_similarity", Value: similarity, Weight: 0.3, Confidence: simConfidence},
				{Type: "difficulty_match", Value: diffMatch, Weight: 0.4, Confidence: 0.8},
				{Type: "topic_relevance", Value: topicRel, Weight: 0.3, Confidence: 0.7},
			},
		}
	}), nil
}

// difficultyMatch compares item difficulty to the user's comfort level,
// signed: 1 at a perfect match, negative when wildly off.
func difficultyMatch(in *Input, item catalog.ContentItem) float64 {
	level := in.Profile.DifficultyPreference
	if level == 0 {
		// No interaction signal yet; derive from overall mastery.
		level = 1 + in.Mastery.Profile.OverallMasteryLevel()*9
	}
	delta := math.Abs(float64(item.Difficulty) - level)
	return 1 - delta/4.5
}

// activeObjectives returns the skills the user is working toward: focus
// skills first, then the top gaps.
func activeObjectives(in *Input) []skillRef {
	var refs []skillRef
	seen := make(map[string]bool)

	add := func(n *skillgraph.SkillNode) {
		if n == nil || seen[n.ID] {
			return
		}
		seen[n.ID] = true
		refs = append(refs, skillRef{Node: n, Index: len(refs)})
	}

	for _, tree := range in.Mastery.Profile.Trees {
		for _, id := range tree.CurrentFocus {
			add(tree.Node(id))
		}
	}
	const topGaps = 5
	for i := range in.Mastery.Gaps {
		if i == topGaps {
			break
		}
		add(in.Mastery.Profile.Node(in.Mastery.Gaps[i].SkillID))
	}

	for i := range refs {
		refs[i].Total = len(refs)
	}
	return refs
}

// confidenceFromSamples grows confidence with interaction history,
// saturating around 50 interactions.
func confidenceFromSamples(n int) float64 {
	return clamp01(float64(n) / 50.0)
}
