package recommend

import (
	"context"
	"fmt"

	"github.com/pathwise/pathwise/internal/catalog"
)

// skillGapScorer pushes content that closes the user's highest-priority
// mastery gaps.
type skillGapScorer struct{}

func (skillGapScorer) Name() string { return AlgSkillGap }

const skillGapThreshold = 0.3

func (s skillGapScorer) Score(_ context.Context, in *Input) ([]ContentRecommendation, error) {
	gaps := in.Mastery.Gaps
	if len(gaps) == 0 {
		return nil, nil
	}

	refs := make([]skillRef, 0, len(gaps))
	for i := range gaps {
		refs = append(refs, skillRef{Node: &gaps[i].Node, Index: i, Total: len(gaps)})
	}

	return scoreEach(in, skillGapThreshold, func(item catalog.ContentItem) *ContentRecommendation {
		ref, rel := bestSkillMatch(in.matcher, item, refs)
		if rel == 0 {
			return nil
		}
		gap := gaps[ref.Index]

		score := clamp01((0.6*gap.Gap + 0.4*gap.Urgency) * rel)

		return &ContentRecommendation{
			Item:       item,
			Score:      score,
			Confidence: rel,
			Algorithm:  AlgSkillGap,
			Reasoning:  fmt.Sprintf("addresses gap in %s", gap.Node.Name),
			Factors: []Factor{
				{Type: "gap_addressing", Value: gap.Gap, Weight: 0.6, Confidence: rel},
				{Type: "gap_urgency", Value: gap.Urgency, Weight: 0.4, Confidence: 0.9},
			},
		}
	}), nil
}
