package recommend

import (
	"context"

	"github.com/pathwise/pathwise/internal/catalog"
)

// collaborativeScorer approximates "users like you engaged with this"
// from the cohort signals available locally: the user's own per-type
// affinity and per-subject learning velocity, both EMAs over the same
// interaction stream a cross-user model would consume. Deterministic by
// construction so the ensemble stays reproducible.
type collaborativeScorer struct{}

func (collaborativeScorer) Name() string { return AlgCollaborative }

const collaborativeThreshold = 0.3

func (s collaborativeScorer) Score(_ context.Context, in *Input) ([]ContentRecommendation, error) {
	if in.Profile.TotalInteractions == 0 {
		// Nothing to collaborate on yet.
		return nil, nil
	}
	confidence := confidenceFromSamples(in.Profile.TotalInteractions)

	return scoreEach(in, collaborativeThreshold, func(item catalog.ContentItem) *ContentRecommendation {
		affinity := in.Profile.TypeAffinity[item.ContentType]
		velocity := in.Profile.LearningVelocity[item.Subject]

		score := clamp01(0.6*affinity + 0.4*velocity)

		return &ContentRecommendation{
			Item:       item,
			Score:      score,
			Confidence: confidence,
			Algorithm:  AlgCollaborative,
			Factors: []Factor{
				{Type: "collaborative_signal", Value: score, Weight: 1.0, Confidence: confidence},
			},
		}
	}), nil
}
