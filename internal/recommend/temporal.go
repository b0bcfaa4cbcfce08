package recommend

import (
	"context"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/profile"
)

// temporalScorer favors content that fits the user's habitual study
// rhythm: requests landing in a bucket where the user historically
// engages get a boost, and content never seen beats content seen long
// ago.
type temporalScorer struct{}

func (temporalScorer) Name() string { return AlgTemporal }

const temporalThreshold = 0.3

func (s temporalScorer) Score(_ context.Context, in *Input) ([]ContentRecommendation, error) {
	if in.Profile.TotalInteractions == 0 {
		return nil, nil
	}

	bucket := profile.TemporalKey(in.Now)
	bucketShare := float64(in.Profile.TemporalPattern[bucket]) / float64(in.Profile.TotalInteractions)
	// A habitual slot saturates quickly; one fifth of all activity in
	// this bucket is already a strong pattern.
	habitFit := clamp01(bucketShare * 5)
	confidence := confidenceFromSamples(in.Profile.TotalInteractions)

	return scoreEach(in, temporalThreshold, func(item catalog.ContentItem) *ContentRecommendation {
		freshness := 1.0
		if last, ok := in.Profile.LastSeen[item.ID]; ok {
			// Seen before: freshness grows back with elapsed time,
			// saturating after thirty days.
			days := in.Now.Sub(last).Hours() / 24
			freshness = clamp01(days / 30)
		}

		score := clamp01(0.6*habitFit + 0.4*freshness)

		return &ContentRecommendation{
			Item:       item,
			Score:      score,
			Confidence: confidence,
			Algorithm:  AlgTemporal,
			Factors: []Factor{
				{Type: "habit_fit", Value: habitFit, Weight: 0.6, Confidence: confidence},
				{Type: "freshness", Value: freshness, Weight: 0.4, Confidence: 0.9},
			},
		}
	}), nil
}
