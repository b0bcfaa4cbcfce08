package recommend

import (
	"context"

	"github.com/pathwise/pathwise/internal/catalog"
)

// socialScorer surfaces content suited to learning with or from others:
// inherently collaborative formats, weighted by how ready the user is
// to participate. Content touching skills they have completed scores
// higher because they can contribute, not just consume.
type socialScorer struct{}

func (socialScorer) Name() string { return AlgSocial }

const socialThreshold = 0.3

// socialWeight ranks content formats by how collaborative they are.
var socialWeight = map[catalog.ContentType]float64{
	catalog.TypeProject:    1.0,
	catalog.TypeAssessment: 0.5,
	catalog.TypeExercise:   0.4,
	catalog.TypeVideo:      0.3,
	catalog.TypeReading:    0.3,
	catalog.TypeLesson:     0.2,
}

func (s socialScorer) Score(_ context.Context, in *Input) ([]ContentRecommendation, error) {
	completed := completedSkills(in)

	return scoreEach(in, socialThreshold, func(item catalog.ContentItem) *ContentRecommendation {
		format := socialWeight[item.ContentType]

		_, readiness := bestSkillMatch(in.matcher, item, completed)

		score := clamp01(0.5*format + 0.5*readiness)

		return &ContentRecommendation{
			Item:       item,
			Score:      score,
			Confidence: 0.6,
			Algorithm:  AlgSocial,
			Factors: []Factor{
				{Type: "collaborative_format", Value: format, Weight: 0.5, Confidence: 0.9},
				{Type: "peer_readiness", Value: readiness, Weight: 0.5, Confidence: 0.6},
			},
		}
	}), nil
}

func completedSkills(in *Input) []skillRef {
	var refs []skillRef
	for _, tree := range in.Mastery.Profile.Trees {
		for _, n := range tree.Nodes {
			if n.IsCompleted {
				refs = append(refs, skillRef{Node: n, Index: len(refs)})
			}
		}
	}
	for i := range refs {
		refs[i].Total = len(refs)
	}
	return refs
}
