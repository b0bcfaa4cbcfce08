// Package recommend ranks learning content for a user by combining
// independent scoring algorithms into a weighted ensemble. Algorithms
// only read shared state; a recommendation request never mutates the
// skill graph or the interaction profile.
package recommend

import (
	"time"

	"github.com/pathwise/pathwise/internal/catalog"
)

// Algorithm names. These are the ensemble members and the keys of the
// weight table.
const (
	AlgContentBased   = "content_based"
	AlgCollaborative  = "collaborative_filtering"
	AlgProgression    = "mastery_progression"
	AlgSkillGap       = "skill_gap_analysis"
	AlgPrerequisite   = "prerequisite_mapping"
	AlgTemporal       = "temporal"
	AlgSocial         = "social"
	AlgExternalOracle = "external_oracle"
)

// AllAlgorithms lists every ensemble member in registration order.
var AllAlgorithms = []string{
	AlgContentBased,
	AlgCollaborative,
	AlgProgression,
	AlgSkillGap,
	AlgPrerequisite,
	AlgTemporal,
	AlgSocial,
	AlgExternalOracle,
}

// Factor is one component of an algorithm's score, kept for
// explainability. Value is signed: negative means the signal argued
// against recommending the item.
type Factor struct {
	Type       string  `json:"type"`
	Value      float64 `json:"value"`  // [-1, 1]
	Weight     float64 `json:"weight"` // [0, 1]
	Confidence float64 `json:"confidence"`
}

// ContentRecommendation is one ranked item. Ephemeral: produced per
// request, never persisted.
type ContentRecommendation struct {
	Item       catalog.ContentItem `json:"item"`
	Score      float64             `json:"score"`      // [0, 1], clamped after combining
	Confidence float64             `json:"confidence"` // [0, 1]
	// Algorithm names the single producer before combining; the combiner
	// rewrites it to "ensemble" when multiple algorithms contributed.
	Algorithm string   `json:"algorithm"`
	Factors   []Factor `json:"factors"`
	Reasoning string   `json:"reasoning,omitempty"`
	// Priority is the 1-based position in the returned batch.
	Priority int `json:"priority"`
	// EstimatedEngagement predicts how engaging the user will find the
	// item, from type affinity and score.
	EstimatedEngagement float64 `json:"estimated_engagement"`
	// LearningImpact estimates how much the item advances mastery, from
	// the gap and progression signals that contributed.
	LearningImpact float64 `json:"learning_impact"`
}

// Batch is an ordered recommendation list with quality metrics.
// Immutable once returned.
type Batch struct {
	Recommendations []ContentRecommendation `json:"recommendations"`
	// Fallback holds relaxed-threshold picks, populated only when the
	// primary list comes up short. Callers show these clearly separated.
	Fallback []ContentRecommendation `json:"fallback,omitempty"`

	DiversityScore   float64 `json:"diversity_score"`
	QualityScore     float64 `json:"quality_score"`
	NoveltyScore     float64 `json:"novelty_score"`
	SerendipityScore float64 `json:"serendipity_score"`

	// AlgorithmsUsed and AlgorithmsFailed report which ensemble members
	// contributed and which were skipped (timeout, error).
	AlgorithmsUsed   []string  `json:"algorithms_used"`
	AlgorithmsFailed []string  `json:"algorithms_failed,omitempty"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Request parameterizes one recommendation call.
type Request struct {
	UserID string
	// Subject restricts candidates to one subject area. Empty means all.
	Subject string
	// Count is the batch size. Zero means DefaultCount.
	Count int
	// DiversityFactor controls MMR spread, up to 1 = maximum spread.
	// Zero means DefaultDiversityFactor; pass a negative value for pure
	// score order.
	DiversityFactor float64
	// MinScore is the primary-list threshold. Zero means DefaultMinScore.
	MinScore float64
	// CooldownWindow excludes recently consumed content. Zero means
	// DefaultCooldown.
	CooldownWindow time.Duration
}

const (
	DefaultCount           = 10
	DefaultDiversityFactor = 0.3
	DefaultMinScore        = 0.35
	DefaultCooldown        = 24 * time.Hour
)

// normalize fills zero values with defaults.
func (r Request) normalize() Request {
	if r.Count <= 0 {
		r.Count = DefaultCount
	}
	switch {
	case r.DiversityFactor == 0:
		r.DiversityFactor = DefaultDiversityFactor
	case r.DiversityFactor < 0:
		r.DiversityFactor = 0
	case r.DiversityFactor > 1:
		r.DiversityFactor = 1
	}
	if r.MinScore <= 0 {
		r.MinScore = DefaultMinScore
	}
	if r.CooldownWindow <= 0 {
		r.CooldownWindow = DefaultCooldown
	}
	return r
}
