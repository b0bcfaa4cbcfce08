package mastery

import (
	"fmt"
	"math"
	"time"
)

// EvidenceType labels how competence was demonstrated.
type EvidenceType string

const (
	EvidenceAssessment   EvidenceType = "assessment"
	EvidenceProject      EvidenceType = "project"
	EvidencePeerTeaching EvidenceType = "peer_teaching"
	EvidencePractice     EvidenceType = "practice"
	EvidenceDiscussion   EvidenceType = "discussion"
)

// evidenceTypeWeights rank evidence by rigor. Unknown types get a
// conservative default.
var evidenceTypeWeights = map[EvidenceType]float64{
	EvidenceAssessment:   1.0,
	EvidenceProject:      0.9,
	EvidencePeerTeaching: 0.85,
	EvidencePractice:     0.7,
	EvidenceDiscussion:   0.5,
}

const defaultEvidenceWeight = 0.6

// recencyHalfLife controls how fast old evidence loses weight.
const recencyHalfLife = 30 * 24 * time.Hour

// recencyFloor keeps very old evidence from vanishing entirely.
const recencyFloor = 0.2

// Evidence is one demonstration of competence. Consumed only by the
// tracker; never persisted standalone.
type Evidence struct {
	Type      EvidenceType  `json:"type"`
	Score     float64       `json:"score"`   // 0-1
	Quality   float64       `json:"quality"` // 0-1
	TimeSpent time.Duration `json:"time_spent"`
	Timestamp time.Time     `json:"timestamp"`
}

// ValidationError reports a single rejected evidence item. Rejection of
// one item never aborts processing of its siblings.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("evidence[%d]: %s", e.Index, e.Reason)
}

// validateEvidence checks one evidence item against the accepted-type list.
func validateEvidence(index int, ev Evidence, accepted []string) *ValidationError {
	if ev.Score < 0 || ev.Score > 1 {
		return &ValidationError{Index: index, Reason: fmt.Sprintf("score must be in [0, 1], got %f", ev.Score)}
	}
	if ev.Quality < 0 || ev.Quality > 1 {
		return &ValidationError{Index: index, Reason: fmt.Sprintf("quality must be in [0, 1], got %f", ev.Quality)}
	}
	if len(accepted) > 0 {
		ok := false
		for _, a := range accepted {
			if a == string(ev.Type) {
				ok = true
				break
			}
		}
		if !ok {
			return &ValidationError{Index: index, Reason: fmt.Sprintf("evidence type %q not accepted for this skill", ev.Type)}
		}
	}
	return nil
}

// weightedEvidenceScore aggregates evidence into a single score via a
// weighted mean: each item contributes score*quality, weighted by its
// type weight and recency decay, so high-quality recent evidence
// dominates low-effort submissions.
func weightedEvidenceScore(evidence []Evidence, now time.Time) float64 {
	var weightedSum, weightTotal float64
	for _, ev := range evidence {
		w := typeWeight(ev.Type) * recencyDecay(now.Sub(ev.Timestamp))
		weightedSum += w * ev.Score * ev.Quality
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0
	}
	return weightedSum / weightTotal
}

func typeWeight(t EvidenceType) float64 {
	if w, ok := evidenceTypeWeights[t]; ok {
		return w
	}
	return defaultEvidenceWeight
}

func recencyDecay(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	decay := math.Pow(0.5, float64(age)/float64(recencyHalfLife))
	if decay < recencyFloor {
		return recencyFloor
	}
	return decay
}
