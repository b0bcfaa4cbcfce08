package recommend

import (
	"context"
	"time"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/mastery"
	"github.com/pathwise/pathwise/internal/profile"
	"github.com/pathwise/pathwise/internal/skillgraph"
)

// Input is the read-only view one recommendation request gives every
// scorer: the normalized request, immutable snapshots of the user's
// mastery and content profiles, and the cool-down-filtered candidates.
type Input struct {
	Request Request
	Now     time.Time
	Profile *profile.UserContentProfile
	Mastery *mastery.Snapshot
	Items   []catalog.ContentItem

	matcher Matcher
}

// Scorer is one ensemble member. Implementations are pure reads of the
// Input; returning an empty slice means no candidate cleared the
// scorer's own relevance threshold, which is not an error.
type Scorer interface {
	Name() string
	Score(ctx context.Context, in *Input) ([]ContentRecommendation, error)
}

// scoreEach applies a per-item scoring func and keeps results at or
// above the threshold. The common shape of every local scorer.
func scoreEach(in *Input, threshold float64, score func(item catalog.ContentItem) *ContentRecommendation) []ContentRecommendation {
	var out []ContentRecommendation
	for _, item := range in.Items {
		rec := score(item)
		if rec == nil || rec.Score < threshold {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

// skillRef pairs a skill node with its position in whatever ordered list
// it came from (progression order, gap priority order).
type skillRef struct {
	Node  *skillgraph.SkillNode
	Index int
	Total int
}

// bestSkillMatch returns the highest-relevance skill among refs for the
// item. Relevance 0 means nothing matched.
func bestSkillMatch(m Matcher, item catalog.ContentItem, refs []skillRef) (skillRef, float64) {
	var best skillRef
	bestRel := 0.0
	for _, ref := range refs {
		rel := m.Relevance(ref.Node, item)
		if rel > bestRel {
			best = ref
			bestRel = rel
		}
	}
	return best, bestRel
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
