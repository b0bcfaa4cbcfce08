package recommend

import (
	"context"
	"time"

	"github.com/pathwise/pathwise/internal/oracle"
)

// DefaultOracleBudget caps the oracle call inside a recommendation
// request. The ensemble proceeds without the oracle past this.
const DefaultOracleBudget = 3 * time.Second

// oracleScorer delegates to the external content-suggestion oracle. The
// single network-bound ensemble member: hard timeout, and every failure
// degrades to zero contributions instead of failing the request.
type oracleScorer struct {
	client *oracle.Client
	budget time.Duration
}

func (oracleScorer) Name() string { return AlgExternalOracle }

func (s oracleScorer) Score(ctx context.Context, in *Input) ([]ContentRecommendation, error) {
	if s.client == nil {
		return nil, nil
	}

	budget := s.budget
	if budget <= 0 {
		budget = DefaultOracleBudget
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	suggestions, err := s.client.Suggest(ctx, s.buildContext(in))
	if err != nil {
		return nil, err
	}

	items := make(map[string]int, len(in.Items))
	for i, item := range in.Items {
		items[item.ID] = i
	}

	out := make([]ContentRecommendation, 0, len(suggestions))
	for _, sug := range suggestions {
		idx, ok := items[sug.ContentID]
		if !ok {
			continue
		}
		out = append(out, ContentRecommendation{
			Item:       in.Items[idx],
			Score:      sug.Score,
			Confidence: 0.7,
			Algorithm:  AlgExternalOracle,
			Reasoning:  sug.Reasoning,
			Factors: []Factor{
				{Type: "oracle_suggestion", Value: sug.Score, Weight: 1.0, Confidence: 0.7},
			},
		})
	}
	return out, nil
}

func (s oracleScorer) buildContext(in *Input) oracle.SuggestionContext {
	sctx := oracle.SuggestionContext{
		UserID:         in.Request.UserID,
		Candidates:     in.Items,
		MaxSuggestions: in.Request.Count,
	}

	for subject, tree := range in.Mastery.Profile.Trees {
		summary := oracle.SubjectSummary{
			Subject:     subject,
			FocusSkills: append([]string(nil), tree.CurrentFocus...),
		}
		var sum float64
		for _, n := range tree.Nodes {
			sum += n.CurrentMastery
		}
		if len(tree.Nodes) > 0 {
			summary.OverallMastery = sum / float64(len(tree.Nodes))
		}
		sctx.Subjects = append(sctx.Subjects, summary)
	}

	const topGaps = 5
	for i, gap := range in.Mastery.Gaps {
		if i == topGaps {
			break
		}
		for j := range sctx.Subjects {
			if sctx.Subjects[j].Subject == gap.Node.SubjectArea {
				sctx.Subjects[j].GapSkills = append(sctx.Subjects[j].GapSkills, gap.SkillID)
			}
		}
	}

	for id := range in.Profile.LastSeen {
		sctx.RecentContentIDs = append(sctx.RecentContentIDs, id)
		if len(sctx.RecentContentIDs) == 10 {
			break
		}
	}

	return sctx
}
