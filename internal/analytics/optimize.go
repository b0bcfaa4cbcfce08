package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/recommend"
)

// MinOptimizeSamples: below this many attributed interactions in the
// window, OptimizeAlgorithmWeights is a no-op. Re-weighting on a
// handful of clicks would just chase noise.
const MinOptimizeSamples = 10

// optimizeStep caps how far one optimization run may move a single
// weight. Small steps keep the loop stable and reviewable.
const optimizeStep = 0.03

// WeightChange is one auditable weight adjustment.
type WeightChange struct {
	Algorithm string  `json:"algorithm"`
	From      float64 `json:"from"`
	To        float64 `json:"to"`
	Reason    string  `json:"reason"`
}

// OptimizeAlgorithmWeights nudges each algorithm's weight toward its
// observed performance over the timeframe: members converting and
// engaging above the ensemble average gain weight, members below lose
// it. Every change is bounded, clamped to the ensemble's weight range,
// and explained. The caller applies the returned weights (typically via
// Engine.SetWeights); nothing is mutated here.
func (a *Aggregator) OptimizeAlgorithmWeights(ctx context.Context, userID string, timeframe time.Duration, current recommend.Weights) (recommend.Weights, []WeightChange, error) {
	report, err := a.RecommendationAnalytics(ctx, userID, timeframe)
	if err != nil {
		return nil, nil, err
	}

	samples := 0
	for _, perf := range report.Algorithms {
		samples += perf.ActedOn
	}
	if samples < MinOptimizeSamples {
		a.logger.Debug("skipping weight optimization, not enough samples",
			zap.String("user", userID),
			zap.Int("samples", samples),
			zap.Int("required", MinOptimizeSamples))
		return current.Clone(), nil, nil
	}

	perfOf := func(name string) (float64, bool) {
		p, ok := report.Algorithms[name]
		if !ok || p.Served == 0 {
			return 0, false
		}
		return 0.5*p.ConversionRate + 0.5*p.AvgEngagement, true
	}

	var total float64
	measured := 0
	for _, name := range recommend.AllAlgorithms {
		if v, ok := perfOf(name); ok {
			total += v
			measured++
		}
	}
	if measured < 2 {
		// Nothing to compare against.
		return current.Clone(), nil, nil
	}
	mean := total / float64(measured)

	next := current.Clone()
	var changes []WeightChange
	for _, name := range recommend.AllAlgorithms {
		v, ok := perfOf(name)
		if !ok {
			continue
		}
		delta := v - mean
		if delta > optimizeStep {
			delta = optimizeStep
		}
		if delta < -optimizeStep {
			delta = -optimizeStep
		}

		from := next[name]
		to := from + delta
		if to < recommend.MinAlgorithmWeight {
			to = recommend.MinAlgorithmWeight
		}
		if to > recommend.MaxAlgorithmWeight {
			to = recommend.MaxAlgorithmWeight
		}
		if to == from {
			continue
		}
		next[name] = to
		changes = append(changes, WeightChange{
			Algorithm: name,
			From:      from,
			To:        to,
			Reason: fmt.Sprintf("performance %.3f vs ensemble mean %.3f over %d served",
				v, mean, report.Algorithms[name].Served),
		})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Algorithm < changes[j].Algorithm })

	for _, ch := range changes {
		a.logger.Info("algorithm weight adjusted",
			zap.String("user", userID),
			zap.String("algorithm", ch.Algorithm),
			zap.Float64("from", ch.From),
			zap.Float64("to", ch.To),
			zap.String("reason", ch.Reason))
	}
	return next, changes, nil
}
