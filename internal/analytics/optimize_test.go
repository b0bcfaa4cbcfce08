package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwise/pathwise/internal/recommend"
	"github.com/pathwise/pathwise/internal/store"
)

// seedPerformance serves recommendations from two algorithms and makes
// one of them convert far better than the other.
func seedPerformance(t *testing.T, events *store.MemoryEventRepo, now time.Time) {
	t.Helper()
	ctx := context.Background()

	var served []store.RecommendationEventData
	for i := 0; i < 8; i++ {
		served = append(served,
			store.RecommendationEventData{
				UserID: "alice", BatchID: "b1", ContentID: fmt.Sprintf("hot-%d", i),
				Algorithm: "mastery_progression", Score: 0.8, Timestamp: now.Add(-6 * time.Hour),
			},
			store.RecommendationEventData{
				UserID: "alice", BatchID: "b1", ContentID: fmt.Sprintf("cold-%d", i),
				Algorithm: "social", Score: 0.5, Timestamp: now.Add(-6 * time.Hour),
			})
	}
	require.NoError(t, events.AppendRecommendations(ctx, served))

	// Every progression pick converts with high engagement; social picks
	// convert rarely and poorly.
	for i := 0; i < 8; i++ {
		require.NoError(t, events.AppendInteraction(ctx, store.InteractionEventData{
			UserID: "alice", ContentID: fmt.Sprintf("hot-%d", i),
			Timestamp:  now.Add(-5 * time.Hour),
			Engagement: 0.9,
			Context:    Attribution("mastery_progression"),
		}))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, events.AppendInteraction(ctx, store.InteractionEventData{
			UserID: "alice", ContentID: fmt.Sprintf("cold-%d", i),
			Timestamp:  now.Add(-5 * time.Hour),
			Engagement: 0.2,
			Context:    Attribution("social"),
		}))
	}
}

func TestOptimize_ShiftsWeightTowardPerformers(t *testing.T) {
	agg, events, _ := newTestAggregator(t)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }
	seedPerformance(t, events, now)

	current := recommend.DefaultWeights()
	next, changes, err := agg.OptimizeAlgorithmWeights(context.Background(), "alice", 24*time.Hour, current)
	require.NoError(t, err)
	require.NotEmpty(t, changes)

	assert.Greater(t, next["mastery_progression"], current["mastery_progression"])
	assert.Less(t, next["social"], current["social"])

	for _, ch := range changes {
		assert.NotEmpty(t, ch.Reason, "every adjustment must be explained")
		assert.LessOrEqual(t, ch.To-ch.From, optimizeStep+1e-9)
		assert.GreaterOrEqual(t, ch.To-ch.From, -optimizeStep-1e-9)
	}
	for name, w := range next {
		assert.GreaterOrEqual(t, w, recommend.MinAlgorithmWeight, name)
		assert.LessOrEqual(t, w, recommend.MaxAlgorithmWeight, name)
	}
}

func TestOptimize_NoOpBelowSampleFloor(t *testing.T) {
	agg, events, _ := newTestAggregator(t)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, events.AppendRecommendations(ctx, []store.RecommendationEventData{
		{UserID: "alice", BatchID: "b1", ContentID: "c1", Algorithm: "social", Score: 0.5, Timestamp: now.Add(-time.Hour)},
	}))
	require.NoError(t, events.AppendInteraction(ctx, store.InteractionEventData{
		UserID: "alice", ContentID: "c1", Timestamp: now.Add(-30 * time.Minute),
		Engagement: 0.9, Context: Attribution("social"),
	}))

	current := recommend.DefaultWeights()
	next, changes, err := agg.OptimizeAlgorithmWeights(ctx, "alice", 24*time.Hour, current)
	require.NoError(t, err)

	assert.Empty(t, changes)
	assert.Equal(t, current, next)
}

func TestOptimize_DoesNotMutateInput(t *testing.T) {
	agg, events, _ := newTestAggregator(t)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }
	seedPerformance(t, events, now)

	current := recommend.DefaultWeights()
	before := current.Clone()
	_, _, err := agg.OptimizeAlgorithmWeights(context.Background(), "alice", 24*time.Hour, current)
	require.NoError(t, err)

	assert.Equal(t, before, current)
}

func TestOptimize_FeedsEngineWeights(t *testing.T) {
	agg, events, _ := newTestAggregator(t)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }
	seedPerformance(t, events, now)

	next, changes, err := agg.OptimizeAlgorithmWeights(context.Background(), "alice", 24*time.Hour, recommend.DefaultWeights())
	require.NoError(t, err)
	require.NotEmpty(t, changes)

	// The output is directly applicable as an ensemble weight table.
	clamped := next.Clamp()
	assert.Equal(t, next, clamped)
}
