package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/profile"
	"github.com/pathwise/pathwise/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var testItems = []catalog.ContentItem{
	{ID: "c1", Title: "Fractions lesson", Subject: "algebra", ContentType: catalog.TypeLesson, Difficulty: 2},
	{ID: "c2", Title: "Decimals exercise", Subject: "algebra", ContentType: catalog.TypeExercise, Difficulty: 3},
	{ID: "c3", Title: "Equations video", Subject: "algebra", ContentType: catalog.TypeVideo, Difficulty: 4},
}

func newTestAggregator(t *testing.T) (*Aggregator, *store.MemoryEventRepo, *profile.Store) {
	t.Helper()
	kv := store.NewMemoryKV()
	events := store.NewMemoryEventRepo()
	profiles := profile.NewStore(kv, events, nil)
	agg := NewAggregator(profiles, catalog.NewMemoryCatalog(testItems), events, nil)
	return agg, events, profiles
}

func TestRecordInteraction_UpdatesProfile(t *testing.T) {
	agg, events, profiles := newTestAggregator(t)
	ctx := context.Background()

	err := agg.RecordInteraction(ctx, "alice", "c1", profile.ContentInteraction{
		InteractionType: profile.InteractionCompleted,
		EngagementScore: 0.8,
		CompletionRate:  1.0,
		Difficulty:      2,
		Context:         Attribution("mastery_progression"),
	})
	require.NoError(t, err)

	p, err := profiles.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalInteractions)

	require.Len(t, events.Interactions, 1)
	assert.Equal(t, "recommended:mastery_progression", events.Interactions[0].Context)
	assert.False(t, events.Interactions[0].Timestamp.IsZero(), "zero timestamp is filled in")
}

func TestRecordInteraction_UnknownContent(t *testing.T) {
	agg, _, _ := newTestAggregator(t)

	err := agg.RecordInteraction(context.Background(), "alice", "nope", profile.ContentInteraction{
		InteractionType: profile.InteractionViewed,
		Timestamp:       time.Now(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in catalog")
}

func TestRecommendationAnalytics_Rates(t *testing.T) {
	agg, events, _ := newTestAggregator(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }

	for i, engagement := range []float64{0.9, 0.8, 0.4} {
		require.NoError(t, events.AppendInteraction(ctx, store.InteractionEventData{
			UserID:         "alice",
			ContentID:      testItems[i].ID,
			Timestamp:      now.Add(-time.Duration(i+1) * time.Hour),
			Engagement:     engagement,
			CompletionRate: 0.5,
		}))
	}
	// Outside the window, must not count.
	require.NoError(t, events.AppendInteraction(ctx, store.InteractionEventData{
		UserID:     "alice",
		ContentID:  "c1",
		Timestamp:  now.Add(-48 * time.Hour),
		Engagement: 0.0,
	}))

	report, err := agg.RecommendationAnalytics(ctx, "alice", 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalInteractions)
	assert.InDelta(t, 0.7, report.EngagementRate, 1e-9)
	assert.InDelta(t, 0.5, report.CompletionRate, 1e-9)
	assert.InDelta(t, 2.0/3.0, report.SatisfactionRate, 1e-9)
}

func TestRecommendationAnalytics_PerAlgorithm(t *testing.T) {
	agg, events, _ := newTestAggregator(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }

	require.NoError(t, events.AppendRecommendations(ctx, []store.RecommendationEventData{
		{UserID: "alice", BatchID: "b1", ContentID: "c1", Algorithm: "mastery_progression", Score: 0.8, Timestamp: now.Add(-3 * time.Hour)},
		{UserID: "alice", BatchID: "b1", ContentID: "c2", Algorithm: "mastery_progression", Score: 0.6, Timestamp: now.Add(-3 * time.Hour)},
		{UserID: "alice", BatchID: "b1", ContentID: "c3", Algorithm: "social", Score: 0.5, Timestamp: now.Add(-3 * time.Hour)},
	}))

	// Explicit attribution.
	require.NoError(t, events.AppendInteraction(ctx, store.InteractionEventData{
		UserID: "alice", ContentID: "c1", Timestamp: now.Add(-2 * time.Hour),
		Engagement: 0.9, Context: Attribution("mastery_progression"),
	}))
	// Unattributed but matching served content after its serve time.
	require.NoError(t, events.AppendInteraction(ctx, store.InteractionEventData{
		UserID: "alice", ContentID: "c2", Timestamp: now.Add(-time.Hour),
		Engagement: 0.5,
	}))
	// Interaction before the serve must not count for it.
	require.NoError(t, events.AppendInteraction(ctx, store.InteractionEventData{
		UserID: "alice", ContentID: "c3", Timestamp: now.Add(-4 * time.Hour),
		Engagement: 1.0,
	}))

	report, err := agg.RecommendationAnalytics(ctx, "alice", 24*time.Hour)
	require.NoError(t, err)

	mp := report.Algorithms["mastery_progression"]
	assert.Equal(t, 2, mp.Served)
	assert.Equal(t, 2, mp.ActedOn)
	assert.InDelta(t, 1.0, mp.ConversionRate, 1e-9)
	assert.InDelta(t, 0.7, mp.AvgEngagement, 1e-9)
	assert.InDelta(t, 0.7, mp.AvgScore, 1e-9)

	social := report.Algorithms["social"]
	assert.Equal(t, 1, social.Served)
	assert.Equal(t, 0, social.ActedOn, "pre-serve interaction is not a conversion")
}

func TestAttribution_RoundTrip(t *testing.T) {
	alg, ok := algorithmFromContext(Attribution("temporal"))
	require.True(t, ok)
	assert.Equal(t, "temporal", alg)

	_, ok = algorithmFromContext("organic")
	assert.False(t, ok)
}
