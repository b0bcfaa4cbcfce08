package profile

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/store"
)

func testStore(t *testing.T) (*Store, *store.MemoryEventRepo) {
	t.Helper()
	events := store.NewMemoryEventRepo()
	return NewStore(store.NewMemoryKV(), events, nil), events
}

func testItem() catalog.ContentItem {
	return catalog.ContentItem{
		ID:               "c1",
		Title:            "Solving Linear Equations",
		Subject:          "algebra",
		ContentType:      catalog.TypeExercise,
		Difficulty:       4,
		EstimatedMinutes: 20,
	}
}

func testInteraction(ts time.Time) ContentInteraction {
	return ContentInteraction{
		ContentID:       "c1",
		InteractionType: InteractionCompleted,
		Timestamp:       ts,
		Duration:        10 * time.Minute,
		EngagementScore: 0.9,
		CompletionRate:  1.0,
		Difficulty:      4,
	}
}

func TestStore_RecordInteractionUpdatesDerivedFields(t *testing.T) {
	s, events := testStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) // Monday morning

	require.NoError(t, s.RecordInteraction(ctx, "u1", testItem(), testInteraction(ts)))

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, p.TotalInteractions)
	assert.Equal(t, 1.0, p.LearningVelocity["algebra"])
	assert.Equal(t, 4.0, p.DifficultyPreference)
	assert.InDelta(t, 0.25*0.9, p.TypeAffinity[catalog.TypeExercise], 1e-9)
	assert.Equal(t, 1, p.TemporalPattern["Monday:morning"])
	assert.True(t, p.HasSeen("c1"))

	// Preference vector moved toward the item's features.
	f := FeatureVector(testItem())
	for i := range f {
		if f[i] > 0 {
			assert.Greater(t, p.PreferenceVector[i], 0.0, "dim %d", i)
		}
	}

	// Log entry and derived update are both visible.
	require.Len(t, events.Interactions, 1)
	assert.Equal(t, "u1", events.Interactions[0].UserID)
}

func TestStore_VelocityIsEMA(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	ts := time.Now()

	ci := testInteraction(ts)
	ci.CompletionRate = 1.0
	require.NoError(t, s.RecordInteraction(ctx, "u1", testItem(), ci))

	ci.CompletionRate = 0.0
	ci.Timestamp = ts.Add(time.Hour)
	require.NoError(t, s.RecordInteraction(ctx, "u1", testItem(), ci))

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, p.LearningVelocity["algebra"], 1e-9)
}

func TestStore_RejectsMalformedInteraction(t *testing.T) {
	s, events := testStore(t)
	ctx := context.Background()

	ci := testInteraction(time.Now())
	ci.EngagementScore = 1.5
	err := s.RecordInteraction(ctx, "u1", testItem(), ci)
	require.Error(t, err)

	// Nothing was logged or derived.
	assert.Empty(t, events.Interactions)
	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, p.TotalInteractions)
}

func TestStore_CallersGetCopies(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordInteraction(ctx, "u1", testItem(), testInteraction(time.Now())))

	p1, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	p1.LearningVelocity["algebra"] = -99
	p1.PreferenceVector[0] = -99

	p2, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, p2.LearningVelocity["algebra"])
	assert.NotEqual(t, -99.0, p2.PreferenceVector[0])
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	kv := store.NewMemoryKV()
	events := store.NewMemoryEventRepo()
	ctx := context.Background()

	s1 := NewStore(kv, events, nil)
	require.NoError(t, s1.RecordInteraction(ctx, "u1", testItem(), testInteraction(time.Now())))
	require.NoError(t, s1.Flush(ctx))

	s2 := NewStore(kv, events, nil)
	p, err := s2.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalInteractions)
}

func TestSeenWithin(t *testing.T) {
	p := NewUserContentProfile("u1")
	now := time.Now()
	p.LastSeen["c1"] = now.Add(-2 * time.Hour)

	assert.True(t, p.SeenWithin("c1", now, 24*time.Hour))
	assert.False(t, p.SeenWithin("c1", now, time.Hour))
	assert.False(t, p.SeenWithin("unknown", now, 24*time.Hour))
}

func TestFeatureVector_Deterministic(t *testing.T) {
	a := FeatureVector(testItem())
	b := FeatureVector(testItem())
	assert.Equal(t, a, b)
	assert.Len(t, a, FeatureDims)
}

func TestStore_ConcurrentDistinctUsers(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	const users = 16
	errs := make(chan error, users)
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			if err := s.RecordInteraction(ctx, userID, testItem(), testInteraction(time.Now())); err != nil {
				errs <- err
				return
			}
			_, err := s.GetProfile(ctx, userID)
			errs <- err
		}(fmt.Sprintf("user-%d", i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.NoError(t, s.Flush(ctx))
	for i := 0; i < users; i++ {
		p, err := s.GetProfile(ctx, fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
		assert.Equal(t, 1, p.TotalInteractions)
	}
}
