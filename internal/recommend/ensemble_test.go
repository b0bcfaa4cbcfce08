package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/mastery"
	"github.com/pathwise/pathwise/internal/oracle"
	"github.com/pathwise/pathwise/internal/profile"
	"github.com/pathwise/pathwise/internal/skillgraph"
	"github.com/pathwise/pathwise/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func testCurriculum(t *testing.T) *skillgraph.Store {
	t.Helper()
	tree := &skillgraph.SkillTree{
		SubjectArea:  "algebra",
		CurrentFocus: []string{"algebra_fractions"},
		Nodes: []*skillgraph.SkillNode{
			{
				ID: "algebra_fractions", Name: "Fractions", Category: skillgraph.CategoryFoundational,
				SubjectArea: "algebra", Difficulty: 2,
				Threshold: skillgraph.MasteryThreshold{RequiredScore: 0.8, MinimumAttempts: 1},
			},
			{
				ID: "algebra_decimals", Name: "Decimals", Category: skillgraph.CategoryFoundational,
				SubjectArea: "algebra", Difficulty: 2,
				Threshold: skillgraph.MasteryThreshold{RequiredScore: 0.8, MinimumAttempts: 1},
			},
			{
				ID: "algebra_linear_equations", Name: "Linear Equations", Category: skillgraph.CategoryIntermediate,
				SubjectArea: "algebra", Difficulty: 4, Prerequisites: []string{"algebra_fractions"},
				Threshold: skillgraph.MasteryThreshold{RequiredScore: 0.8, MinimumAttempts: 1},
			},
			{
				ID: "algebra_quadratics", Name: "Quadratics", Category: skillgraph.CategoryIntermediate,
				SubjectArea: "algebra", Difficulty: 5,
				Prerequisites: []string{"algebra_fractions", "algebra_decimals"},
				Threshold:     skillgraph.MasteryThreshold{RequiredScore: 0.8, MinimumAttempts: 1},
			},
		},
	}
	curriculum := skillgraph.NewStore()
	require.NoError(t, curriculum.UpsertSkillTree(tree))
	return curriculum
}

func testCatalogItems() []catalog.ContentItem {
	var items []catalog.ContentItem
	skills := []string{"Fractions", "Decimals", "Linear Equations"}
	types := []catalog.ContentType{catalog.TypeLesson, catalog.TypeExercise, catalog.TypeVideo, catalog.TypeProject}
	for i, skill := range skills {
		for j, ct := range types {
			items = append(items, catalog.ContentItem{
				ID:               fmt.Sprintf("c-%d-%d", i, j),
				Title:            fmt.Sprintf("%s %s", skill, ct),
				Subject:          "algebra",
				ContentType:      ct,
				Difficulty:       2 + i,
				EstimatedMinutes: 15 + 5*j,
			})
		}
	}
	return items
}

type engineFixture struct {
	engine   *Engine
	profiles *profile.Store
	tracker  *mastery.Tracker
	events   *store.MemoryEventRepo
}

func newEngineFixture(t *testing.T, oracleClient *oracle.Client) *engineFixture {
	t.Helper()
	kv := store.NewMemoryKV()
	events := store.NewMemoryEventRepo()
	profiles := profile.NewStore(kv, events, nil)
	tracker := mastery.NewTracker(testCurriculum(t), kv, events, nil, nil)
	engine := NewEngine(catalog.NewMemoryCatalog(testCatalogItems()), profiles, tracker, oracleClient, events, nil)
	return &engineFixture{engine: engine, profiles: profiles, tracker: tracker, events: events}
}

func TestRecommend_ReturnsRankedBatch(t *testing.T) {
	f := newEngineFixture(t, nil)

	batch, err := f.engine.Recommend(context.Background(), Request{UserID: "alice", Count: 5})
	require.NoError(t, err)

	require.NotEmpty(t, batch.Recommendations)
	assert.LessOrEqual(t, len(batch.Recommendations), 5)
	for i, rec := range batch.Recommendations {
		assert.Equal(t, i+1, rec.Priority)
		assert.GreaterOrEqual(t, rec.Score, 0.0)
		assert.LessOrEqual(t, rec.Score, 1.0)
		assert.NotEmpty(t, rec.Factors)
	}
}

func TestRecommend_NoDuplicateContent(t *testing.T) {
	f := newEngineFixture(t, nil)

	batch, err := f.engine.Recommend(context.Background(), Request{UserID: "alice"})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, rec := range append(batch.Recommendations, batch.Fallback...) {
		assert.False(t, seen[rec.Item.ID], "duplicate content %s", rec.Item.ID)
		seen[rec.Item.ID] = true
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	f := newEngineFixture(t, nil)
	fixed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	f.engine.now = func() time.Time { return fixed }

	first, err := f.engine.Recommend(context.Background(), Request{UserID: "alice"})
	require.NoError(t, err)
	second, err := f.engine.Recommend(context.Background(), Request{UserID: "alice"})
	require.NoError(t, err)

	if diff := cmp.Diff(first.Recommendations, second.Recommendations); diff != "" {
		t.Errorf("repeated calls diverged (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Fallback, second.Fallback); diff != "" {
		t.Errorf("fallback diverged (-first +second):\n%s", diff)
	}
}

func TestRecommend_DiversityBound(t *testing.T) {
	f := newEngineFixture(t, nil)

	batch, err := f.engine.Recommend(context.Background(), Request{
		UserID:          "alice",
		Count:           6,
		DiversityFactor: 0.8,
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(batch.Recommendations), 2)

	counts := make(map[catalog.ContentType]int)
	for _, rec := range batch.Recommendations {
		counts[rec.Item.ContentType]++
	}
	for ct, c := range counts {
		assert.LessOrEqual(t, c*2, len(batch.Recommendations),
			"type %s exceeds half the batch", ct)
	}
}

func TestRecommend_CooldownExcludesRecent(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	items := testCatalogItems()
	require.NoError(t, f.profiles.RecordInteraction(ctx, "alice", items[0], profile.ContentInteraction{
		ContentID:       items[0].ID,
		InteractionType: profile.InteractionCompleted,
		Timestamp:       time.Now(),
		EngagementScore: 0.9,
		CompletionRate:  1.0,
		Difficulty:      items[0].Difficulty,
	}))

	batch, err := f.engine.Recommend(ctx, Request{UserID: "alice"})
	require.NoError(t, err)

	for _, rec := range append(batch.Recommendations, batch.Fallback...) {
		assert.NotEqual(t, items[0].ID, rec.Item.ID, "cooled-down content must not appear")
	}
}

func TestRecommend_OracleTimeoutDegrades(t *testing.T) {
	slow := oracle.NewMockProvider(oracle.MockResponse{
		Err: context.DeadlineExceeded,
	})
	client := oracle.NewClient(slow, oracle.DefaultConfig(), nil)
	f := newEngineFixture(t, client)

	batch, err := f.engine.Recommend(context.Background(), Request{UserID: "alice", Count: 5})
	require.NoError(t, err, "oracle failure must not fail the request")

	assert.NotEmpty(t, batch.Recommendations)
	assert.Contains(t, batch.AlgorithmsFailed, AlgExternalOracle)
	assert.NotContains(t, batch.AlgorithmsUsed, AlgExternalOracle)
}

func TestRecommend_OracleContributes(t *testing.T) {
	items := testCatalogItems()
	mock := oracle.NewMockProvider(oracle.MockResponse{
		Content: json.RawMessage(fmt.Sprintf(
			`{"suggestions":[{"content_id":%q,"score":0.95,"reasoning":"strong fit"}]}`, items[0].ID)),
	})
	client := oracle.NewClient(mock, oracle.DefaultConfig(), nil)
	f := newEngineFixture(t, client)

	batch, err := f.engine.Recommend(context.Background(), Request{UserID: "alice"})
	require.NoError(t, err)
	assert.Contains(t, batch.AlgorithmsUsed, AlgExternalOracle)
}

func TestRecommend_LogsServedRecommendations(t *testing.T) {
	f := newEngineFixture(t, nil)

	batch, err := f.engine.Recommend(context.Background(), Request{UserID: "alice"})
	require.NoError(t, err)

	require.Len(t, f.events.Recommendations, len(batch.Recommendations))
	batchID := f.events.Recommendations[0].BatchID
	assert.NotEmpty(t, batchID)
	for _, ev := range f.events.Recommendations {
		assert.Equal(t, batchID, ev.BatchID, "one batch id per request")
		assert.Equal(t, "alice", ev.UserID)
	}
}

func TestRecommend_UnknownUserStillWorks(t *testing.T) {
	// A new user has no profile and no mastery history; the engine
	// materializes both rather than failing.
	f := newEngineFixture(t, nil)

	batch, err := f.engine.Recommend(context.Background(), Request{UserID: "brand-new"})
	require.NoError(t, err)
	assert.NotEmpty(t, batch.Recommendations)
	assert.Equal(t, 1.0, batch.NoveltyScore, "everything is novel to a new user")
}

func TestRecommend_FallbackOnHighThreshold(t *testing.T) {
	f := newEngineFixture(t, nil)

	batch, err := f.engine.Recommend(context.Background(), Request{
		UserID:   "alice",
		MinScore: 0.6,
		Count:    5,
	})
	require.NoError(t, err)

	assert.Empty(t, batch.Recommendations, "a new user's scores sit below a high bar")
	assert.NotEmpty(t, batch.Fallback, "relaxed pass still offers something")
}

func TestSelectDiverse_PureScoreOrder(t *testing.T) {
	pool := []ContentRecommendation{
		{Item: catalog.ContentItem{ID: "a", ContentType: catalog.TypeLesson}, Score: 0.9},
		{Item: catalog.ContentItem{ID: "b", ContentType: catalog.TypeLesson}, Score: 0.8},
		{Item: catalog.ContentItem{ID: "c", ContentType: catalog.TypeVideo}, Score: 0.7},
	}
	got := selectDiverse(pool, 3, 0)
	assert.Equal(t, "a", got[0].Item.ID)
	assert.Equal(t, "b", got[1].Item.ID)
	assert.Equal(t, "c", got[2].Item.ID)
}

func TestSelectDiverse_SpreadsTypes(t *testing.T) {
	pool := []ContentRecommendation{
		{Item: catalog.ContentItem{ID: "a", ContentType: catalog.TypeLesson}, Score: 0.9},
		{Item: catalog.ContentItem{ID: "b", ContentType: catalog.TypeLesson}, Score: 0.89},
		{Item: catalog.ContentItem{ID: "c", ContentType: catalog.TypeLesson}, Score: 0.88},
		{Item: catalog.ContentItem{ID: "d", ContentType: catalog.TypeVideo}, Score: 0.5},
		{Item: catalog.ContentItem{ID: "e", ContentType: catalog.TypeProject}, Score: 0.4},
	}
	got := selectDiverse(pool, 4, 0.9)

	counts := make(map[catalog.ContentType]int)
	for _, rec := range got {
		counts[rec.Item.ContentType]++
	}
	assert.LessOrEqual(t, counts[catalog.TypeLesson], 2, "lessons capped at half the batch")
}

func TestWeights_Clamp(t *testing.T) {
	w := Weights{AlgProgression: 0.9, AlgSocial: 0.001}.Clamp()
	assert.Equal(t, MaxAlgorithmWeight, w[AlgProgression])
	assert.Equal(t, MinAlgorithmWeight, w[AlgSocial])
}

func TestEngine_SetWeights(t *testing.T) {
	f := newEngineFixture(t, nil)

	w := f.engine.Weights()
	w[AlgSocial] = 0.25
	f.engine.SetWeights(w)

	assert.Equal(t, 0.25, f.engine.Weights()[AlgSocial])
	// The returned map is a copy; mutating it does not touch the engine.
	w[AlgSocial] = 0.0
	assert.Equal(t, 0.25, f.engine.Weights()[AlgSocial])
}

func TestRecommend_ScorerErrorDoesNotAbort(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.engine.scorers = append(f.engine.scorers, failingScorer{})

	batch, err := f.engine.Recommend(context.Background(), Request{UserID: "alice"})
	require.NoError(t, err)
	assert.Contains(t, batch.AlgorithmsFailed, "failing")
	assert.NotEmpty(t, batch.Recommendations)
}

type failingScorer struct{}

func (failingScorer) Name() string { return "failing" }
func (failingScorer) Score(context.Context, *Input) ([]ContentRecommendation, error) {
	return nil, errors.New("boom")
}
