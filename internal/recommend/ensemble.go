package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/mastery"
	"github.com/pathwise/pathwise/internal/oracle"
	"github.com/pathwise/pathwise/internal/profile"
	pstore "github.com/pathwise/pathwise/internal/store"
)

// Engine runs the recommendation ensemble. Construct once at service
// start; safe for concurrent requests. Weights may be swapped at runtime
// by the analytics feedback loop.
type Engine struct {
	catalog  catalog.Catalog
	profiles *profile.Store
	tracker  *mastery.Tracker
	scorers  []Scorer
	matcher  Matcher
	events   pstore.EventRepo
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	weights Weights
}

// NewEngine creates an engine with the full scorer table. oracleClient
// may be nil; the external_oracle member then contributes nothing.
// logger may be nil.
func NewEngine(cat catalog.Catalog, profiles *profile.Store, tracker *mastery.Tracker, oracleClient *oracle.Client, events pstore.EventRepo, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		catalog:  cat,
		profiles: profiles,
		tracker:  tracker,
		scorers: []Scorer{
			contentBasedScorer{},
			collaborativeScorer{},
			progressionScorer{},
			skillGapScorer{},
			prereqScorer{},
			temporalScorer{},
			socialScorer{},
			oracleScorer{client: oracleClient},
		},
		matcher: KeywordMatcher{},
		events:  events,
		logger:  logger,
		now:     time.Now,
		weights: DefaultWeights(),
	}
}

// Weights returns a copy of the current algorithm weights.
func (e *Engine) Weights() Weights {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.weights.Clone()
}

// SetWeights replaces the algorithm weights, clamped to bounds. Called
// by the analytics optimizer.
func (e *Engine) SetWeights(w Weights) {
	clamped := w.Clamp()
	e.mu.Lock()
	e.weights = clamped
	e.mu.Unlock()
}

// scorerResult is one ensemble member's output, collected by the fan-out.
type scorerResult struct {
	name string
	recs []ContentRecommendation
	err  error
}

// Recommend generates a ranked batch for the user. Single-algorithm
// failures never fail the request; they are reported in
// AlgorithmsFailed. If the context deadline expires mid-ensemble,
// whatever algorithms finished are combined and returned.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Batch, error) {
	req = req.normalize()
	now := e.now()

	snap, err := e.tracker.Snapshot(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("mastery snapshot: %w", err)
	}
	prof, err := e.profiles.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("content profile: %w", err)
	}
	candidates, err := e.catalog.ListAvailableContent(ctx, catalog.Filters{Subject: req.Subject})
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}

	in := &Input{
		Request: req,
		Now:     now,
		Profile: prof,
		Mastery: snap,
		Items:   filterCooldown(candidates, prof, now, req.CooldownWindow),
		matcher: e.matcher,
	}

	results := e.fanOut(ctx, in)

	weights := e.Weights()
	combined := combine(results, weights)

	batch := e.assemble(in, req, combined, results)
	batch.GeneratedAt = now

	e.logRecommendations(ctx, req.UserID, now, batch)

	e.logger.Debug("recommendations generated",
		zap.String("user", req.UserID),
		zap.Int("candidates", len(in.Items)),
		zap.Int("returned", len(batch.Recommendations)),
		zap.Int("fallback", len(batch.Fallback)),
		zap.Strings("failed", batch.AlgorithmsFailed))

	return batch, nil
}

// fanOut runs every scorer concurrently and collects whatever finishes
// before the context expires. Scorers share no mutable state, so the
// only synchronization is joining results.
func (e *Engine) fanOut(ctx context.Context, in *Input) []scorerResult {
	var mu sync.Mutex
	var results []scorerResult

	var wg sync.WaitGroup
	for _, s := range e.scorers {
		wg.Add(1)
		go func(s Scorer) {
			defer wg.Done()
			recs, err := s.Score(ctx, in)
			mu.Lock()
			results = append(results, scorerResult{name: s.Name(), recs: recs, err: err})
			mu.Unlock()
		}(s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Deadline: return the partial ensemble instead of nothing.
		e.logger.Warn("recommendation deadline expired, returning partial ensemble",
			zap.Error(ctx.Err()))
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]scorerResult(nil), results...)
}

// combine merges per-algorithm outputs: content appearing in several
// outputs gets its factor lists concatenated and its score recomputed as
// the weight-scaled sum, clamped to [0, 1].
func combine(results []scorerResult, weights Weights) []ContentRecommendation {
	merged := make(map[string]*ContentRecommendation)

	// Deterministic merge order regardless of goroutine completion.
	sorted := append([]scorerResult(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })

	for _, res := range sorted {
		if res.err != nil {
			continue
		}
		w := weights[res.name]
		for _, rec := range res.recs {
			m, ok := merged[rec.Item.ID]
			if !ok {
				m = &ContentRecommendation{
					Item:      rec.Item,
					Algorithm: rec.Algorithm,
				}
				merged[rec.Item.ID] = m
			} else {
				m.Algorithm = "ensemble"
			}
			m.Score += w * rec.Score
			m.Factors = append(m.Factors, rec.Factors...)
			if rec.Confidence > m.Confidence {
				m.Confidence = rec.Confidence
			}
			if rec.Reasoning != "" {
				if m.Reasoning != "" {
					m.Reasoning += "; "
				}
				m.Reasoning += rec.Reasoning
			}
			// Learning impact accumulates from the mastery-aware members.
			switch rec.Algorithm {
			case AlgProgression, AlgSkillGap, AlgPrerequisite:
				if rec.Score > m.LearningImpact {
					m.LearningImpact = rec.Score
				}
			}
		}
	}

	out := make([]ContentRecommendation, 0, len(merged))
	for _, m := range merged {
		m.Score = clamp01(m.Score)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// assemble applies thresholds, diversity selection, fallback, and batch
// metrics.
func (e *Engine) assemble(in *Input, req Request, combined []ContentRecommendation, results []scorerResult) *Batch {
	batch := &Batch{}

	sort.Slice(results, func(i, j int) bool { return results[i].name < results[j].name })
	ran := make(map[string]bool, len(results))
	for _, res := range results {
		ran[res.name] = true
		if res.err != nil {
			batch.AlgorithmsFailed = append(batch.AlgorithmsFailed, res.name)
			e.logger.Warn("algorithm failed, excluded from ensemble",
				zap.String("algorithm", res.name), zap.Error(res.err))
			continue
		}
		if len(res.recs) > 0 {
			batch.AlgorithmsUsed = append(batch.AlgorithmsUsed, res.name)
		}
	}
	// Anything that never reported was cut off by the deadline.
	for _, name := range AllAlgorithms {
		if !ran[name] {
			batch.AlgorithmsFailed = append(batch.AlgorithmsFailed, name)
		}
	}

	var pool []ContentRecommendation
	for _, rec := range combined {
		if rec.Score >= req.MinScore {
			pool = append(pool, rec)
		}
	}

	batch.Recommendations = selectDiverse(pool, req.Count, req.DiversityFactor)

	// Short batch: relaxed-threshold pass so callers always have
	// something to show, clearly separated from the primary list.
	if len(batch.Recommendations) < req.Count {
		picked := make(map[string]bool, len(batch.Recommendations))
		for _, rec := range batch.Recommendations {
			picked[rec.Item.ID] = true
		}
		var relaxed []ContentRecommendation
		for _, rec := range combined {
			if picked[rec.Item.ID] || rec.Score >= req.MinScore {
				continue
			}
			if rec.Score >= req.MinScore/2 {
				relaxed = append(relaxed, rec)
			}
		}
		batch.Fallback = selectDiverse(relaxed, req.Count-len(batch.Recommendations), req.DiversityFactor)
	}

	finalizeRecommendations(in, batch.Recommendations)
	finalizeRecommendations(in, batch.Fallback)
	e.computeMetrics(in, batch)
	return batch
}

// finalizeRecommendations assigns priorities and engagement estimates.
func finalizeRecommendations(in *Input, recs []ContentRecommendation) {
	for i := range recs {
		recs[i].Priority = i + 1
		affinity := in.Profile.TypeAffinity[recs[i].Item.ContentType]
		recs[i].EstimatedEngagement = clamp01(0.5*affinity + 0.5*recs[i].Score)
	}
}

// selectDiverse is an MMR-style greedy selection: repeatedly take the
// best-scoring remaining item, discounting items whose content type
// already dominates the picks. At diversityFactor >= 0.7 a type is hard
// capped at half the batch while alternatives remain. The cap is soft
// once every remaining candidate is capped: filling the batch takes
// precedence over the type bound.
func selectDiverse(pool []ContentRecommendation, count int, diversityFactor float64) []ContentRecommendation {
	if count <= 0 || len(pool) == 0 {
		return nil
	}

	remaining := append([]ContentRecommendation(nil), pool...)
	target := count
	if len(remaining) < target {
		target = len(remaining)
	}

	picked := make([]ContentRecommendation, 0, target)
	typeCount := make(map[catalog.ContentType]int)

	for len(picked) < target {
		bestIdx := -1
		bestEff := -1.0
		bestCapped := false

		for i, cand := range remaining {
			share := 0.0
			if len(picked) > 0 {
				share = float64(typeCount[cand.Item.ContentType]) / float64(len(picked))
			}
			eff := cand.Score * (1 - diversityFactor*share)

			capped := diversityFactor >= 0.7 &&
				(typeCount[cand.Item.ContentType]+1)*2 > target

			// Capped candidates lose to any uncapped one.
			switch {
			case bestIdx == -1,
				bestCapped && !capped,
				bestCapped == capped && eff > bestEff:
				bestIdx, bestEff, bestCapped = i, eff, capped
			}
		}

		pick := remaining[bestIdx]
		picked = append(picked, pick)
		typeCount[pick.Item.ContentType]++
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return picked
}

// computeMetrics fills the batch-level quality numbers.
func (e *Engine) computeMetrics(in *Input, batch *Batch) {
	recs := batch.Recommendations
	if len(recs) == 0 {
		return
	}

	var scoreSum float64
	novel := 0
	serendipitous := 0
	typeCount := make(map[catalog.ContentType]int)

	for _, rec := range recs {
		scoreSum += rec.Score
		typeCount[rec.Item.ContentType]++
		if !in.Profile.HasSeen(rec.Item.ID) {
			novel++
		}
		// Serendipity: scored highly despite low similarity to what the
		// user usually picks.
		if in.Profile.TotalInteractions > 0 && rec.Score >= 0.6 {
			sim := cosineSimilarity(in.Profile.PreferenceVector, profile.FeatureVector(rec.Item))
			if sim < 0.4 {
				serendipitous++
			}
		}
	}

	n := float64(len(recs))
	batch.QualityScore = scoreSum / n
	batch.NoveltyScore = float64(novel) / n
	batch.SerendipityScore = float64(serendipitous) / n

	// Diversity as 1 minus type concentration (Herfindahl index): a
	// single-type batch scores 0, an even spread approaches 1.
	var concentration float64
	for _, c := range typeCount {
		share := float64(c) / n
		concentration += share * share
	}
	batch.DiversityScore = 1 - concentration
}

// logRecommendations appends one event per served item. Log failures
// never fail the request.
func (e *Engine) logRecommendations(ctx context.Context, userID string, now time.Time, batch *Batch) {
	if len(batch.Recommendations) == 0 {
		return
	}
	batchID := uuid.NewString()
	events := make([]pstore.RecommendationEventData, 0, len(batch.Recommendations))
	for _, rec := range batch.Recommendations {
		events = append(events, pstore.RecommendationEventData{
			UserID:    userID,
			BatchID:   batchID,
			ContentID: rec.Item.ID,
			Algorithm: rec.Algorithm,
			Score:     rec.Score,
			Position:  rec.Priority,
			Timestamp: now,
		})
	}
	if err := e.events.AppendRecommendations(ctx, events); err != nil {
		e.logger.Warn("failed to log recommendation events", zap.Error(err))
	}
}
