// Package analytics rolls interaction and recommendation history into
// performance reports, and feeds those reports back into the ensemble's
// algorithm weights. The feedback loop is explicit and auditable: every
// weight adjustment carries a reason, and nothing re-weights silently.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/profile"
	"github.com/pathwise/pathwise/internal/store"
)

// attributionPrefix marks an interaction as driven by a served
// recommendation; the suffix names the algorithm that surfaced it.
const attributionPrefix = "recommended:"

// Attribution builds the interaction context string for content the
// user reached through a recommendation.
func Attribution(algorithm string) string {
	return attributionPrefix + algorithm
}

// algorithmFromContext extracts the attributed algorithm, if any.
func algorithmFromContext(c string) (string, bool) {
	if !strings.HasPrefix(c, attributionPrefix) {
		return "", false
	}
	return c[len(attributionPrefix):], true
}

// AlgorithmPerformance summarizes how one ensemble member's
// recommendations landed during a reporting window.
type AlgorithmPerformance struct {
	Served         int     `json:"served"`
	ActedOn        int     `json:"acted_on"`
	ConversionRate float64 `json:"conversion_rate"`
	AvgEngagement  float64 `json:"avg_engagement"`
	AvgScore       float64 `json:"avg_score"`
}

// Report is the aggregate view of a user's recorded activity over a
// timeframe.
type Report struct {
	UserID string    `json:"user_id"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`

	TotalInteractions    int `json:"total_interactions"`
	TotalRecommendations int `json:"total_recommendations"`

	// EngagementRate is the mean engagement score across interactions.
	EngagementRate float64 `json:"engagement_rate"`
	// CompletionRate is the mean completion rate across interactions.
	CompletionRate float64 `json:"completion_rate"`
	// SatisfactionRate is the fraction of interactions with engagement
	// at or above the satisfaction bar.
	SatisfactionRate float64 `json:"satisfaction_rate"`

	Algorithms map[string]AlgorithmPerformance `json:"algorithms"`
}

// satisfactionBar: engagement at or above this counts as a satisfied
// interaction.
const satisfactionBar = 0.7

// Aggregator reads the event log and writes nothing but profile updates
// (through the profile store) and weight suggestions (returned to the
// caller, who applies them).
type Aggregator struct {
	profiles *profile.Store
	catalog  catalog.Catalog
	events   store.EventRepo
	logger   *zap.Logger
	now      func() time.Time
}

// NewAggregator creates an Aggregator; logger may be nil.
func NewAggregator(profiles *profile.Store, cat catalog.Catalog, events store.EventRepo, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		profiles: profiles,
		catalog:  cat,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordInteraction resolves the content item and applies the
// interaction to the user's derived profile. The event append and the
// profile update are atomic per user; see the profile store.
func (a *Aggregator) RecordInteraction(ctx context.Context, userID, contentID string, ci profile.ContentInteraction) error {
	item, err := a.findContent(ctx, contentID)
	if err != nil {
		return err
	}
	if ci.ContentID == "" {
		ci.ContentID = contentID
	}
	if ci.Timestamp.IsZero() {
		ci.Timestamp = a.now()
	}
	return a.profiles.RecordInteraction(ctx, userID, item, ci)
}

func (a *Aggregator) findContent(ctx context.Context, contentID string) (catalog.ContentItem, error) {
	items, err := a.catalog.ListAvailableContent(ctx, catalog.Filters{})
	if err != nil {
		return catalog.ContentItem{}, fmt.Errorf("list content: %w", err)
	}
	for _, item := range items {
		if item.ID == contentID {
			return item, nil
		}
	}
	return catalog.ContentItem{}, fmt.Errorf("content %q not in catalog", contentID)
}

// RecommendationAnalytics aggregates the user's logged interactions and
// served recommendations over the trailing timeframe.
func (a *Aggregator) RecommendationAnalytics(ctx context.Context, userID string, timeframe time.Duration) (*Report, error) {
	to := a.now()
	from := to.Add(-timeframe)

	var (
		interactions []store.InteractionEventData
		served       []store.RecommendationEventData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		interactions, err = a.events.InteractionsInRange(gctx, userID, from, to)
		if err != nil {
			return fmt.Errorf("interactions in range: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		served, err = a.events.RecommendationsInRange(gctx, userID, from, to)
		if err != nil {
			return fmt.Errorf("recommendations in range: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		UserID:               userID,
		From:                 from,
		To:                   to,
		TotalInteractions:    len(interactions),
		TotalRecommendations: len(served),
		Algorithms:           make(map[string]AlgorithmPerformance),
	}

	var engagementSum, completionSum float64
	satisfied := 0
	for _, in := range interactions {
		engagementSum += in.Engagement
		completionSum += in.CompletionRate
		if in.Engagement >= satisfactionBar {
			satisfied++
		}
	}
	if len(interactions) > 0 {
		n := float64(len(interactions))
		report.EngagementRate = engagementSum / n
		report.CompletionRate = completionSum / n
		report.SatisfactionRate = float64(satisfied) / n
	}

	report.Algorithms = perAlgorithm(served, interactions)

	a.logger.Debug("analytics report built",
		zap.String("user", userID),
		zap.Duration("timeframe", timeframe),
		zap.Int("interactions", report.TotalInteractions),
		zap.Int("recommendations", report.TotalRecommendations))
	return report, nil
}

// perAlgorithm joins served recommendations with the interactions they
// led to. An interaction counts for an algorithm when it carries an
// explicit attribution, or when its content was served by that
// algorithm earlier in the window.
func perAlgorithm(served []store.RecommendationEventData, interactions []store.InteractionEventData) map[string]AlgorithmPerformance {
	type acc struct {
		served        int
		scoreSum      float64
		actedOn       int
		engagementSum float64
	}
	accs := make(map[string]*acc)
	get := func(name string) *acc {
		a, ok := accs[name]
		if !ok {
			a = &acc{}
			accs[name] = a
		}
		return a
	}

	// servedBy: content -> algorithm -> earliest serve time, for
	// interactions without explicit attribution.
	servedBy := make(map[string]map[string]time.Time)
	for _, rec := range served {
		a := get(rec.Algorithm)
		a.served++
		a.scoreSum += rec.Score

		byAlg, ok := servedBy[rec.ContentID]
		if !ok {
			byAlg = make(map[string]time.Time)
			servedBy[rec.ContentID] = byAlg
		}
		if first, ok := byAlg[rec.Algorithm]; !ok || rec.Timestamp.Before(first) {
			byAlg[rec.Algorithm] = rec.Timestamp
		}
	}

	for _, in := range interactions {
		if alg, ok := algorithmFromContext(in.Context); ok {
			a := get(alg)
			a.actedOn++
			a.engagementSum += in.Engagement
			continue
		}
		for alg, servedAt := range servedBy[in.ContentID] {
			if in.Timestamp.Before(servedAt) {
				continue
			}
			a := get(alg)
			a.actedOn++
			a.engagementSum += in.Engagement
		}
	}

	out := make(map[string]AlgorithmPerformance, len(accs))
	for name, a := range accs {
		perf := AlgorithmPerformance{Served: a.served, ActedOn: a.actedOn}
		if a.served > 0 {
			perf.AvgScore = a.scoreSum / float64(a.served)
			perf.ConversionRate = float64(a.actedOn) / float64(a.served)
		}
		if a.actedOn > 0 {
			perf.AvgEngagement = a.engagementSum / float64(a.actedOn)
		}
		out[name] = perf
	}
	return out
}
