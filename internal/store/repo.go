package store

import (
	"context"
	"time"
)

// InteractionEventData records a single content interaction.
type InteractionEventData struct {
	UserID          string
	ContentID       string
	InteractionType string
	Timestamp       time.Time
	DurationMs      int64
	Engagement      float64
	CompletionRate  float64
	Difficulty      int
	// Context carries request attribution, e.g. "recommended:mastery_progression".
	Context string
}

// AssessmentEventData records the outcome of one mastery assessment.
type AssessmentEventData struct {
	UserID       string
	SkillID      string
	Timestamp    time.Time
	Score        float64
	NewMastery   float64
	Threshold    float64
	Completed    bool
	Unlocked     []string
	Achievements []string
}

// RecommendationEventData records one recommendation served to a user.
type RecommendationEventData struct {
	UserID    string
	BatchID   string
	ContentID string
	Algorithm string
	Score     float64
	Position  int
	Timestamp time.Time
}

// OracleEventData records a call to the content-suggestion oracle.
type OracleEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// EventRepo provides append and query access to domain events.
// Events are append-only; nothing here updates or deletes.
type EventRepo interface {
	AppendInteraction(ctx context.Context, data InteractionEventData) error
	AppendAssessment(ctx context.Context, data AssessmentEventData) error
	AppendRecommendations(ctx context.Context, data []RecommendationEventData) error
	AppendOracleRequest(ctx context.Context, data OracleEventData) error

	// InteractionsInRange returns a user's interactions with
	// from <= timestamp < to, oldest first.
	InteractionsInRange(ctx context.Context, userID string, from, to time.Time) ([]InteractionEventData, error)

	// RecommendationsInRange returns recommendations served to a user with
	// from <= timestamp < to, oldest first.
	RecommendationsInRange(ctx context.Context, userID string, from, to time.Time) ([]RecommendationEventData, error)

	// RecentAssessmentScores returns the evidence scores of the user's
	// last N assessments of a skill, newest first.
	RecentAssessmentScores(ctx context.Context, userID, skillID string, lastN int) ([]float64, error)

	// PruneEventsBefore deletes events older than cutoff and reports how
	// many were removed. Derived profiles are unaffected; this only
	// bounds the log's growth.
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
