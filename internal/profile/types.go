// Package profile maintains per-user content-interaction history and the
// preference features derived from it. The interaction log is append-only;
// derived fields are recomputed incrementally on each new interaction and
// are never mutated directly by callers.
package profile

import (
	"fmt"
	"time"

	"github.com/pathwise/pathwise/internal/catalog"
)

// InteractionType labels what the user did with a piece of content.
type InteractionType string

const (
	InteractionViewed    InteractionType = "viewed"
	InteractionStarted   InteractionType = "started"
	InteractionCompleted InteractionType = "completed"
	InteractionAbandoned InteractionType = "abandoned"
	InteractionReviewed  InteractionType = "reviewed"
	InteractionBookmark  InteractionType = "bookmarked"
)

// ContentInteraction is one entry in the append-only interaction log.
type ContentInteraction struct {
	ContentID       string          `json:"content_id"`
	InteractionType InteractionType `json:"interaction_type"`
	Timestamp       time.Time       `json:"timestamp"`
	Duration        time.Duration   `json:"duration"`
	// EngagementScore in [0, 1].
	EngagementScore float64 `json:"engagement_score"`
	// CompletionRate in [0, 1].
	CompletionRate float64 `json:"completion_rate"`
	Difficulty     int     `json:"difficulty"`
	// Context carries request attribution, e.g. "recommended:content_based".
	Context string `json:"context,omitempty"`
}

// Validate checks interaction fields are in range.
func (ci ContentInteraction) Validate() error {
	if ci.ContentID == "" {
		return fmt.Errorf("interaction has empty content ID")
	}
	if ci.EngagementScore < 0 || ci.EngagementScore > 1 {
		return fmt.Errorf("engagement score must be in [0, 1], got %f", ci.EngagementScore)
	}
	if ci.CompletionRate < 0 || ci.CompletionRate > 1 {
		return fmt.Errorf("completion rate must be in [0, 1], got %f", ci.CompletionRate)
	}
	return nil
}

// UserContentProfile holds the derived preference features for one user.
// All fields are owned by the profile store; callers get copies.
type UserContentProfile struct {
	UserID string `json:"user_id"`

	// PreferenceVector is the EMA of interacted content feature vectors,
	// weighted by engagement. Dimension layout is defined in features.go.
	PreferenceVector []float64 `json:"preference_vector"`

	// LearningVelocity is a per-subject EMA of completion rate.
	LearningVelocity map[string]float64 `json:"learning_velocity"`

	// DifficultyPreference is the engagement-weighted EMA of interacted
	// difficulty, on the 1-10 scale. Zero means no signal yet.
	DifficultyPreference float64 `json:"difficulty_preference"`

	// TypeAffinity is the engagement-weighted EMA per content type, in [0, 1].
	TypeAffinity map[catalog.ContentType]float64 `json:"type_affinity"`

	// TemporalPattern counts interactions per (dayOfWeek, timeOfDay) bucket.
	TemporalPattern map[string]int `json:"temporal_pattern"`

	// LastSeen maps content ID to the most recent interaction time.
	// Cool-down exclusion and novelty scoring read this.
	LastSeen map[string]time.Time `json:"last_seen"`

	TotalInteractions int `json:"total_interactions"`
}

// NewUserContentProfile returns an empty profile for a user.
func NewUserContentProfile(userID string) *UserContentProfile {
	return &UserContentProfile{
		UserID:           userID,
		PreferenceVector: make([]float64, FeatureDims),
		LearningVelocity: make(map[string]float64),
		TypeAffinity:     make(map[catalog.ContentType]float64),
		TemporalPattern:  make(map[string]int),
		LastSeen:         make(map[string]time.Time),
	}
}

// HasSeen reports whether the user has ever interacted with the content.
func (p *UserContentProfile) HasSeen(contentID string) bool {
	_, ok := p.LastSeen[contentID]
	return ok
}

// SeenWithin reports whether the user interacted with the content inside
// the given window ending at now.
func (p *UserContentProfile) SeenWithin(contentID string, now time.Time, window time.Duration) bool {
	last, ok := p.LastSeen[contentID]
	if !ok {
		return false
	}
	return now.Sub(last) < window
}

// TemporalKey buckets a timestamp by day-of-week and coarse time-of-day.
func TemporalKey(t time.Time) string {
	var slot string
	switch h := t.Hour(); {
	case h < 6:
		slot = "night"
	case h < 12:
		slot = "morning"
	case h < 18:
		slot = "afternoon"
	default:
		slot = "evening"
	}
	return fmt.Sprintf("%s:%s", t.Weekday().String(), slot)
}

// Clone returns a deep copy of the profile.
func (p *UserContentProfile) Clone() *UserContentProfile {
	out := &UserContentProfile{
		UserID:               p.UserID,
		PreferenceVector:     append([]float64(nil), p.PreferenceVector...),
		LearningVelocity:     make(map[string]float64, len(p.LearningVelocity)),
		DifficultyPreference: p.DifficultyPreference,
		TypeAffinity:         make(map[catalog.ContentType]float64, len(p.TypeAffinity)),
		TemporalPattern:      make(map[string]int, len(p.TemporalPattern)),
		LastSeen:             make(map[string]time.Time, len(p.LastSeen)),
		TotalInteractions:    p.TotalInteractions,
	}
	for k, v := range p.LearningVelocity {
		out.LearningVelocity[k] = v
	}
	for k, v := range p.TypeAffinity {
		out.TypeAffinity[k] = v
	}
	for k, v := range p.TemporalPattern {
		out.TemporalPattern[k] = v
	}
	for k, v := range p.LastSeen {
		out.LastSeen[k] = v
	}
	return out
}
