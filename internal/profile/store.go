package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/store"
)

// EMA smoothing and nudge rates for derived profile fields.
const (
	velocityAlpha   = 0.3
	affinityAlpha   = 0.25
	difficultyAlpha = 0.2
	preferenceRate  = 0.2
)

// Store owns all UserContentProfile instances. Interaction recording is
// atomic per user: the event append and the derived-field update happen
// under the same per-user lock, so readers never observe a log entry
// without its derived effects.
type Store struct {
	kv     store.KV
	events store.EventRepo
	logger *zap.Logger

	// mu guards locks and cache. Per-user locks serialize work on one
	// user's profile; the maps are shared across users and must only be
	// touched under mu.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string]*UserContentProfile
}

// NewStore creates a profile store over the given persistence. Either
// dependency may be a memory implementation; logger may be nil.
func NewStore(kv store.KV, events store.EventRepo, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:     kv,
		events: events,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
		cache:  make(map[string]*UserContentProfile),
	}
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func profileKey(userID string) string { return "content-profile:" + userID }

// GetProfile returns a copy of the user's derived profile, loading it from
// the keyed store on first access. A user with no history gets an empty
// profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (*UserContentProfile, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// RecordInteraction appends the interaction to the log and applies its
// incremental effects to the derived profile. The content item supplies
// the feature vector and subject for the derived updates.
func (s *Store) RecordInteraction(ctx context.Context, userID string, item catalog.ContentItem, ci ContentInteraction) error {
	if err := ci.Validate(); err != nil {
		return err
	}
	if ci.ContentID != item.ID {
		return fmt.Errorf("interaction content %q does not match item %q", ci.ContentID, item.ID)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.loadLocked(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.events.AppendInteraction(ctx, store.InteractionEventData{
		UserID:          userID,
		ContentID:       ci.ContentID,
		InteractionType: string(ci.InteractionType),
		Timestamp:       ci.Timestamp,
		DurationMs:      ci.Duration.Milliseconds(),
		Engagement:      ci.EngagementScore,
		CompletionRate:  ci.CompletionRate,
		Difficulty:      ci.Difficulty,
		Context:         ci.Context,
	}); err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}

	applyInteraction(p, item, ci)

	if err := s.saveLocked(ctx, p); err != nil {
		return err
	}

	s.logger.Debug("interaction recorded",
		zap.String("user", userID),
		zap.String("content", ci.ContentID),
		zap.String("type", string(ci.InteractionType)),
		zap.Float64("engagement", ci.EngagementScore))
	return nil
}

// applyInteraction folds one interaction into the derived fields.
func applyInteraction(p *UserContentProfile, item catalog.ContentItem, ci ContentInteraction) {
	// Preference vector nudged toward the content's features,
	// proportional to engagement.
	f := FeatureVector(item)
	step := preferenceRate * ci.EngagementScore
	for i := range p.PreferenceVector {
		p.PreferenceVector[i] += step * (f[i] - p.PreferenceVector[i])
	}

	// Per-subject learning velocity: EMA of completion rate.
	if prev, ok := p.LearningVelocity[item.Subject]; ok {
		p.LearningVelocity[item.Subject] = (1-velocityAlpha)*prev + velocityAlpha*ci.CompletionRate
	} else {
		p.LearningVelocity[item.Subject] = ci.CompletionRate
	}

	// Difficulty preference follows engaged-with difficulty.
	if ci.EngagementScore > 0 {
		d := float64(item.Difficulty)
		if p.DifficultyPreference == 0 {
			p.DifficultyPreference = d
		} else {
			rate := difficultyAlpha * ci.EngagementScore
			p.DifficultyPreference += rate * (d - p.DifficultyPreference)
		}
	}

	// Type affinity: every type decays slightly, the interacted type
	// moves toward the engagement score.
	for ct, a := range p.TypeAffinity {
		if ct != item.ContentType {
			p.TypeAffinity[ct] = a * (1 - affinityAlpha/4)
		}
	}
	prev := p.TypeAffinity[item.ContentType]
	p.TypeAffinity[item.ContentType] = (1-affinityAlpha)*prev + affinityAlpha*ci.EngagementScore

	p.TemporalPattern[TemporalKey(ci.Timestamp)]++
	p.LastSeen[ci.ContentID] = ci.Timestamp
	p.TotalInteractions++
}

func (s *Store) cachedProfile(userID string) (*UserContentProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.cache[userID]
	return p, ok
}

// loadLocked loads the user's profile into the cache. Caller must hold
// the user lock.
func (s *Store) loadLocked(ctx context.Context, userID string) (*UserContentProfile, error) {
	if p, ok := s.cachedProfile(userID); ok {
		return p, nil
	}

	data, _, err := s.kv.Get(ctx, profileKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load content profile: %w", err)
	}

	p := NewUserContentProfile(userID)
	if data != nil {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("decode content profile: %w", err)
		}
		// Older profiles may predate a feature layout change.
		if len(p.PreferenceVector) != FeatureDims {
			p.PreferenceVector = make([]float64, FeatureDims)
		}
	}
	s.mu.Lock()
	s.cache[userID] = p
	s.mu.Unlock()
	return p, nil
}

func (s *Store) saveLocked(ctx context.Context, p *UserContentProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode content profile: %w", err)
	}
	if err := s.kv.Put(ctx, profileKey(p.UserID), data); err != nil {
		return fmt.Errorf("save content profile: %w", err)
	}
	return nil
}

// Flush writes all cached profiles to the keyed store. Call at shutdown.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	users := make([]string, 0, len(s.cache))
	for u := range s.cache {
		users = append(users, u)
	}
	s.mu.Unlock()

	for _, u := range users {
		lock := s.userLock(u)
		lock.Lock()
		p, ok := s.cachedProfile(u)
		var err error
		if ok {
			err = s.saveLocked(ctx, p)
		}
		lock.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}
