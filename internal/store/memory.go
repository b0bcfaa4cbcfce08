package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryKV is an in-memory KV for tests. Semantics match sqliteKV.
type MemoryKV struct {
	mu      sync.Mutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	data    []byte
	version int64
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{records: make(map[string]memoryRecord)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, 0, nil
	}
	return slices.Clone(rec.data), rec.version, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[key]
	m.records[key] = memoryRecord{data: slices.Clone(value), version: rec.version + 1}
	return nil
}

func (m *MemoryKV) CompareAndSwap(_ context.Context, key string, value []byte, expect int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	current := int64(0)
	if ok {
		current = rec.version
	}
	if current != expect {
		return 0, fmt.Errorf("swap %q: %w", key, ErrConflict)
	}
	m.records[key] = memoryRecord{data: slices.Clone(value), version: expect + 1}
	return expect + 1, nil
}

// MemoryEventRepo is an in-memory EventRepo for tests.
type MemoryEventRepo struct {
	mu              sync.Mutex
	Interactions    []InteractionEventData
	Assessments     []AssessmentEventData
	Recommendations []RecommendationEventData
	OracleRequests  []OracleEventData
}

// NewMemoryEventRepo creates an empty in-memory event repo.
func NewMemoryEventRepo() *MemoryEventRepo {
	return &MemoryEventRepo{}
}

func (m *MemoryEventRepo) AppendInteraction(_ context.Context, data InteractionEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Interactions = append(m.Interactions, data)
	return nil
}

func (m *MemoryEventRepo) AppendAssessment(_ context.Context, data AssessmentEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Assessments = append(m.Assessments, data)
	return nil
}

func (m *MemoryEventRepo) AppendRecommendations(_ context.Context, data []RecommendationEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recommendations = append(m.Recommendations, data...)
	return nil
}

func (m *MemoryEventRepo) AppendOracleRequest(_ context.Context, data OracleEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OracleRequests = append(m.OracleRequests, data)
	return nil
}

// PruneEventsBefore drops timestamped events older than cutoff. Oracle
// events carry no timestamp in memory and are kept.
func (m *MemoryEventRepo) PruneEventsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.Interactions) + len(m.Assessments) + len(m.Recommendations)
	m.Interactions = slices.DeleteFunc(m.Interactions, func(d InteractionEventData) bool {
		return d.Timestamp.Before(cutoff)
	})
	m.Assessments = slices.DeleteFunc(m.Assessments, func(d AssessmentEventData) bool {
		return d.Timestamp.Before(cutoff)
	})
	m.Recommendations = slices.DeleteFunc(m.Recommendations, func(d RecommendationEventData) bool {
		return d.Timestamp.Before(cutoff)
	})
	after := len(m.Interactions) + len(m.Assessments) + len(m.Recommendations)
	return int64(before - after), nil
}

func (m *MemoryEventRepo) InteractionsInRange(_ context.Context, userID string, from, to time.Time) ([]InteractionEventData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []InteractionEventData
	for _, d := range m.Interactions {
		if d.UserID == userID && !d.Timestamp.Before(from) && d.Timestamp.Before(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryEventRepo) RecentAssessmentScores(_ context.Context, userID, skillID string, lastN int) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []float64
	for i := len(m.Assessments) - 1; i >= 0 && len(out) < lastN; i-- {
		d := m.Assessments[i]
		if d.UserID == userID && d.SkillID == skillID {
			out = append(out, d.Score)
		}
	}
	return out, nil
}

func (m *MemoryEventRepo) RecommendationsInRange(_ context.Context, userID string, from, to time.Time) ([]RecommendationEventData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RecommendationEventData
	for _, d := range m.Recommendations {
		if d.UserID == userID && !d.Timestamp.Before(from) && d.Timestamp.Before(to) {
			out = append(out, d)
		}
	}
	return out, nil
}
