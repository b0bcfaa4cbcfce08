// Package mastery tracks per-user skill mastery over the prerequisite
// DAG: evidence evaluation, adaptive completion thresholds, unlock
// propagation, achievements, and gap analysis.
package mastery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/skillgraph"
	"github.com/pathwise/pathwise/internal/store"
)

// SkillLockedError indicates an assessment attempted on a locked skill.
type SkillLockedError struct {
	SkillID        string
	MissingPrereqs []string
}

func (e *SkillLockedError) Error() string {
	if len(e.MissingPrereqs) == 0 {
		return fmt.Sprintf("skill %q is locked", e.SkillID)
	}
	return fmt.Sprintf("skill %q is locked: incomplete prerequisites %s",
		e.SkillID, strings.Join(e.MissingPrereqs, ", "))
}

// StateTransition records a skill state change for event logging.
type StateTransition struct {
	SkillID string
	From    string
	To      string
	// Trigger is one of "evidence", "unlock-propagation", "reset",
	// "review-performance", "recovery".
	Trigger string
}

// AssessmentResult is the outcome of one AssessSkillMastery call.
type AssessmentResult struct {
	SkillID         string
	EvidenceScore   float64
	NewMasteryLevel float64
	// Threshold is the adaptive completion bar that was applied.
	Threshold          float64
	Completed          bool
	UnlockedSkills     []string
	EarnedAchievements []Achievement
	// SkippedEvidence reports per-item validation failures. These never
	// abort processing of valid sibling items.
	SkippedEvidence []*ValidationError
	Transitions     []StateTransition
}

// Tracker owns all user mastery profiles. Writes to a given user are
// serialized by a per-user lock; unlock propagation completes before the
// call returns, so callers always observe a consistent post-state.
type Tracker struct {
	curriculum   *skillgraph.Store
	kv           store.KV
	events       store.EventRepo
	achievements []Achievement
	logger       *zap.Logger
	now          func() time.Time

	// mu guards locks and cache. Per-user locks serialize mutation of a
	// user's entry; the maps themselves are shared across users and must
	// only be touched under mu.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string]*userEntry
}

type userEntry struct {
	profile *UserMasteryProfile
	indices map[string]*skillgraph.Index
	version int64
}

// NewTracker creates a tracker over the given curriculum and persistence.
// achievements may be nil to use DefaultAchievements; logger may be nil.
func NewTracker(curriculum *skillgraph.Store, kv store.KV, events store.EventRepo, achievements []Achievement, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if achievements == nil {
		achievements = DefaultAchievements(curriculum.Subjects())
	}
	return &Tracker{
		curriculum:   curriculum,
		kv:           kv,
		events:       events,
		achievements: achievements,
		logger:       logger,
		now:          time.Now,
		locks:        make(map[string]*sync.Mutex),
		cache:        make(map[string]*userEntry),
	}
}

func (t *Tracker) userLock(userID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[userID] = l
	}
	return l
}

func masteryKey(userID string) string { return "mastery-profile:" + userID }

// Profile returns a deep copy of the user's mastery profile,
// materializing it from the curriculum on first access.
func (t *Tracker) Profile(ctx context.Context, userID string) (*UserMasteryProfile, error) {
	lock := t.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := t.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return entry.profile.Clone(), nil
}

// AssessSkillMastery evaluates evidence for a skill and applies the
// results: mastery update (monotonic non-decreasing), adaptive-threshold
// completion, unlock propagation, and achievement evaluation.
//
// Structural failures (unknown skill, locked skill, lost profile write)
// abort the call. Malformed evidence items are skipped per item and
// reported in the result.
func (t *Tracker) AssessSkillMastery(ctx context.Context, userID, skillID string, evidence []Evidence) (*AssessmentResult, error) {
	lock := t.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := t.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	node := entry.profile.Node(skillID)
	if node == nil {
		return nil, fmt.Errorf("skill %q: %w", skillID, skillgraph.ErrNotFound)
	}
	if !node.IsUnlocked {
		return nil, &SkillLockedError{
			SkillID:        skillID,
			MissingPrereqs: t.incompletePrereqs(entry, node),
		}
	}

	result := &AssessmentResult{SkillID: skillID}
	now := t.now()

	var valid []Evidence
	for i, ev := range evidence {
		if verr := validateEvidence(i, ev, node.Threshold.AcceptedEvidence); verr != nil {
			result.SkippedEvidence = append(result.SkippedEvidence, verr)
			continue
		}
		valid = append(valid, ev)
	}

	// The bar derives from quality history prior to this call, so the
	// submitted evidence cannot move the threshold it is judged against.
	threshold := AdaptiveThreshold(node.Threshold.RequiredScore, entry.profile.QualityHistory[node.SubjectArea])
	result.Threshold = threshold

	if len(valid) > 0 {
		result.EvidenceScore = weightedEvidenceScore(valid, now)
		node.Attempts += len(valid)
		for _, ev := range valid {
			entry.profile.recordQuality(node.SubjectArea, ev.Quality)
		}

		// Monotonic non-decrease: mastery only ever moves up here.
		// An explicit reset is the separate, authorized path down.
		if result.EvidenceScore > node.CurrentMastery {
			node.CurrentMastery = result.EvidenceScore
		}
	}
	result.NewMasteryLevel = node.CurrentMastery

	if !node.IsCompleted &&
		node.CurrentMastery >= threshold &&
		node.Attempts >= node.Threshold.MinimumAttempts {
		node.IsCompleted = true
		node.IsRusty = false
		result.Completed = true
		result.Transitions = append(result.Transitions, StateTransition{
			SkillID: skillID, From: "unlocked", To: "completed", Trigger: "evidence",
		})

		unlocked := t.propagateUnlocks(entry, skillID)
		result.UnlockedSkills = unlocked
		for _, id := range unlocked {
			result.Transitions = append(result.Transitions, StateTransition{
				SkillID: id, From: "locked", To: "unlocked", Trigger: "unlock-propagation",
			})
		}
	}

	earned := evaluateAchievements(t.achievements, entry.profile)
	for _, a := range earned {
		entry.profile.AchievementsEarned[a.ID] = now
	}
	result.EarnedAchievements = earned

	if err := t.saveLocked(ctx, userID, entry); err != nil {
		return nil, err
	}

	if err := t.events.AppendAssessment(ctx, store.AssessmentEventData{
		UserID:       userID,
		SkillID:      skillID,
		Timestamp:    now,
		Score:        result.EvidenceScore,
		NewMastery:   result.NewMasteryLevel,
		Threshold:    threshold,
		Completed:    result.Completed,
		Unlocked:     result.UnlockedSkills,
		Achievements: achievementIDs(earned),
	}); err != nil {
		t.logger.Warn("failed to log assessment event", zap.Error(err))
	}

	t.logger.Debug("skill assessed",
		zap.String("user", userID),
		zap.String("skill", skillID),
		zap.Float64("mastery", result.NewMasteryLevel),
		zap.Float64("threshold", threshold),
		zap.Bool("completed", result.Completed),
		zap.Int("unlocked", len(result.UnlockedSkills)))

	return result, nil
}

// ResetSkill zeroes a skill's mastery and completion. This is the one
// sanctioned path by which mastery decreases. Dependents that lose a
// completed prerequisite are re-locked unless they are themselves
// completed (completed implies unlocked, always).
func (t *Tracker) ResetSkill(ctx context.Context, userID, skillID string) ([]StateTransition, error) {
	lock := t.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := t.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	node := entry.profile.Node(skillID)
	if node == nil {
		return nil, fmt.Errorf("skill %q: %w", skillID, skillgraph.ErrNotFound)
	}

	wasCompleted := node.IsCompleted
	node.CurrentMastery = 0
	node.IsCompleted = false
	node.IsRusty = false
	node.Attempts = 0

	from := "unlocked"
	if wasCompleted {
		from = "completed"
	}
	transitions := []StateTransition{
		{SkillID: skillID, From: from, To: "unlocked", Trigger: "reset"},
	}

	if wasCompleted {
		for _, subject := range sortedKeys(entry.indices) {
			idx := entry.indices[subject]
			for _, depID := range idx.Dependents(skillID) {
				dep := idx.Node(depID)
				if dep == nil || !dep.IsUnlocked || dep.IsCompleted {
					continue
				}
				if !t.prereqsSatisfied(entry, dep) {
					dep.IsUnlocked = false
					transitions = append(transitions, StateTransition{
						SkillID: depID, From: "unlocked", To: "locked", Trigger: "reset",
					})
				}
			}
		}
	}

	if err := t.saveLocked(ctx, userID, entry); err != nil {
		return nil, err
	}
	return transitions, nil
}

// CheckReviewPerformance flags a completed skill as rusty when its recent
// assessment scores have collapsed. The flag never lowers mastery.
func (t *Tracker) CheckReviewPerformance(ctx context.Context, userID, skillID string) (*StateTransition, error) {
	lock := t.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := t.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	node := entry.profile.Node(skillID)
	if node == nil {
		return nil, fmt.Errorf("skill %q: %w", skillID, skillgraph.ErrNotFound)
	}
	if !node.IsCompleted || node.IsRusty {
		return nil, nil
	}

	const reviewWindow = 4
	scores, err := t.events.RecentAssessmentScores(ctx, userID, skillID, reviewWindow)
	if err != nil || len(scores) < reviewWindow {
		return nil, err
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	if sum/float64(len(scores)) >= 0.5 {
		return nil, nil
	}

	node.IsRusty = true
	if err := t.saveLocked(ctx, userID, entry); err != nil {
		return nil, err
	}
	return &StateTransition{
		SkillID: skillID, From: "completed", To: "rusty", Trigger: "review-performance",
	}, nil
}

// propagateUnlocks walks the dependents edges breadth-first from a newly
// completed skill and unlocks every skill whose prerequisites are now all
// completed. Terminates because the graph is a DAG.
func (t *Tracker) propagateUnlocks(entry *userEntry, completedID string) []string {
	var unlocked []string
	queue := []string{completedID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, subject := range sortedKeys(entry.indices) {
			idx := entry.indices[subject]
			for _, depID := range idx.Dependents(id) {
				dep := idx.Node(depID)
				if dep == nil || dep.IsUnlocked {
					continue
				}
				if t.prereqsSatisfied(entry, dep) {
					dep.IsUnlocked = true
					unlocked = append(unlocked, depID)
					queue = append(queue, depID)
				}
			}
		}
	}

	sort.Strings(unlocked)
	return unlocked
}

// prereqsSatisfied applies the strict unlock rule: every prerequisite
// must be completed. Distinct from the recommender's softer
// UnlockablePrereqRatio heuristic.
func (t *Tracker) prereqsSatisfied(entry *userEntry, node *skillgraph.SkillNode) bool {
	for _, prereqID := range node.Prerequisites {
		p := entry.profile.Node(prereqID)
		if p == nil || !p.IsCompleted {
			return false
		}
	}
	return true
}

func (t *Tracker) incompletePrereqs(entry *userEntry, node *skillgraph.SkillNode) []string {
	var missing []string
	for _, prereqID := range node.Prerequisites {
		p := entry.profile.Node(prereqID)
		if p == nil || !p.IsCompleted {
			missing = append(missing, prereqID)
		}
	}
	return missing
}

func (t *Tracker) cachedEntry(userID string) (*userEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.cache[userID]
	return entry, ok
}

func (t *Tracker) storeEntry(userID string, entry *userEntry) {
	t.mu.Lock()
	t.cache[userID] = entry
	t.mu.Unlock()
}

func (t *Tracker) evictEntry(userID string) {
	t.mu.Lock()
	delete(t.cache, userID)
	t.mu.Unlock()
}

// loadLocked loads or materializes the user's profile and rebuilds tree
// indices. Caller must hold the user lock.
func (t *Tracker) loadLocked(ctx context.Context, userID string) (*userEntry, error) {
	if entry, ok := t.cachedEntry(userID); ok {
		return entry, nil
	}

	data, version, err := t.kv.Get(ctx, masteryKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load mastery profile: %w", err)
	}

	p := NewUserMasteryProfile(userID)
	if data != nil {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("decode mastery profile: %w", err)
		}
	}

	// Materialize trees for curriculum subjects the profile has not seen.
	// Roots start unlocked; everything else is locked until its
	// prerequisites complete.
	for _, subject := range t.curriculum.Subjects() {
		if _, ok := p.Trees[subject]; ok {
			continue
		}
		idx, err := t.curriculum.GetSkillTree(subject)
		if err != nil {
			return nil, err
		}
		tree := idx.Tree().Clone()
		for _, n := range tree.Nodes {
			if len(n.Prerequisites) == 0 {
				n.IsUnlocked = true
			}
		}
		p.Trees[subject] = tree
	}

	entry := &userEntry{
		profile: p,
		indices: make(map[string]*skillgraph.Index, len(p.Trees)),
		version: version,
	}
	for subject, tree := range p.Trees {
		idx, err := skillgraph.NewIndex(tree)
		if err != nil {
			return nil, fmt.Errorf("index profile tree %q: %w", subject, err)
		}
		entry.indices[subject] = idx
	}

	t.storeEntry(userID, entry)
	return entry, nil
}

// saveLocked writes the profile with compare-and-swap. Any save failure
// evicts the cache entry: the in-memory profile was already mutated, so
// keeping it would let unpersisted state leak into later calls. The next
// call re-reads from the store, and store.ErrConflict (a lost swap to
// another process) surfaces for the caller to retry.
func (t *Tracker) saveLocked(ctx context.Context, userID string, entry *userEntry) error {
	data, err := json.Marshal(entry.profile)
	if err != nil {
		return fmt.Errorf("encode mastery profile: %w", err)
	}

	newVersion, err := t.kv.CompareAndSwap(ctx, masteryKey(userID), data, entry.version)
	if err != nil {
		t.evictEntry(userID)
		return fmt.Errorf("save mastery profile: %w", err)
	}
	entry.version = newVersion
	return nil
}

func achievementIDs(achievements []Achievement) []string {
	out := make([]string, len(achievements))
	for i, a := range achievements {
		out[i] = a.ID
	}
	return out
}
