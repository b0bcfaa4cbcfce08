package mastery

import (
	"context"
	"sort"

	"github.com/pathwise/pathwise/internal/skillgraph"
)

// Two deliberately different prerequisite policies. The strict ratio is
// the unlock rule; the softer ratio only surfaces "almost there"
// candidates to the recommender and never unlocks anything.
const (
	// UnlockPrereqRatio: a skill unlocks iff this fraction of its
	// prerequisites is completed.
	UnlockPrereqRatio = 1.0
	// UnlockablePrereqRatio: a locked skill with at least this fraction
	// of prerequisites completed is reported as unlockable.
	UnlockablePrereqRatio = 0.5
)

// gapReportFloor: gaps at or below this size are not reported.
const gapReportFloor = 0.3

// Urgency components, additive and capped at 1.0.
const (
	urgencyPrereqOfLocked = 0.4
	urgencyInFocus        = 0.3
	urgencyFoundational   = 0.3
)

// SkillGap is an unlocked-but-incomplete skill with how far the user is
// from completing it and how much that matters right now.
type SkillGap struct {
	SkillID string
	Gap     float64
	Urgency float64
	Node    skillgraph.SkillNode
}

// Priority ranks gaps: the product, not either factor alone, decides. A
// huge gap in an unimportant skill ranks below a modest gap in a
// critical one.
func (g SkillGap) Priority() float64 { return g.Gap * g.Urgency }

// IdentifySkillGaps reports every unlocked-but-incomplete skill whose gap
// exceeds the floor, sorted by priority descending.
func (t *Tracker) IdentifySkillGaps(ctx context.Context, userID string) ([]SkillGap, error) {
	lock := t.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := t.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return identifyGaps(entry), nil
}

func identifyGaps(entry *userEntry) []SkillGap {
	var gaps []SkillGap
	for _, subject := range sortedKeys(entry.indices) {
		idx := entry.indices[subject]
		tree := idx.Tree()
		for _, n := range tree.Nodes {
			if !n.IsUnlocked || n.IsCompleted {
				continue
			}
			gap := 1 - n.CurrentMastery
			if gap <= gapReportFloor {
				continue
			}

			urgency := 0.0
			if idx.IsPrereqOfLocked(n.ID) {
				urgency += urgencyPrereqOfLocked
			}
			if tree.InFocus(n.ID) {
				urgency += urgencyInFocus
			}
			if n.Category == skillgraph.CategoryFoundational {
				urgency += urgencyFoundational
			}
			if urgency > 1 {
				urgency = 1
			}

			gaps = append(gaps, SkillGap{SkillID: n.ID, Gap: gap, Urgency: urgency, Node: *n})
		}
	}

	sort.Slice(gaps, func(i, j int) bool {
		pi, pj := gaps[i].Priority(), gaps[j].Priority()
		if pi != pj {
			return pi > pj
		}
		if gaps[i].Gap != gaps[j].Gap {
			return gaps[i].Gap > gaps[j].Gap
		}
		return gaps[i].SkillID < gaps[j].SkillID
	})
	return gaps
}

// UnlockableSkills returns locked skills with at least
// UnlockablePrereqRatio of their prerequisites completed.
func (t *Tracker) UnlockableSkills(ctx context.Context, userID string) ([]skillgraph.SkillNode, error) {
	lock := t.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := t.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return unlockableSkills(entry), nil
}

func unlockableSkills(entry *userEntry) []skillgraph.SkillNode {
	var out []skillgraph.SkillNode
	for _, subject := range sortedKeys(entry.indices) {
		idx := entry.indices[subject]
		for _, n := range idx.Tree().Nodes {
			if n.IsUnlocked {
				continue
			}
			completed, total := idx.PrereqsCompleted(n.ID)
			if total == 0 {
				continue
			}
			if float64(completed)/float64(total) >= UnlockablePrereqRatio {
				out = append(out, *n)
			}
		}
	}
	return out
}

// Snapshot is a read-only view built for one recommendation request.
// Everything is a copy; recommendation algorithms never touch tracker
// state.
type Snapshot struct {
	Profile *UserMasteryProfile
	// Gaps is the priority-sorted gap list.
	Gaps []SkillGap
	// Unlockable lists locked skills close to unlocking.
	Unlockable []skillgraph.SkillNode
	// Progression lists unlocked, incomplete skills in recommended work
	// order: focus skills first, then by unlock impact.
	Progression []skillgraph.SkillNode
	// RustySkills lists completed skills flagged for review.
	RustySkills []skillgraph.SkillNode
}

// Snapshot builds the recommendation view for a user.
func (t *Tracker) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	lock := t.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := t.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Profile:    entry.profile.Clone(),
		Gaps:       identifyGaps(entry),
		Unlockable: unlockableSkills(entry),
	}

	for _, subject := range sortedKeys(entry.indices) {
		idx := entry.indices[subject]
		tree := idx.Tree()
		for _, n := range tree.Nodes {
			if n.IsRusty {
				snap.RustySkills = append(snap.RustySkills, *n)
			}
			if n.IsUnlocked && !n.IsCompleted {
				snap.Progression = append(snap.Progression, *n)
			}
		}
	}

	// Progression order: focus first, then most dependents (unlock
	// impact), then easiest, then ID.
	prog := snap.Progression
	sort.SliceStable(prog, func(i, j int) bool {
		ti := entry.profile.Trees[prog[i].SubjectArea]
		tj := entry.profile.Trees[prog[j].SubjectArea]
		fi, fj := ti.InFocus(prog[i].ID), tj.InFocus(prog[j].ID)
		if fi != fj {
			return fi
		}
		di := len(entry.indices[prog[i].SubjectArea].Dependents(prog[i].ID))
		dj := len(entry.indices[prog[j].SubjectArea].Dependents(prog[j].ID))
		if di != dj {
			return di > dj
		}
		if prog[i].Difficulty != prog[j].Difficulty {
			return prog[i].Difficulty < prog[j].Difficulty
		}
		return prog[i].ID < prog[j].ID
	})

	return snap, nil
}

func sortedKeys(m map[string]*skillgraph.Index) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
