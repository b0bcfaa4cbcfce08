package skillgraph

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Store holds the canonical skill trees, one per subject area. It is an
// explicit object with caller-controlled lifecycle; nothing in the package
// is a singleton.
//
// Reads serve an immutable snapshot and never block. Upserts validate the
// incoming tree (including the DAG invariant), rebuild indices, and swap
// in a fresh snapshot under a writer lock.
type Store struct {
	mu    sync.Mutex // serializes writers
	state atomic.Pointer[storeState]
}

type storeState struct {
	trees map[string]*Index
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{}
	s.state.Store(&storeState{trees: map[string]*Index{}})
	return s
}

// UpsertSkillTree validates and installs a tree for its subject area,
// replacing any existing tree. Returns *InvalidGraphError if the tree is
// structurally invalid or its prerequisites contain a cycle.
func (s *Store) UpsertSkillTree(tree *SkillTree) error {
	if err := validateTree(tree); err != nil {
		return err
	}

	// Clone before indexing so later caller mutations can't corrupt the
	// installed snapshot.
	owned := tree.Clone()
	idx, err := NewIndex(owned)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.state.Load()
	next := &storeState{trees: make(map[string]*Index, len(old.trees)+1)}
	for subject, t := range old.trees {
		next.trees[subject] = t
	}
	next.trees[owned.SubjectArea] = idx
	s.state.Store(next)
	return nil
}

// GetSkillTree returns the indexed tree for a subject area.
// Returns ErrNotFound if the subject has no tree.
func (s *Store) GetSkillTree(subject string) (*Index, error) {
	idx, ok := s.state.Load().trees[subject]
	if !ok {
		return nil, fmt.Errorf("skill tree for subject %q: %w", subject, ErrNotFound)
	}
	return idx, nil
}

// GetSkillNode looks a skill up by ID across all trees.
// Returns ErrNotFound if no tree contains it.
func (s *Store) GetSkillNode(id string) (*SkillNode, error) {
	for _, idx := range s.state.Load().trees {
		if n := idx.Node(id); n != nil {
			return n, nil
		}
	}
	return nil, fmt.Errorf("skill %q: %w", id, ErrNotFound)
}

// Subjects returns all subject areas with a tree, sorted.
func (s *Store) Subjects() []string {
	trees := s.state.Load().trees
	out := make([]string, 0, len(trees))
	for subject := range trees {
		out = append(out, subject)
	}
	sort.Strings(out)
	return out
}
