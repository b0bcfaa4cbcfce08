package skillgraph

import (
	"slices"
	"sort"
)

// Index holds precomputed graph indices for one skill tree: reverse
// (dependent) edges, topological order, and roots. Trees stay plain data;
// anything derived from the edge structure lives here.
type Index struct {
	tree       *SkillTree
	byID       map[string]*SkillNode
	dependents map[string][]string
	topoOrder  []string
	topoIndex  map[string]int
	roots      []string
}

// NewIndex builds the indices for a tree, including topological order via
// Kahn's algorithm. Returns *InvalidGraphError if the prerequisite edges
// contain a cycle.
func NewIndex(tree *SkillTree) (*Index, error) {
	idx := &Index{
		tree:       tree,
		byID:       make(map[string]*SkillNode, len(tree.Nodes)),
		dependents: make(map[string][]string),
		topoIndex:  make(map[string]int, len(tree.Nodes)),
	}

	for _, n := range tree.Nodes {
		idx.byID[n.ID] = n
	}

	// Reverse edges.
	for _, n := range tree.Nodes {
		for _, prereqID := range n.Prerequisites {
			idx.dependents[prereqID] = append(idx.dependents[prereqID], n.ID)
		}
	}

	// Kahn's algorithm. Initial queue and dependent fan-out are sorted so
	// the order is deterministic across runs.
	inDegree := make(map[string]int, len(tree.Nodes))
	for _, n := range tree.Nodes {
		inDegree[n.ID] = len(n.Prerequisites)
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		idx.topoIndex[id] = len(idx.topoOrder)
		idx.topoOrder = append(idx.topoOrder, id)

		deps := slices.Clone(idx.dependents[id])
		sort.Strings(deps)
		for _, depID := range deps {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if len(idx.topoOrder) < len(tree.Nodes) {
		var cycle []string
		for _, n := range tree.Nodes {
			if inDegree[n.ID] > 0 {
				cycle = append(cycle, n.ID)
			}
		}
		sort.Strings(cycle)
		return nil, &InvalidGraphError{Subject: tree.SubjectArea, Cycle: cycle}
	}

	for _, n := range tree.Nodes {
		if len(n.Prerequisites) == 0 {
			idx.roots = append(idx.roots, n.ID)
		}
	}
	sort.Strings(idx.roots)

	return idx, nil
}

// Tree returns the indexed tree.
func (idx *Index) Tree() *SkillTree { return idx.tree }

// Node returns the node with the given ID, or nil.
func (idx *Index) Node(id string) *SkillNode { return idx.byID[id] }

// Dependents returns the IDs of skills that directly depend on the given
// skill, in deterministic order.
func (idx *Index) Dependents(id string) []string {
	deps := slices.Clone(idx.dependents[id])
	sort.Strings(deps)
	return deps
}

// Roots returns IDs of skills with no prerequisites.
func (idx *Index) Roots() []string { return slices.Clone(idx.roots) }

// TopologicalOrder returns all skill IDs in a valid topological order.
func (idx *Index) TopologicalOrder() []string { return slices.Clone(idx.topoOrder) }

// PrereqsCompleted counts how many of the skill's prerequisites are
// completed in the current tree state. The second return is the total
// prerequisite count.
func (idx *Index) PrereqsCompleted(id string) (completed, total int) {
	n := idx.byID[id]
	if n == nil {
		return 0, 0
	}
	for _, prereqID := range n.Prerequisites {
		total++
		if p := idx.byID[prereqID]; p != nil && p.IsCompleted {
			completed++
		}
	}
	return completed, total
}

// AllPrereqsCompleted reports whether every prerequisite of the skill is
// completed. Root skills trivially satisfy this.
func (idx *Index) AllPrereqsCompleted(id string) bool {
	completed, total := idx.PrereqsCompleted(id)
	return completed == total
}

// IsPrereqOfLocked reports whether the skill is a prerequisite of any
// currently locked skill. Gap urgency scoring uses this.
func (idx *Index) IsPrereqOfLocked(id string) bool {
	for _, depID := range idx.dependents[id] {
		if dep := idx.byID[depID]; dep != nil && !dep.IsUnlocked {
			return true
		}
	}
	return false
}
