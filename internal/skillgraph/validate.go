package skillgraph

import (
	"fmt"
	"sort"
)

// validateTree performs all structural checks on a tree. Returns an
// *InvalidGraphError describing every problem found, or nil if valid.
// Cycle detection is handled separately by NewIndex so that a cycle error
// carries the offending node set.
func validateTree(tree *SkillTree) error {
	var problems []string

	if tree.SubjectArea == "" {
		problems = append(problems, "subject area is empty")
	}

	idSet := make(map[string]bool, len(tree.Nodes))
	for _, n := range tree.Nodes {
		if n.ID == "" {
			problems = append(problems, "skill with empty ID")
			continue
		}
		if idSet[n.ID] {
			problems = append(problems, fmt.Sprintf("duplicate skill ID: %q", n.ID))
		}
		idSet[n.ID] = true
	}

	for _, n := range tree.Nodes {
		if n.SubjectArea != tree.SubjectArea {
			problems = append(problems, fmt.Sprintf("skill %q subject %q does not match tree subject %q",
				n.ID, n.SubjectArea, tree.SubjectArea))
		}
		if n.Difficulty < 1 || n.Difficulty > 10 {
			problems = append(problems, fmt.Sprintf("skill %q difficulty must be 1-10, got %d", n.ID, n.Difficulty))
		}
		if n.CurrentMastery < 0 || n.CurrentMastery > 1 {
			problems = append(problems, fmt.Sprintf("skill %q mastery must be in [0, 1], got %f", n.ID, n.CurrentMastery))
		}
		if n.IsCompleted && !n.IsUnlocked {
			problems = append(problems, fmt.Sprintf("skill %q is completed but locked", n.ID))
		}
		if n.Threshold.RequiredScore <= 0 || n.Threshold.RequiredScore > 1 {
			problems = append(problems, fmt.Sprintf("skill %q required score must be in (0, 1], got %f",
				n.ID, n.Threshold.RequiredScore))
		}
		if n.Threshold.MinimumAttempts < 1 {
			problems = append(problems, fmt.Sprintf("skill %q minimum attempts must be >= 1, got %d",
				n.ID, n.Threshold.MinimumAttempts))
		}
		seen := make(map[string]bool, len(n.Prerequisites))
		for _, prereqID := range n.Prerequisites {
			if !idSet[prereqID] {
				problems = append(problems, fmt.Sprintf("skill %q references nonexistent prerequisite %q", n.ID, prereqID))
			}
			if prereqID == n.ID {
				problems = append(problems, fmt.Sprintf("skill %q lists itself as a prerequisite", n.ID))
			}
			if seen[prereqID] {
				problems = append(problems, fmt.Sprintf("skill %q lists prerequisite %q twice", n.ID, prereqID))
			}
			seen[prereqID] = true
		}
	}

	for _, p := range tree.LearningPaths {
		for _, id := range p.SkillIDs {
			if !idSet[id] {
				problems = append(problems, fmt.Sprintf("learning path %q references nonexistent skill %q", p.Name, id))
			}
		}
	}
	for _, id := range tree.CurrentFocus {
		if !idSet[id] {
			problems = append(problems, fmt.Sprintf("focus references nonexistent skill %q", id))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return &InvalidGraphError{Subject: tree.SubjectArea, Problems: problems}
	}
	return nil
}
