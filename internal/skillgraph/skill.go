package skillgraph

// Category classifies a skill by curricular depth.
type Category string

const (
	CategoryFoundational Category = "foundational"
	CategoryIntermediate Category = "intermediate"
	CategoryAdvanced     Category = "advanced"
)

// AllCategories returns all categories in display order.
func AllCategories() []Category {
	return []Category{CategoryFoundational, CategoryIntermediate, CategoryAdvanced}
}

// DisplayName returns a human-readable label for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryFoundational:
		return "Foundational"
	case CategoryIntermediate:
		return "Intermediate"
	case CategoryAdvanced:
		return "Advanced"
	default:
		return string(c)
	}
}

// MasteryThreshold defines what it takes to mark a skill complete.
type MasteryThreshold struct {
	// RequiredScore is the baseline mastery score in (0, 1].
	// The tracker may shift it adaptively per user.
	RequiredScore float64 `json:"required_score"`
	// MinimumAttempts is the minimum number of evidence submissions before
	// completion is considered.
	MinimumAttempts int `json:"minimum_attempts"`
	// AcceptedEvidence lists the evidence types that count toward this skill.
	// Empty means all types are accepted.
	AcceptedEvidence []string `json:"accepted_evidence,omitempty"`
}

// SkillNode is a single node in the prerequisite DAG.
//
// Graph structure (ID, Prerequisites) is shared curriculum data; the
// mastery fields (CurrentMastery, IsUnlocked, IsCompleted) are per-user
// state and are only meaningful inside a user's profile copy of the tree.
// Edges are stored as ID sets, never pointers, so trees stay plain data
// and serialize cleanly.
type SkillNode struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	SubjectArea string   `json:"subject_area"`
	// Difficulty ranges 1 (introductory) to 10 (expert).
	Difficulty    int      `json:"difficulty"`
	Keywords      []string `json:"keywords,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`

	CurrentMastery float64 `json:"current_mastery"`
	IsUnlocked     bool    `json:"is_unlocked"`
	IsCompleted    bool    `json:"is_completed"`
	// IsRusty flags a completed skill whose recent review performance has
	// dropped. A flag only; it never lowers CurrentMastery.
	IsRusty bool `json:"is_rusty,omitempty"`
	// Attempts counts evidence submissions applied to this node.
	Attempts int `json:"attempts"`

	Threshold MasteryThreshold `json:"threshold"`
	// EstimatedMinutes is the estimated time to master the skill.
	EstimatedMinutes int `json:"estimated_minutes"`
}

// LearningPath is a recommended traversal through a tree's skills.
type LearningPath struct {
	Name     string   `json:"name"`
	SkillIDs []string `json:"skill_ids"`
}

// SkillTree groups the skills of one subject area.
type SkillTree struct {
	SubjectArea   string         `json:"subject_area"`
	Nodes         []*SkillNode   `json:"nodes"`
	LearningPaths []LearningPath `json:"learning_paths,omitempty"`
	// CurrentFocus holds the skill IDs the user is actively working on.
	CurrentFocus []string `json:"current_focus,omitempty"`
}

// Node returns the node with the given ID, or nil.
func (t *SkillTree) Node(id string) *SkillNode {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// TotalSkills returns the number of skills in the tree.
func (t *SkillTree) TotalSkills() int { return len(t.Nodes) }

// CompletedSkills returns the number of completed skills.
func (t *SkillTree) CompletedSkills() int {
	count := 0
	for _, n := range t.Nodes {
		if n.IsCompleted {
			count++
		}
	}
	return count
}

// UnlockedSkills returns the number of unlocked skills.
func (t *SkillTree) UnlockedSkills() int {
	count := 0
	for _, n := range t.Nodes {
		if n.IsUnlocked {
			count++
		}
	}
	return count
}

// InFocus reports whether the given skill is in the tree's focus set.
func (t *SkillTree) InFocus(id string) bool {
	for _, f := range t.CurrentFocus {
		if f == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the tree. Profile materialization uses this
// so per-user state never aliases the canonical curriculum tree.
func (t *SkillTree) Clone() *SkillTree {
	out := &SkillTree{
		SubjectArea:   t.SubjectArea,
		Nodes:         make([]*SkillNode, len(t.Nodes)),
		LearningPaths: make([]LearningPath, len(t.LearningPaths)),
		CurrentFocus:  append([]string(nil), t.CurrentFocus...),
	}
	for i, n := range t.Nodes {
		cp := *n
		cp.Keywords = append([]string(nil), n.Keywords...)
		cp.Prerequisites = append([]string(nil), n.Prerequisites...)
		cp.Threshold.AcceptedEvidence = append([]string(nil), n.Threshold.AcceptedEvidence...)
		out.Nodes[i] = &cp
	}
	for i, p := range t.LearningPaths {
		out.LearningPaths[i] = LearningPath{
			Name:     p.Name,
			SkillIDs: append([]string(nil), p.SkillIDs...),
		}
	}
	return out
}
