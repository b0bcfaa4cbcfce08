package skillgraph

import (
	"strings"
	"testing"
)

func TestValidateTree(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SkillTree)
		wantErr string
	}{
		{
			name:   "valid tree",
			mutate: func(*SkillTree) {},
		},
		{
			name: "duplicate id",
			mutate: func(tr *SkillTree) {
				tr.Nodes = append(tr.Nodes, testNode("a"))
			},
			wantErr: "duplicate skill ID",
		},
		{
			name: "dangling prerequisite",
			mutate: func(tr *SkillTree) {
				tr.Nodes[1].Prerequisites = []string{"ghost"}
			},
			wantErr: "nonexistent prerequisite",
		},
		{
			name: "self prerequisite",
			mutate: func(tr *SkillTree) {
				tr.Nodes[0].Prerequisites = []string{"a"}
			},
			wantErr: "lists itself",
		},
		{
			name: "difficulty out of range",
			mutate: func(tr *SkillTree) {
				tr.Nodes[0].Difficulty = 11
			},
			wantErr: "difficulty must be 1-10",
		},
		{
			name: "required score out of range",
			mutate: func(tr *SkillTree) {
				tr.Nodes[0].Threshold.RequiredScore = 1.5
			},
			wantErr: "required score",
		},
		{
			name: "completed but locked",
			mutate: func(tr *SkillTree) {
				tr.Nodes[0].IsCompleted = true
			},
			wantErr: "completed but locked",
		},
		{
			name: "subject mismatch",
			mutate: func(tr *SkillTree) {
				tr.Nodes[0].SubjectArea = "geometry"
			},
			wantErr: "does not match tree subject",
		},
		{
			name: "learning path references unknown skill",
			mutate: func(tr *SkillTree) {
				tr.LearningPaths = []LearningPath{{Name: "basics", SkillIDs: []string{"ghost"}}}
			},
			wantErr: "learning path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := testTree(testNode("a"), testNode("b", "a"))
			tt.mutate(tree)

			err := validateTree(tree)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validateTree() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("validateTree() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateTree() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
