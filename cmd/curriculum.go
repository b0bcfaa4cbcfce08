package cmd

import (
	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/skillgraph"
)

// Built-in demo curriculum and catalog, used when no --curriculum /
// --catalog files are given. One algebra tree, foundational through
// advanced.

func defaultCurriculum() []*skillgraph.SkillTree {
	threshold := func(score float64, attempts int) skillgraph.MasteryThreshold {
		return skillgraph.MasteryThreshold{RequiredScore: score, MinimumAttempts: attempts}
	}
	return []*skillgraph.SkillTree{
		{
			SubjectArea:  "algebra",
			CurrentFocus: []string{"algebra_fractions"},
			Nodes: []*skillgraph.SkillNode{
				{
					ID: "algebra_integers", Name: "Integers", SubjectArea: "algebra",
					Category: skillgraph.CategoryFoundational, Difficulty: 1,
					Keywords:  []string{"negative", "number line"},
					Threshold: threshold(0.75, 2), EstimatedMinutes: 45,
				},
				{
					ID: "algebra_fractions", Name: "Fractions", SubjectArea: "algebra",
					Category: skillgraph.CategoryFoundational, Difficulty: 2,
					Keywords:  []string{"numerator", "denominator"},
					Threshold: threshold(0.8, 2), EstimatedMinutes: 60,
				},
				{
					ID: "algebra_decimals", Name: "Decimals", SubjectArea: "algebra",
					Category: skillgraph.CategoryFoundational, Difficulty: 2,
					Keywords:  []string{"place value", "rounding"},
					Threshold: threshold(0.8, 2), EstimatedMinutes: 50,
				},
				{
					ID: "algebra_expressions", Name: "Expressions", SubjectArea: "algebra",
					Category: skillgraph.CategoryIntermediate, Difficulty: 3,
					Keywords:      []string{"variable", "simplify"},
					Prerequisites: []string{"algebra_integers"},
					Threshold:     threshold(0.8, 3), EstimatedMinutes: 70,
				},
				{
					ID: "algebra_linear_equations", Name: "Linear Equations", SubjectArea: "algebra",
					Category: skillgraph.CategoryIntermediate, Difficulty: 4,
					Keywords:      []string{"solve", "balance"},
					Prerequisites: []string{"algebra_fractions", "algebra_expressions"},
					Threshold:     threshold(0.8, 3), EstimatedMinutes: 90,
				},
				{
					ID: "algebra_inequalities", Name: "Inequalities", SubjectArea: "algebra",
					Category: skillgraph.CategoryIntermediate, Difficulty: 4,
					Keywords:      []string{"greater", "less", "interval"},
					Prerequisites: []string{"algebra_expressions"},
					Threshold:     threshold(0.8, 3), EstimatedMinutes: 60,
				},
				{
					ID: "algebra_systems", Name: "Systems of Equations", SubjectArea: "algebra",
					Category: skillgraph.CategoryAdvanced, Difficulty: 6,
					Keywords:      []string{"substitution", "elimination"},
					Prerequisites: []string{"algebra_linear_equations"},
					Threshold:     threshold(0.85, 3), EstimatedMinutes: 120,
				},
				{
					ID: "algebra_quadratics", Name: "Quadratic Equations", SubjectArea: "algebra",
					Category: skillgraph.CategoryAdvanced, Difficulty: 7,
					Keywords:      []string{"parabola", "factoring", "roots"},
					Prerequisites: []string{"algebra_linear_equations", "algebra_decimals"},
					Threshold:     threshold(0.85, 4), EstimatedMinutes: 150,
				},
			},
			LearningPaths: []skillgraph.LearningPath{
				{
					Name: "Equations track",
					SkillIDs: []string{
						"algebra_integers", "algebra_expressions",
						"algebra_linear_equations", "algebra_systems",
					},
				},
			},
		},
	}
}

func defaultCatalog() []catalog.ContentItem {
	return []catalog.ContentItem{
		{ID: "alg-001", Title: "Working with Integers", Subject: "algebra", ContentType: catalog.TypeLesson, Difficulty: 1, EstimatedMinutes: 20},
		{ID: "alg-002", Title: "Integer Practice Set", Subject: "algebra", ContentType: catalog.TypeExercise, Difficulty: 1, EstimatedMinutes: 15},
		{ID: "alg-010", Title: "Understanding Fractions", Subject: "algebra", ContentType: catalog.TypeLesson, Difficulty: 2, EstimatedMinutes: 25},
		{ID: "alg-011", Title: "Fraction Drills", Subject: "algebra", ContentType: catalog.TypeExercise, Difficulty: 2, EstimatedMinutes: 20},
		{ID: "alg-012", Title: "Fractions in the Kitchen", Subject: "algebra", ContentType: catalog.TypeProject, Difficulty: 2, EstimatedMinutes: 40},
		{ID: "alg-020", Title: "Decimals and Place Value", Subject: "algebra", ContentType: catalog.TypeLesson, Difficulty: 2, EstimatedMinutes: 20},
		{ID: "alg-021", Title: "Decimal Rounding Video", Subject: "algebra", ContentType: catalog.TypeVideo, Difficulty: 2, EstimatedMinutes: 10},
		{ID: "alg-030", Title: "Simplifying Expressions", Subject: "algebra", ContentType: catalog.TypeLesson, Difficulty: 3, EstimatedMinutes: 30},
		{ID: "alg-031", Title: "Expressions Workout", Subject: "algebra", ContentType: catalog.TypeExercise, Difficulty: 3, EstimatedMinutes: 25},
		{ID: "alg-040", Title: "Solving Linear Equations", Subject: "algebra", ContentType: catalog.TypeLesson, Difficulty: 4, EstimatedMinutes: 35},
		{ID: "alg-041", Title: "Linear Equations Quiz", Subject: "algebra", ContentType: catalog.TypeAssessment, Difficulty: 4, EstimatedMinutes: 20},
		{ID: "alg-042", Title: "Balance Scale Equations Video", Subject: "algebra", ContentType: catalog.TypeVideo, Difficulty: 4, EstimatedMinutes: 12},
		{ID: "alg-050", Title: "Inequalities on the Number Line", Subject: "algebra", ContentType: catalog.TypeLesson, Difficulty: 4, EstimatedMinutes: 30},
		{ID: "alg-060", Title: "Systems of Equations Deep Dive", Subject: "algebra", ContentType: catalog.TypeReading, Difficulty: 6, EstimatedMinutes: 45},
		{ID: "alg-061", Title: "Systems of Equations Project", Subject: "algebra", ContentType: catalog.TypeProject, Difficulty: 6, EstimatedMinutes: 90},
		{ID: "alg-070", Title: "Quadratic Equations and Parabolas", Subject: "algebra", ContentType: catalog.TypeLesson, Difficulty: 7, EstimatedMinutes: 40},
		{ID: "alg-071", Title: "Factoring Quadratics Practice", Subject: "algebra", ContentType: catalog.TypeExercise, Difficulty: 7, EstimatedMinutes: 30},
	}
}
