package skillgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(id string, prereqs ...string) *SkillNode {
	return &SkillNode{
		ID:          id,
		Name:        id,
		Category:    CategoryFoundational,
		SubjectArea: "algebra",
		Difficulty:  3,
		Threshold: MasteryThreshold{
			RequiredScore:   0.8,
			MinimumAttempts: 1,
		},
		Prerequisites: prereqs,
	}
}

func testTree(nodes ...*SkillNode) *SkillTree {
	return &SkillTree{SubjectArea: "algebra", Nodes: nodes}
}

func TestNewIndex_TopologicalOrder(t *testing.T) {
	tree := testTree(
		testNode("algebra_linear_equations", "algebra_variables"),
		testNode("algebra_variables"),
		testNode("algebra_quadratics", "algebra_linear_equations"),
	)

	idx, err := NewIndex(tree)
	require.NoError(t, err)

	order := idx.TopologicalOrder()
	require.Len(t, order, 3)
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["algebra_variables"], pos["algebra_linear_equations"])
	assert.Less(t, pos["algebra_linear_equations"], pos["algebra_quadratics"])
}

func TestNewIndex_CycleDetected(t *testing.T) {
	tree := testTree(
		testNode("a", "c"),
		testNode("b", "a"),
		testNode("c", "b"),
	)

	_, err := NewIndex(tree)
	require.Error(t, err)

	var invalid *InvalidGraphError
	require.ErrorAs(t, err, &invalid)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, invalid.Cycle)
}

func TestNewIndex_CycleSparesAcyclicNodes(t *testing.T) {
	tree := testTree(
		testNode("root"),
		testNode("a", "b"),
		testNode("b", "a"),
	)

	_, err := NewIndex(tree)
	var invalid *InvalidGraphError
	require.ErrorAs(t, err, &invalid)
	assert.NotContains(t, invalid.Cycle, "root")
}

func TestIndex_Dependents(t *testing.T) {
	tree := testTree(
		testNode("base"),
		testNode("mid", "base"),
		testNode("top", "base", "mid"),
	)

	idx, err := NewIndex(tree)
	require.NoError(t, err)

	assert.Equal(t, []string{"mid", "top"}, idx.Dependents("base"))
	assert.Equal(t, []string{"top"}, idx.Dependents("mid"))
	assert.Empty(t, idx.Dependents("top"))
	assert.Equal(t, []string{"base"}, idx.Roots())
}

func TestIndex_PrereqsCompleted(t *testing.T) {
	a := testNode("a")
	b := testNode("b")
	c := testNode("c", "a", "b")
	a.IsUnlocked = true
	a.IsCompleted = true
	b.IsUnlocked = true

	idx, err := NewIndex(testTree(a, b, c))
	require.NoError(t, err)

	completed, total := idx.PrereqsCompleted("c")
	assert.Equal(t, 1, completed)
	assert.Equal(t, 2, total)
	assert.False(t, idx.AllPrereqsCompleted("c"))

	b.IsCompleted = true
	assert.True(t, idx.AllPrereqsCompleted("c"))

	// Roots trivially satisfy their (empty) prerequisites.
	assert.True(t, idx.AllPrereqsCompleted("a"))
}

func TestIndex_IsPrereqOfLocked(t *testing.T) {
	a := testNode("a")
	b := testNode("b", "a")
	a.IsUnlocked = true

	idx, err := NewIndex(testTree(a, b))
	require.NoError(t, err)

	assert.True(t, idx.IsPrereqOfLocked("a"))

	b.IsUnlocked = true
	assert.False(t, idx.IsPrereqOfLocked("a"))
}
