package compare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_AgreesWithEqual(t *testing.T) {
	pairs := [][2]any{
		{1, 1},
		{1, 2},
		{"a", "a"},
		{[]int{1, 2}, []int{1, 2}},
		{[]int{1, 2}, []int{1, 3}},
		{map[string]int{"a": 1}, map[string]int{"a": 1}},
		{map[string]int{"a": 1}, map[string]int{"b": 1}},
		{map[string]any{"a": 1, "b": map[string]int{"c": 2}}, map[string]any{"a": 1, "b": map[string]int{"c": 2}}},
		{struct{ A int }{1}, struct{ A int }{2}},
		{map[any]any{1: "x"}, map[any]any{"1": "x"}},
		{map[any]struct{}{1: {}}, map[any]struct{}{"1": {}}},
		{1, "1"},
		{nil, nil},
	}
	for _, p := range pairs {
		eq, err := Equal(p[0], p[1])
		require.NoError(t, err)
		res, err := Diff(p[0], p[1])
		require.NoError(t, err)
		assert.Equal(t, !eq, res.HasDifferences, "diff/equal disagree for %v vs %v", p[0], p[1])
	}
}

func TestDiff_EqualValuesProduceNoNodes(t *testing.T) {
	res, err := Diff(map[string]int{"a": 1}, map[string]int{"a": 1})
	require.NoError(t, err)
	assert.False(t, res.HasDifferences)
	assert.Empty(t, res.Nodes)
	assert.Empty(t, res.Formatted)
}

func TestDiff_EditedScalarEntry(t *testing.T) {
	res, err := Diff(map[string]int{"a": 1}, map[string]int{"a": 2})
	require.NoError(t, err)
	require.True(t, res.HasDifferences)

	require.Len(t, res.Nodes, 1)
	n := res.Nodes[0]
	assert.Equal(t, OpEdited, n.Op)
	assert.Equal(t, "a", n.Path.String())
	assert.Equal(t, 1, n.Old)
	assert.Equal(t, 2, n.New)

	assert.Contains(t, res.Formatted, "- a: 1")
	assert.Contains(t, res.Formatted, "+ a: 2")
}

func TestDiff_AddedAndRemovedKeys(t *testing.T) {
	res, err := Diff(
		map[string]int{"gone": 1, "same": 2},
		map[string]int{"same": 2, "added": 3},
	)
	require.NoError(t, err)
	require.True(t, res.HasDifferences)

	ops := map[Op]string{}
	for _, n := range res.Nodes {
		ops[n.Op] = n.Path.String()
	}
	assert.Equal(t, "gone", ops[OpDeleted])
	assert.Equal(t, "added", ops[OpNew])

	assert.Contains(t, res.Formatted, "- gone: 1")
	assert.Contains(t, res.Formatted, "+ added: 3")
	// Unchanged entries stay as plain context.
	assert.Contains(t, res.Formatted, "  same: 2")
}

func TestDiff_NestedPath(t *testing.T) {
	res, err := Diff(
		map[string]any{"a": 1, "b": map[string]int{"c": 2}},
		map[string]any{"a": 1, "b": map[string]int{"c": 3}},
	)
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, "b.c", res.Nodes[0].Path.String())
	assert.Contains(t, res.Formatted, "- c: 2")
	assert.Contains(t, res.Formatted, "+ c: 3")
}

func TestDiff_ArrayGrowthAndShrinkage(t *testing.T) {
	res, err := Diff([]int{1, 2, 3}, []int{1, 2})
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, OpArrayRemove, res.Nodes[0].Op)
	assert.Equal(t, "[2]", res.Nodes[0].Path.String())
	assert.Equal(t, 3, res.Nodes[0].Old)

	res, err = Diff([]int{1}, []int{1, 9})
	require.NoError(t, err)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, OpArrayAdd, res.Nodes[0].Op)
	assert.Equal(t, 9, res.Nodes[0].New)
}

func TestDiff_TypeMismatchRendersBeforeAfter(t *testing.T) {
	res, err := Diff(map[string]int{"a": 1}, []int{1})
	require.NoError(t, err)
	require.True(t, res.HasDifferences)

	lines := strings.Split(res.Formatted, "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "- "), "old side first: %q", lines[0])
	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "+ "), "new side last: %q", last)
}

func TestDiff_RootPrimitiveMismatch(t *testing.T) {
	res, err := Diff(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "-1 +2", res.Formatted)
}

func TestDiff_SetMembership(t *testing.T) {
	res, err := Diff(
		map[string]struct{}{"a": {}, "b": {}},
		map[string]struct{}{"b": {}, "c": {}},
	)
	require.NoError(t, err)
	require.Len(t, res.Nodes, 2)
	assert.Contains(t, res.Formatted, "Set{")
	assert.Contains(t, res.Formatted, `- "a"`)
	assert.Contains(t, res.Formatted, `+ "c"`)
}

func TestDiff_MixedKindKeysWithOneLabel(t *testing.T) {
	// The number 1 and the string "1" render the same entry label but are
	// distinct keys; they must surface as a removal plus an addition, never
	// as a matched pair.
	a := map[any]any{1: "x"}
	b := map[any]any{"1": "x"}

	res, err := Diff(a, b)
	require.NoError(t, err)
	assert.True(t, res.HasDifferences)
	require.Len(t, res.Nodes, 2)
	assert.Equal(t, OpDeleted, res.Nodes[0].Op)
	assert.Equal(t, OpNew, res.Nodes[1].Op)
}

func TestDiff_SetMembershipByElementNotLabel(t *testing.T) {
	res, err := Diff(map[any]struct{}{1: {}}, map[any]struct{}{"1": {}})
	require.NoError(t, err)
	assert.True(t, res.HasDifferences)
	require.Len(t, res.Nodes, 2)
	assert.Equal(t, OpDeleted, res.Nodes[0].Op)
	assert.Equal(t, OpNew, res.Nodes[1].Op)
}

func TestDiff_CircularFails(t *testing.T) {
	a := []any{nil}
	a[0] = a
	_, err := Diff(a, []any{1})
	var cErr *CircularReferenceError
	require.ErrorAs(t, err, &cErr)
}
