package bvh

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDumpTwoLeaves(t *testing.T) {
	tree, err := Build([]IndexedBox{
		{BoundingBox{0, 0, 0, 1, 1, 1}, 0},
		{BoundingBox{2, 2, 2, 3, 3, 3}, 1},
	})
	require.NoError(t, err)

	exp := strings.Join([]string{
		"1 - <Node Z> (0.00/0.00/0.00; 3.00/3.00/3.00 (area: 54.00))",
		"├ 0 - <Node L> ([0], 0.00/0.00/0.00; 1.00/1.00/1.00 (area: 6.00))",
		"└ 0 - <Node R> ([1], 2.00/2.00/2.00; 3.00/3.00/3.00 (area: 6.00))",
		"",
	}, "\n")
	require.Equal(t, exp, tree.Dump())
}

func TestDumpNestedIndent(t *testing.T) {
	a := IndexedBox{BoundingBox{0, 0, 0, 1, 1, 1}, 0}
	b := IndexedBox{BoundingBox{10, 10, 10, 11, 11, 11}, 1}
	c := IndexedBox{BoundingBox{20, 20, 20, 21, 21, 21}, 2}

	tree := newTree(a, 3)
	tree.noRotate = true
	tree.insertSibling(tree.Root(), b)
	tree.insertSibling(tree.Root(), c)

	lines := strings.Split(strings.TrimSuffix(tree.Dump(), "\n"), "\n")
	require.Len(t, lines, 5)
	require.True(t, strings.HasPrefix(lines[0], "2 - <Node Z> ("))
	require.True(t, strings.HasPrefix(lines[1], "├ 1 - <Node L> ("))
	require.True(t, strings.HasPrefix(lines[2], "│ ├ 0 - <Node LL> ([0], "))
	require.True(t, strings.HasPrefix(lines[3], "│ └ 0 - <Node LR> ([1], "))
	require.True(t, strings.HasPrefix(lines[4], "└ 0 - <Node R> ([2], "))
}
