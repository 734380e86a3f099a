package bvh

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// Generate boxes with integer coordinates so all area sums are exact.
func randomBoxes(rng *rand.Rand, count int) []IndexedBox {
	boxes := make([]IndexedBox, count)
	for index := range boxes {
		x, y, z := float64(rng.Intn(100)), float64(rng.Intn(100)), float64(rng.Intn(100))
		boxes[index] = IndexedBox{
			Box: BoundingBox{
				X0: x, Y0: y, Z0: z,
				X1: x + float64(rng.Intn(10)),
				Y1: y + float64(rng.Intn(10)),
				Z1: z + float64(rng.Intn(10)),
			},
			Index: index,
		}
	}
	return boxes
}

func unionAll(items []IndexedBox) BoundingBox {
	out := items[0].Box
	for _, item := range items[1:] {
		out = Union(out, item.Box)
	}
	return out
}

// Collect the sorted item indices of all leaves below id.
func leafIndices(tree *Tree[IndexedBox], id NodeID) []int {
	var out []int
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if item, ok := tree.Item(cur); ok {
			out = append(out, item.Index)
			continue
		}
		l, r, _ := tree.Children(cur)
		stack = append(stack, l, r)
	}
	sort.Ints(out)
	return out
}

func TestBuildTwoBoxes(t *testing.T) {
	a := BoundingBox{0, 0, 0, 1, 1, 1}
	b := BoundingBox{2, 2, 2, 3, 3, 3}

	tree, err := Build([]BoundingBox{a, b})
	require.NoError(t, err)
	require.NoError(t, tree.Verify())

	root := tree.Root()
	require.False(t, tree.IsLeaf(root))
	require.Equal(t, BoundingBox{0, 0, 0, 3, 3, 3}, tree.Box(root))
	require.Equal(t, 1, tree.Height(root))
	require.Equal(t, 2, tree.Leaves())
	require.Equal(t, 3, tree.Len())

	l, r, ok := tree.Children(root)
	require.True(t, ok)
	item, ok := tree.Item(l)
	require.True(t, ok)
	require.Equal(t, a, item)
	item, ok = tree.Item(r)
	require.True(t, ok)
	require.Equal(t, b, item)

	require.Equal(t, "Z", tree.Path(root))
	require.Equal(t, "L", tree.Path(l))
	require.Equal(t, "R", tree.Path(r))
	require.Equal(t, root, tree.Parent(l))
	require.Equal(t, NoNode, tree.Parent(root))
}

func TestBuildThreeBoxesNeverIncreasesCost(t *testing.T) {
	boxes := []IndexedBox{
		{BoundingBox{0, 0, 0, 1, 1, 1}, 0},
		{BoundingBox{2, 2, 2, 3, 3, 3}, 1},
		{BoundingBox{10, 10, 10, 11, 11, 11}, 2},
	}

	tree, err := Build(boxes)
	require.NoError(t, err)
	require.NoError(t, tree.Verify())

	unbalanced := newTree(boxes[0], len(boxes))
	unbalanced.noRotate = true
	for _, item := range boxes[1:] {
		unbalanced.insert(item)
	}

	require.LessOrEqual(t, tree.Cost(), unbalanced.Cost())

	// The far box is paired with the subtree holding the two close ones.
	l, r, _ := tree.Children(tree.Root())
	require.Equal(t, []int{0, 1}, leafIndices(tree, l))
	require.Equal(t, []int{2}, leafIndices(tree, r))
	require.Equal(t, 27.0+363.0, tree.Cost())
}

func TestBuildSingleBox(t *testing.T) {
	box := BoundingBox{1, 2, 3, 4, 5, 6}
	tree, err := Build([]BoundingBox{box})
	require.NoError(t, err)
	require.NoError(t, tree.Verify())

	require.Equal(t, 1, tree.Len())
	require.True(t, tree.IsLeaf(tree.Root()))
	require.Equal(t, 0, tree.Height(tree.Root()))
	require.Equal(t, box, tree.Box(tree.Root()))
	require.Zero(t, tree.Cost())
	require.Zero(t, tree.Rotations())
}

func TestBuildEmptyInput(t *testing.T) {
	_, err := Build([]BoundingBox{})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = Build[BoundingBox](nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildInvalidGeometry(t *testing.T) {
	_, err := Build([]BoundingBox{
		{0, 0, 0, 1, 1, 1},
		{0, 0, 0, math.NaN(), 1, 1},
	})
	require.ErrorIs(t, err, ErrInvalidGeometry)

	tree, err := Build([]BoundingBox{{0, 0, 0, 1, 1, 1}})
	require.NoError(t, err)
	require.ErrorIs(t, tree.Insert(BoundingBox{5, 0, 0, 1, 1, 1}), ErrInvalidGeometry)
	require.Equal(t, 1, tree.Len())

	require.NoError(t, tree.Insert(BoundingBox{5, 0, 0, 6, 1, 1}))
	require.Equal(t, 3, tree.Len())
	require.NoError(t, tree.Verify())
}

func TestInvariantsHoldAfterEveryInsertion(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		boxes := randomBoxes(rng, 150)

		tree := newTree(boxes[0], len(boxes))
		for count, item := range boxes[1:] {
			tree.insert(item)
			require.NoError(t, tree.Verify(), "seed %d, after %d insertions", seed, count+1)
			require.Equal(t, count+2, tree.Leaves())
			require.Equal(t, 2*(count+2)-1, tree.Len())
		}

		require.Equal(t, unionAll(boxes), tree.Box(tree.Root()))

		indices := leafIndices(tree, tree.Root())
		require.Len(t, indices, len(boxes))
		for index, got := range indices {
			require.Equal(t, index, got)
		}
	}
}

func TestRootBoxIndependentOfInsertionOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	boxes := randomBoxes(rng, 64)
	expBox := unionAll(boxes)

	for round := 0; round < 10; round++ {
		rng.Shuffle(len(boxes), func(i, j int) { boxes[i], boxes[j] = boxes[j], boxes[i] })
		tree, err := Build(boxes)
		require.NoError(t, err)
		require.Equal(t, expBox, tree.Box(tree.Root()))
		require.Equal(t, len(boxes), tree.Leaves())
	}
}

func TestRotationImprovesUnbalancedTree(t *testing.T) {
	a := IndexedBox{BoundingBox{0, 0, 0, 1, 1, 1}, 0}
	b := IndexedBox{BoundingBox{10, 10, 10, 11, 11, 11}, 1}
	c := IndexedBox{BoundingBox{11, 11, 11, 12, 12, 12}, 2}

	// Force the shape {{a, b}, c}.
	tree := newTree(a, 3)
	tree.noRotate = true
	tree.insertSibling(tree.Root(), b)
	tree.insertSibling(tree.Root(), c)
	require.NoError(t, tree.Verify())
	require.Equal(t, 363.0+432.0, tree.Cost())

	// Moving c next to b and a to the top level is the only improvement.
	tree.rotate(tree.Root())
	require.NoError(t, tree.Verify())
	require.Equal(t, 1, tree.Rotations())
	require.Equal(t, 12.0+432.0, tree.Cost())

	l, r, _ := tree.Children(tree.Root())
	require.Equal(t, []int{1, 2}, leafIndices(tree, l))
	require.Equal(t, []int{0}, leafIndices(tree, r))
	require.Equal(t, 1, tree.Height(l))
	require.Equal(t, 2, tree.Height(tree.Root()))
}

func TestRotationPreservesLeavesAndNeverIncreasesCost(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	boxes := randomBoxes(rng, 100)

	tree := newTree(boxes[0], len(boxes))
	tree.noRotate = true
	for _, item := range boxes[1:] {
		tree.insert(item)
	}
	require.NoError(t, tree.Verify())

	var branches []NodeID
	tree.Walk(func(id NodeID, _ int) {
		if !tree.IsLeaf(id) {
			branches = append(branches, id)
		}
	})

	for _, id := range branches {
		before := leafIndices(tree, id)
		costBefore := tree.Cost()

		tree.rotate(id)

		// Rotation may change the height of id; refresh its ancestors the
		// way insertion does before checking the invariants.
		for ancestor := tree.Parent(id); ancestor != NoNode; ancestor = tree.Parent(ancestor) {
			tree.updateHeight(ancestor)
		}

		require.NoError(t, tree.Verify())
		require.Equal(t, before, leafIndices(tree, id))
		require.LessOrEqual(t, tree.Cost(), costBefore)
	}
}

func TestBestInsertionMatchesExhaustiveSearch(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		boxes := randomBoxes(rng, 120)

		tree := newTree(boxes[0], len(boxes))
		for count, item := range boxes[1:] {
			entry := item.BBox()
			best := tree.findBest(entry)

			tree.memo.reset(tree.Len())
			minCost := tree.siblingCost(tree.Root(), entry)
			for id := NodeID(0); id < NodeID(tree.Len()); id++ {
				minCost = math.Min(minCost, tree.siblingCost(id, entry))
			}
			require.Equal(t, minCost, tree.siblingCost(best, entry), "seed %d, insertion %d", seed, count+1)

			tree.insertSibling(best, item)
		}
		require.NoError(t, tree.Verify())
	}
}

func TestBuildStats(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	boxes := randomBoxes(rng, 300)

	tree, err := Build(boxes)
	require.NoError(t, err)

	stats := tree.Stats()
	require.Equal(t, len(boxes), stats.Leaves)
	require.Equal(t, len(boxes)-1, stats.Branches)
	require.Equal(t, tree.Cost(), stats.Cost)
	require.Equal(t, tree.Rotations(), stats.Rotations)
	require.Greater(t, stats.Rotations, 0)
	require.Equal(t, stats.Height, stats.MaxLeafDepth)
	require.Greater(t, stats.MeanLeafDepth, 1.0)
	require.LessOrEqual(t, stats.MeanLeafDepth, float64(stats.Height))
}

func TestTwoLeafStats(t *testing.T) {
	tree, err := Build([]BoundingBox{{0, 0, 0, 1, 1, 1}, {2, 2, 2, 3, 3, 3}})
	require.NoError(t, err)

	stats := tree.Stats()
	require.Equal(t, Stats{
		Leaves:          2,
		Branches:        1,
		Height:          1,
		Cost:            27,
		MeanLeafDepth:   1,
		StdDevLeafDepth: 0,
		MaxLeafDepth:    1,
	}, stats)
}
