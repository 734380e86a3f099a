package bvh

import (
	"time"

	"github.com/achilleasa/dynbvh/log"
)

type rotation uint8

const (
	noRotation rotation = iota

	// Swap the left child with the left/right child of the right child.
	rotateLL
	rotateLR

	// Swap the right child with the left/right child of the left child.
	rotateRL
	rotateRR
)

// Build a BVH tree by inserting items one at a time in list order.
//
// Each insertion pairs the new item with the node that minimizes the total
// surface area heuristic (SAH) cost of the tree and then walks up to the
// root, refitting ancestor boxes and applying at most one local rotation
// per ancestor.
//
// Build returns ErrInvalidInput for an empty list and ErrInvalidGeometry if
// any item reports a degenerate or non-finite bounding box.
func Build[T Bounded](items []T) (*Tree[T], error) {
	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	logger := log.New("bvh builder")
	start := time.Now()

	t := newTree(items[0], len(items))
	for _, item := range items[1:] {
		t.insert(item)
	}

	logger.Debugf(
		"BVH tree build time: %d ms, items: %d, height: %d, nodes: %d, rotations: %d",
		time.Since(start).Nanoseconds()/1e6,
		len(items), t.nodes[t.root].height, len(t.nodes), t.rotations,
	)
	return t, nil
}

// Insert a single item into the tree.
func (t *Tree[T]) Insert(item T) error {
	if err := item.BBox().Validate(); err != nil {
		return err
	}

	t.insert(item)
	return nil
}

func (t *Tree[T]) insert(item T) {
	best := t.findBest(item.BBox())
	t.insertSibling(best, item)
}

// Turn node id into a branch whose left child holds the previous content of
// id and whose right child is a new leaf for item. Then refit and rebalance
// all ancestors of id.
func (t *Tree[T]) insertSibling(id NodeID, item T) {
	// Move the current content into a new node that keeps the cached
	// box and height of id.
	old := t.nodes[id]
	old.parent = id
	old.position = PositionLeft
	oldID := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, old)
	t.adopt(oldID)

	leafID := t.alloc(content[T]{kind: leafNode, item: item}, id, PositionRight)
	t.leaves++

	n := &t.nodes[id]
	n.content = content[T]{kind: branchNode, children: [2]NodeID{oldID, leafID}}
	n.highestChild = 0
	n.height = old.height + 1
	t.updateBox(id)

	for ancestor := t.nodes[id].parent; ancestor != NoNode; ancestor = t.nodes[ancestor].parent {
		t.updateHeight(ancestor)
		t.updateBox(ancestor)
		if !t.noRotate {
			t.rotate(ancestor)
		}
	}
}

// Try to lower the cost of branch id by swapping one of its children with a
// grandchild on the opposite side. At most one rotation is applied.
func (t *Tree[T]) rotate(id NodeID) {
	if t.nodes[id].kind != branchNode {
		return
	}

	l, r := t.nodes[id].children[0], t.nodes[id].children[1]
	bestReduction := 0.0
	best := noRotation

	if rn := &t.nodes[r]; rn.kind == branchNode {
		rl, rr := rn.children[0], rn.children[1]
		if reduction, ok := t.costReductionIfBetter(l, rl, rr, rn.hsa, bestReduction); ok {
			bestReduction, best = reduction, rotateLL
		}
		if reduction, ok := t.costReductionIfBetter(l, rr, rl, rn.hsa, bestReduction); ok {
			bestReduction, best = reduction, rotateLR
		}
	}

	if ln := &t.nodes[l]; ln.kind == branchNode {
		ll, lr := ln.children[0], ln.children[1]
		if reduction, ok := t.costReductionIfBetter(r, ll, lr, ln.hsa, bestReduction); ok {
			bestReduction, best = reduction, rotateRL
		}
		if reduction, ok := t.costReductionIfBetter(r, lr, ll, ln.hsa, bestReduction); ok {
			bestReduction, best = reduction, rotateRR
		}
	}

	var near, swap, opposite NodeID
	switch best {
	case noRotation:
		return
	case rotateLL, rotateLR:
		near, opposite = l, r
		swap = t.nodes[r].children[0]
		if best == rotateLR {
			swap = t.nodes[r].children[1]
		}
	case rotateRL, rotateRR:
		near, opposite = r, l
		swap = t.nodes[l].children[0]
		if best == rotateRR {
			swap = t.nodes[l].children[1]
		}
	}

	// Swap contents in place; both slots keep their parent and position.
	t.nodes[near].content, t.nodes[swap].content = t.nodes[swap].content, t.nodes[near].content
	t.adopt(near)
	t.adopt(swap)

	for _, nodeID := range [...]NodeID{swap, near, opposite, id} {
		t.updateHeight(nodeID)
	}
	for _, nodeID := range [...]NodeID{near, swap, opposite, id} {
		t.updateBox(nodeID)
	}
	t.rotations++
}

// Calculate the cost reduction of moving near under the opposite branch in
// place of swap, leaving rest as its new sibling. The reduction is returned
// only if it beats bestReduction or, on an exact tie, if the rotation also
// lowers the height of the affected subtree.
func (t *Tree[T]) costReductionIfBetter(near, swap, rest NodeID, oppositeCost, bestReduction float64) (float64, bool) {
	reduction := oppositeCost - HSAUnion(t.nodes[near].box, t.nodes[rest].box)
	if reduction > bestReduction {
		return reduction, true
	}

	if reduction == bestReduction {
		nearHeight := t.nodes[near].height
		swapHeight := t.nodes[swap].height
		restHeight := t.nodes[rest].height
		heightBefore := max(nearHeight, swapHeight+1, restHeight+1)
		heightAfter := max(swapHeight, nearHeight+1, restHeight+1)
		if heightAfter < heightBefore {
			return reduction, true
		}
	}

	return 0, false
}
