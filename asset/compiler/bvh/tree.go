package bvh

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// NodeID addresses a node inside the tree node arena.
type NodeID int32

// NoNode is used as the parent of the tree root.
const NoNode NodeID = -1

type nodeKind uint8

const (
	leafNode nodeKind = iota
	branchNode
)

// Position records which child slot of its parent a node occupies.
type Position uint8

const (
	PositionNone Position = iota
	PositionLeft
	PositionRight
)

func (p Position) String() string {
	switch p {
	case PositionLeft:
		return "L"
	case PositionRight:
		return "R"
	}
	return ""
}

// The payload of a node. Leafs carry a single item; branches point to
// exactly two children. Rotations swap contents between arena slots.
type content[T Bounded] struct {
	kind     nodeKind
	item     T
	children [2]NodeID
}

type node[T Bounded] struct {
	content[T]

	parent   NodeID
	position Position

	// Cached values derived from the node content.
	box          BoundingBox
	hsa          float64
	height       int
	highestChild uint8
}

// Tree is a dynamic BVH whose leaves hold items of type T. Nodes live in a
// contiguous arena and reference each other by NodeID.
//
// A Tree is not safe for concurrent use.
type Tree[T Bounded] struct {
	nodes  []node[T]
	root   NodeID
	leaves int

	// Scratch state reused by successive insertions.
	queue *Heap[candidate]
	memo  costCache

	rotations int

	// Disables rebalancing; only used by tests.
	noRotate bool
}

// Create a tree holding a single leaf.
func newTree[T Bounded](first T, capacity int) *Tree[T] {
	t := &Tree[T]{
		nodes: make([]node[T], 0, 2*capacity-1),
		root:  0,
		queue: NewHeap(lessCandidate, make([]candidate, 0, 64)),
	}
	t.alloc(content[T]{kind: leafNode, item: first}, NoNode, PositionNone)
	t.leaves = 1
	return t
}

// Append a node to the arena and return its ID.
func (t *Tree[T]) alloc(c content[T], parent NodeID, pos Position) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node[T]{
		content:  c,
		parent:   parent,
		position: pos,
	})
	t.updateHeight(id)
	t.updateBox(id)
	return id
}

// Root returns the ID of the root node.
func (t *Tree[T]) Root() NodeID {
	return t.root
}

// Len returns the total number of nodes in the tree.
func (t *Tree[T]) Len() int {
	return len(t.nodes)
}

// Leaves returns the number of leaf nodes in the tree.
func (t *Tree[T]) Leaves() int {
	return t.leaves
}

// Rotations returns the number of rotations applied while building the tree.
func (t *Tree[T]) Rotations() int {
	return t.rotations
}

// IsLeaf returns true if id refers to a leaf node.
func (t *Tree[T]) IsLeaf(id NodeID) bool {
	return t.nodes[id].kind == leafNode
}

// Children returns the left and right child of a branch. The last return
// value is false for leaf nodes.
func (t *Tree[T]) Children(id NodeID) (NodeID, NodeID, bool) {
	n := &t.nodes[id]
	if n.kind != branchNode {
		return NoNode, NoNode, false
	}
	return n.children[0], n.children[1], true
}

// Parent returns the parent of a node or NoNode for the root.
func (t *Tree[T]) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

// Item returns the item stored in a leaf node.
func (t *Tree[T]) Item(id NodeID) (T, bool) {
	n := &t.nodes[id]
	if n.kind != leafNode {
		var zero T
		return zero, false
	}
	return n.item, true
}

// Box returns the bounding box of a node.
func (t *Tree[T]) Box(id NodeID) BoundingBox {
	return t.nodes[id].box
}

// Height returns the height of a node: 0 for leaves, 1 + the height of the
// tallest child for branches.
func (t *Tree[T]) Height(id NodeID) int {
	return t.nodes[id].height
}

// Path returns the L/R path from the root to a node. The root is named "Z".
func (t *Tree[T]) Path(id NodeID) string {
	var path []byte
	for ; id != NoNode; id = t.nodes[id].parent {
		if pos := t.nodes[id].position; pos != PositionNone {
			path = append(path, pos.String()[0])
		}
	}
	if len(path) == 0 {
		return "Z"
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return string(path)
}

// Walk visits all nodes in preorder (node, left subtree, right subtree).
func (t *Tree[T]) Walk(fn func(id NodeID, depth int)) {
	type frame struct {
		id    NodeID
		depth int
	}

	stack := []frame{{t.root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(f.id, f.depth)

		if n := &t.nodes[f.id]; n.kind == branchNode {
			stack = append(stack, frame{n.children[1], f.depth + 1}, frame{n.children[0], f.depth + 1})
		}
	}
}

// Cost returns the sum of the half surface areas of all branch nodes.
func (t *Tree[T]) Cost() float64 {
	var cost float64
	t.Walk(func(id NodeID, _ int) {
		if n := &t.nodes[id]; n.kind == branchNode {
			cost += n.hsa
		}
	})
	return cost
}

// Recalculate the cached height of a node from its children.
func (t *Tree[T]) updateHeight(id NodeID) {
	n := &t.nodes[id]
	if n.kind != branchNode {
		n.height = 0
		return
	}

	lh := t.nodes[n.children[0]].height
	rh := t.nodes[n.children[1]].height
	if lh > rh {
		n.highestChild = 0
		n.height = lh + 1
	} else {
		n.highestChild = 1
		n.height = rh + 1
	}
}

// Recalculate the cached bounding box and half surface area of a node.
func (t *Tree[T]) updateBox(id NodeID) {
	n := &t.nodes[id]
	if n.kind == branchNode {
		n.box = Union(t.nodes[n.children[0]].box, t.nodes[n.children[1]].box)
	} else {
		n.box = n.item.BBox()
	}
	n.hsa = n.box.HSA()
}

// Point the parent link of a branch's children back to the branch.
func (t *Tree[T]) adopt(id NodeID) {
	n := &t.nodes[id]
	if n.kind != branchNode {
		return
	}
	t.nodes[n.children[0]].parent = id
	t.nodes[n.children[1]].parent = id
}

// Verify checks the structural invariants of the tree: parent links,
// cached heights and that every branch box is the exact union of its
// children boxes. All violations are reported.
func (t *Tree[T]) Verify() error {
	var err error
	leaves, branches := 0, 0

	if t.nodes[t.root].parent != NoNode {
		err = multierr.Append(err, errors.Errorf("root %d has parent %d", t.root, t.nodes[t.root].parent))
	}

	t.Walk(func(id NodeID, _ int) {
		n := &t.nodes[id]
		if n.kind == leafNode {
			leaves++
			if n.height != 0 {
				err = multierr.Append(err, errors.Errorf("leaf %s: height %d", t.Path(id), n.height))
			}
			if n.box != n.item.BBox() {
				err = multierr.Append(err, errors.Errorf("leaf %s: box %v does not match item box", t.Path(id), n.box))
			}
			return
		}

		branches++
		l, r := &t.nodes[n.children[0]], &t.nodes[n.children[1]]
		if l.parent != id || r.parent != id {
			err = multierr.Append(err, errors.Errorf("branch %s: children do not point back to it", t.Path(id)))
		}
		if l.position != PositionLeft || r.position != PositionRight {
			err = multierr.Append(err, errors.Errorf("branch %s: children have wrong positions", t.Path(id)))
		}
		if expHeight := 1 + max(l.height, r.height); n.height != expHeight {
			err = multierr.Append(err, errors.Errorf("branch %s: height %d; expected %d", t.Path(id), n.height, expHeight))
		}
		if expBox := Union(l.box, r.box); n.box != expBox {
			err = multierr.Append(err, errors.Errorf("branch %s: box %v; expected %v", t.Path(id), n.box, expBox))
		}
	})

	if leaves != t.leaves || branches != leaves-1 || leaves+branches != len(t.nodes) {
		err = multierr.Append(err, errors.Errorf("reachable leaves/branches %d/%d; arena has %d nodes and %d leaves", leaves, branches, len(t.nodes), t.leaves))
	}
	return err
}
