package bvh

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Encoding is a flat, preorder representation of a BVH tree that can be
// traversed without pointers.
//
// All three slices have 2N-1 entries for N input boxes. For node i:
//   - Shape[i] is the node bounding box.
//   - Parents[i] is the index of the parent node or -1 for the root.
//   - Structure[i] is, for branches, the index of the right child; the left
//     child always follows at i+1. For leaves it is the complement
//     (^index, i.e. -index-1) of the original box index. Branch values are
//     always >= 2, so the sign alone tells leaves and branches apart.
type Encoding struct {
	Structure []int32
	Shape     []BoundingBox
	Parents   []int32
}

// IsLeaf returns true if a Structure value describes a leaf.
func IsLeaf(v int32) bool {
	return v < 0
}

// LeafIndex returns the original box index encoded in a leaf Structure value.
func LeafIndex(v int32) int {
	return int(^v)
}

// Encode a leaf index into a Structure value.
func encodeLeaf(index int) int32 {
	return ^int32(index)
}

// IndexedBox is a box tagged with its position in an input list.
type IndexedBox struct {
	Box   BoundingBox
	Index int
}

func (b IndexedBox) BBox() BoundingBox {
	return b.Box
}

func (b IndexedBox) String() string {
	return fmt.Sprintf("[%d]", b.Index)
}

// BuildIndexed builds a tree for boxes (in list order) whose leaves remember
// the index of the box they hold.
func BuildIndexed(boxes []BoundingBox) (*Tree[IndexedBox], error) {
	items := make([]IndexedBox, len(boxes))
	for index, box := range boxes {
		items[index] = IndexedBox{Box: box, Index: index}
	}
	return Build(items)
}

// Encode builds a BVH tree for boxes (in list order) and flattens it.
func Encode(boxes []BoundingBox) (*Encoding, error) {
	tree, err := BuildIndexed(boxes)
	if err != nil {
		return nil, err
	}

	return Flatten(tree, func(item IndexedBox) int { return item.Index }), nil
}

// Flatten serializes a tree in preorder. The indexFn callback maps each
// leaf item to the index stored in the Structure slice.
func Flatten[T Bounded](t *Tree[T], indexFn func(T) int) *Encoding {
	size := len(t.nodes)
	enc := &Encoding{
		Structure: make([]int32, size),
		Shape:     make([]BoundingBox, size),
		Parents:   make([]int32, size),
	}

	type frame struct {
		id      NodeID
		parent  int32
		isRight bool
	}

	next := int32(0)
	stack := []frame{{id: t.root, parent: -1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		index := next
		next++

		n := &t.nodes[f.id]
		enc.Shape[index] = n.box
		enc.Parents[index] = f.parent
		if f.isRight {
			enc.Structure[f.parent] = index
		}

		if n.kind == leafNode {
			enc.Structure[index] = encodeLeaf(indexFn(n.item))
			continue
		}

		stack = append(stack,
			frame{id: n.children[1], parent: index, isRight: true},
			frame{id: n.children[0], parent: index},
		)
	}

	return enc
}

// Len returns the number of encoded nodes.
func (e *Encoding) Len() int {
	return len(e.Structure)
}

// LeafOrder returns the original box indices in the order their leaves
// appear in the encoding.
func (e *Encoding) LeafOrder() []int {
	order := make([]int, 0, (len(e.Structure)+1)/2)
	for _, v := range e.Structure {
		if IsLeaf(v) {
			order = append(order, LeafIndex(v))
		}
	}
	return order
}

// Verify decodes the encoding by following Structure and Parents and checks
// that it describes a well-formed tree: every leaf index in 0..N-1 appears
// exactly once, each branch shape is the union of its children shapes and
// every parent link matches the traversal.
func (e *Encoding) Verify() error {
	size := len(e.Structure)
	if size == 0 || size%2 == 0 || len(e.Shape) != size || len(e.Parents) != size {
		return errors.Wrapf(ErrInvalidEncoding, "mismatched lengths: structure %d, shape %d, parents %d", size, len(e.Shape), len(e.Parents))
	}

	leafCount := (size + 1) / 2
	seen := make([]bool, leafCount)
	var err error

	if e.Parents[0] != -1 {
		err = multierr.Append(err, errors.Errorf("root parent is %d", e.Parents[0]))
	}

	// Decode the subtree rooted at index and return the index following it.
	var decode func(index int32) (int32, bool)
	decode = func(index int32) (int32, bool) {
		if index < 0 || int(index) >= size {
			err = multierr.Append(err, errors.Errorf("node index %d out of range", index))
			return 0, false
		}

		v := e.Structure[index]
		if IsLeaf(v) {
			leaf := LeafIndex(v)
			if leaf >= leafCount {
				err = multierr.Append(err, errors.Errorf("node %d: leaf index %d out of range", index, leaf))
			} else if seen[leaf] {
				err = multierr.Append(err, errors.Errorf("node %d: duplicate leaf index %d", index, leaf))
			} else {
				seen[leaf] = true
			}
			return index + 1, true
		}

		left, right := index+1, v
		if right <= left {
			err = multierr.Append(err, errors.Errorf("node %d: right child %d does not follow left child %d", index, right, left))
			return 0, false
		}

		end, ok := decode(left)
		if !ok {
			return 0, false
		}
		if end != right {
			err = multierr.Append(err, errors.Errorf("node %d: left subtree ends at %d; right child at %d", index, end, right))
			return 0, false
		}

		end, ok = decode(right)
		if !ok {
			return 0, false
		}

		if e.Parents[left] != index || e.Parents[right] != index {
			err = multierr.Append(err, errors.Errorf("node %d: children report parents %d and %d", index, e.Parents[left], e.Parents[right]))
		}
		if expShape := Union(e.Shape[left], e.Shape[right]); e.Shape[index] != expShape {
			err = multierr.Append(err, errors.Errorf("node %d: shape %v; expected %v", index, e.Shape[index], expShape))
		}
		return end, true
	}

	if end, ok := decode(0); ok && int(end) != size {
		err = multierr.Append(err, errors.Errorf("tree covers %d of %d nodes", end, size))
	}

	for leaf, found := range seen {
		if !found {
			err = multierr.Append(err, errors.Errorf("leaf index %d missing", leaf))
		}
	}

	if err != nil {
		return errors.Wrap(multierr.Combine(ErrInvalidEncoding, err), "verify")
	}
	return nil
}
