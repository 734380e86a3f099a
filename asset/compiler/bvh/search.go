package bvh

// A node queued for evaluation by the best-insertion search together with
// the cost of inserting the new entry as its sibling.
type candidate struct {
	id   NodeID
	cost float64
}

func lessCandidate(a, b candidate) bool {
	return a.cost < b.cost
}

// Memoized inherited costs for a single search. Entries are invalidated in
// bulk by bumping the epoch so the backing slices are reused.
type costCache struct {
	values []float64
	stamps []uint32
	epoch  uint32
}

// Invalidate all cached values and make room for size nodes.
func (c *costCache) reset(size int) {
	if len(c.values) < size {
		c.values = append(c.values, make([]float64, size-len(c.values))...)
		c.stamps = append(c.stamps, make([]uint32, size-len(c.stamps))...)
	}

	c.epoch++
	if c.epoch == 0 {
		clear(c.stamps)
		c.epoch = 1
	}
}

func (c *costCache) get(id NodeID) (float64, bool) {
	if c.stamps[id] != c.epoch {
		return 0, false
	}
	return c.values[id], true
}

func (c *costCache) set(id NodeID, v float64) {
	c.values[id] = v
	c.stamps[id] = c.epoch
}

// The increase in surface area of every ancestor from id up to the root
// caused by enlarging them to include entry.
func (t *Tree[T]) inheritedCost(id NodeID, entry BoundingBox) float64 {
	if id == NoNode {
		return 0
	}

	if v, ok := t.memo.get(id); ok {
		return v
	}

	n := &t.nodes[id]
	v := HSAUnion(n.box, entry) - n.hsa + t.inheritedCost(n.parent, entry)
	t.memo.set(id, v)
	return v
}

// The total tree cost delta if entry becomes the sibling of id.
func (t *Tree[T]) siblingCost(id NodeID, entry BoundingBox) float64 {
	n := &t.nodes[id]
	return HSAUnion(n.box, entry) + t.inheritedCost(n.parent, entry)
}

// Find the node that entry should be paired with so that the total SAH cost
// of the tree is minimized.
//
// Nodes are explored in order of increasing sibling cost. A subtree is only
// descended into if the lower bound for any insertion inside it, the
// entry's own area plus the cost inherited by the subtree root, can still
// beat the best candidate found so far.
func (t *Tree[T]) findBest(entry BoundingBox) NodeID {
	t.memo.reset(len(t.nodes))
	t.queue.Clear()

	entryHSA := entry.HSA()
	best := t.root
	bestCost := HSAUnion(t.nodes[t.root].box, entry)
	t.queue.Push(candidate{t.root, t.siblingCost(t.root, entry)})

	for {
		c, ok := t.queue.Pop()
		if !ok {
			break
		}

		if c.cost < bestCost {
			best = c.id
			bestCost = c.cost
		}

		n := &t.nodes[c.id]
		if n.kind != branchNode {
			continue
		}

		if costLow := entryHSA + t.inheritedCost(c.id, entry); costLow < bestCost {
			t.queue.Push(candidate{n.children[0], t.siblingCost(n.children[0], entry)})
			t.queue.Push(candidate{n.children[1], t.siblingCost(n.children[1], entry)})
		}
	}

	return best
}
