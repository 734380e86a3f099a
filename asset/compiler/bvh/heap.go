package bvh

// Heap is a binary min-heap ordered by an external comparator. Items for
// which less reports true are popped first.
//
// The heap stores its items in a caller-supplied backing slice. Clear resets
// the heap without releasing that storage so a single heap can serve many
// independent sessions without reallocating.
type Heap[T any] struct {
	less func(a, b T) bool
	buf  []T
	size int
}

// NewHeap creates a heap that uses buf as its backing storage.
func NewHeap[T any](less func(a, b T) bool, buf []T) *Heap[T] {
	return &Heap[T]{
		less: less,
		buf:  buf[:0],
	}
}

// Len returns the number of queued items.
func (h *Heap[T]) Len() int {
	return h.size
}

// Push an item to the heap.
func (h *Heap[T]) Push(item T) {
	if h.size < len(h.buf) {
		h.buf[h.size] = item
	} else {
		h.buf = append(h.buf, item)
	}

	index := h.size
	h.size++
	for index > 0 {
		parent := (index - 1) / 2
		if h.less(h.buf[parent], item) {
			return
		}

		h.buf[index] = h.buf[parent]
		h.buf[parent] = item
		index = parent
	}
}

// Pop removes and returns the item with the lowest key. The second return
// value is false if the heap is empty.
func (h *Heap[T]) Pop() (T, bool) {
	var zero T
	if h.size == 0 {
		return zero, false
	}

	out := h.buf[0]
	h.size--
	last := h.buf[h.size]
	h.buf[h.size] = zero
	if h.size == 0 {
		return out, true
	}

	h.buf[0] = last
	index := 0
	for {
		left := 2*index + 1
		right := left + 1
		smallest := index
		if left < h.size && h.less(h.buf[left], h.buf[smallest]) {
			smallest = left
		}
		if right < h.size && h.less(h.buf[right], h.buf[smallest]) {
			smallest = right
		}

		if smallest == index {
			return out, true
		}

		h.buf[index] = h.buf[smallest]
		h.buf[smallest] = last
		index = smallest
	}
}

// Peek returns the item with the lowest key without removing it.
func (h *Heap[T]) Peek() (T, bool) {
	if h.size == 0 {
		var zero T
		return zero, false
	}
	return h.buf[0], true
}

// Clear empties the heap but keeps its backing storage.
func (h *Heap[T]) Clear() {
	clear(h.buf[:h.size])
	h.size = 0
}
