package bvh

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func intLess(a, b int) bool { return a < b }

func TestHeapOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	h := NewHeap(intLess, nil)

	values := make([]int, 500)
	for i := range values {
		values[i] = rng.Intn(100)
		h.Push(values[i])
	}
	require.Equal(t, len(values), h.Len())

	sort.Ints(values)
	for _, exp := range values {
		top, ok := h.Peek()
		require.True(t, ok)
		require.Equal(t, exp, top)

		got, ok := h.Pop()
		require.True(t, ok)
		require.Equal(t, exp, got)
	}
	require.Zero(t, h.Len())
}

func TestHeapEmpty(t *testing.T) {
	h := NewHeap(intLess, make([]int, 0, 4))

	_, ok := h.Pop()
	require.False(t, ok)
	_, ok = h.Peek()
	require.False(t, ok)

	h.Push(3)
	v, ok := h.Pop()
	require.True(t, ok)
	require.Equal(t, 3, v)

	_, ok = h.Pop()
	require.False(t, ok)
}

func TestHeapClearReusesStorage(t *testing.T) {
	h := NewHeap(intLess, make([]int, 0, 8))
	for _, v := range []int{5, 1, 4, 2, 3} {
		h.Push(v)
	}
	capBefore := cap(h.buf)

	h.Clear()
	require.Zero(t, h.Len())
	require.Equal(t, capBefore, cap(h.buf))

	// Stale slots from the previous session must not leak into this one.
	h.Push(9)
	h.Push(7)
	v, _ := h.Pop()
	require.Equal(t, 7, v)
	v, _ = h.Pop()
	require.Equal(t, 9, v)
	_, ok := h.Pop()
	require.False(t, ok)
}
