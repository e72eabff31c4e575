package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSequencer_InOrder(t *testing.T) {
	var got []int
	s := newSequencer[int](func(v int) { got = append(got, v) })

	for i := 0; i < 5; i++ {
		s.deliver(uint64(i), i)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestSequencer_Reordered(t *testing.T) {
	var got []int
	s := newSequencer[int](func(v int) { got = append(got, v) })

	s.deliver(2, 2)
	s.deliver(0, 0)
	assert.Equal(t, []int{0}, got, "1 is missing, 2 stays buffered")

	s.deliver(1, 1)
	assert.Equal(t, []int{0, 1, 2}, got, "filling the gap flushes the buffer")

	s.deliver(3, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, got)
}

// Any permutation of completions comes out in sequence order.
func TestSequencer_PropertyAnyPermutation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(rt, "n")

		perm := make([]int, n)
		for i := range perm {
			perm[i] = i
		}
		for i := n - 1; i > 0; i-- {
			j := rapid.IntRange(0, i).Draw(rt, "swap")
			perm[i], perm[j] = perm[j], perm[i]
		}

		var got []int
		s := newSequencer[int](func(v int) { got = append(got, v) })
		for _, seq := range perm {
			s.deliver(uint64(seq), seq)
		}

		if !assert.Len(rt, got, n) {
			return
		}
		for i, v := range got {
			assert.Equal(rt, i, v)
		}
		assert.Empty(rt, s.pending)
	})
}
