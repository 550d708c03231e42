package rng

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShuffle_DeterministicForSeed(t *testing.T) {
	t.Parallel()

	a := []int{1, 2, 3, 4, 5, 6, 7, 8}
	b := slices.Clone(a)

	Shuffle(New(42), a)
	Shuffle(New(42), b)

	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, a)
}

func TestIntN_Range(t *testing.T) {
	t.Parallel()

	s := New(7)
	for range 1000 {
		n := s.IntN(5)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 5)
	}
}

func TestSource_ConcurrentUse(t *testing.T) {
	t.Parallel()

	s := New(0)
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			items := []string{"a", "b", "c"}
			Shuffle(s, items)
			_ = s.IntN(10)
		})
	}
	wg.Wait()
}
