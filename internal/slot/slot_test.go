package slot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	a := New(4, func() int { return 0 })
	idx, ok := a.Acquire()
	require.True(t, ok)
	require.True(t, a.InUse(idx))
	require.EqualValues(t, 1, a.UsedCount())

	a.Release(idx)
	require.False(t, a.InUse(idx))
	require.EqualValues(t, 0, a.UsedCount())
}

func TestAcquireExhaustsCapacity(t *testing.T) {
	a := New(2, func() string { return "" })

	_, ok1 := a.Acquire()
	_, ok2 := a.Acquire()
	_, ok3 := a.Acquire()

	require.True(t, ok1)
	require.True(t, ok2)
	require.False(t, ok3)
}

func TestSlotExclusivityUnderConcurrency(t *testing.T) {
	const capacity = 8
	const writers = 64

	a := New(capacity, func() int { return 0 })

	var wg sync.WaitGroup
	acquired := make([]int, writers)
	ok := make([]bool, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx, got := a.Acquire()
			acquired[i] = idx
			ok[i] = got
		}(i)
	}
	wg.Wait()

	seen := make(map[int]int)
	successCount := 0
	for i := 0; i < writers; i++ {
		if ok[i] {
			successCount++
			seen[acquired[i]]++
		}
	}

	require.LessOrEqual(t, successCount, capacity)
	for idx, count := range seen {
		require.Equalf(t, 1, count, "slot %d claimed by more than one writer", idx)
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	a := New(1, func() int { return 0 })

	idx, ok := a.Acquire()
	require.True(t, ok)

	_, ok2 := a.Acquire()
	require.False(t, ok2)

	a.Release(idx)

	idx2, ok3 := a.Acquire()
	require.True(t, ok3)
	require.Equal(t, idx, idx2)
}
