// Package slot implements the fixed-capacity ring of reusable record slots
// that producers claim without blocking. Acquire is a CAS-retry loop bounded
// by the ring's own capacity: a producer either finds a free slot within one
// full pass or gives up, it never spins indefinitely.
package slot

import "sync/atomic"

// Allocator is a fixed-capacity ring of T values, each guarded by an
// in-use flag. T is allocated once, at construction, and is never
// reallocated afterwards; callers reuse the value in place between Acquire
// and Release.
type Allocator[T any] struct {
	items   []T
	inUse   []atomic.Bool
	claimed atomic.Uint64
	used    atomic.Int64
}

// New builds an Allocator of the given capacity, constructing each element
// with newItem.
func New[T any](capacity int, newItem func() T) *Allocator[T] {
	a := &Allocator[T]{
		items: make([]T, capacity),
		inUse: make([]atomic.Bool, capacity),
	}
	for i := range a.items {
		a.items[i] = newItem()
	}
	return a
}

// Cap returns the allocator's fixed capacity.
func (a *Allocator[T]) Cap() int {
	return len(a.items)
}

// UsedCount returns the number of slots currently claimed.
func (a *Allocator[T]) UsedCount() int64 {
	return a.used.Load()
}

// Acquire claims an exclusive slot, returning its index and true on success.
// It advances a monotonic claim counter modulo capacity and CAS-attempts
// each candidate; if a full pass over the ring finds nothing free, it gives
// up and returns false rather than spin.
func (a *Allocator[T]) Acquire() (int, bool) {
	cap := len(a.items)
	if cap == 0 {
		return 0, false
	}
	for attempt := 0; attempt < cap; attempt++ {
		seq := a.claimed.Add(1) - 1
		idx := int(seq % uint64(cap))
		if a.inUse[idx].CompareAndSwap(false, true) {
			a.used.Add(1)
			return idx, true
		}
	}
	return 0, false
}

// Release gives a previously acquired slot back to the ring.
func (a *Allocator[T]) Release(idx int) {
	if a.inUse[idx].CompareAndSwap(true, false) {
		a.used.Add(-1)
	}
}

// Get returns a pointer to the slot's value. The caller must hold a logical
// claim on idx (via a prior successful Acquire) for the access to be safe.
func (a *Allocator[T]) Get(idx int) *T {
	return &a.items[idx]
}

// InUse reports whether idx is currently claimed. Intended for tests and
// diagnostics, not for coordinating access.
func (a *Allocator[T]) InUse(idx int) bool {
	return a.inUse[idx].Load()
}
