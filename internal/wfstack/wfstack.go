// Package wfstack implements the wait-free, push-only stack with fixed
// capacity used to back the logger registry: once capacity is exhausted,
// TryPush reports failure forever rather than retrying or growing.
package wfstack

import "sync/atomic"

// Predicate reports whether element matches what Find is looking for.
type Predicate[T any] func(element *T) bool

// Stack is a wait-free, push-only container of fixed capacity.
type Stack[T any] struct {
	elements []T
	written  []atomic.Bool
	writeIdx atomic.Uint64
	full     atomic.Bool
}

// New allocates a Stack that can hold up to capacity elements.
func New[T any](capacity int) *Stack[T] {
	return &Stack[T]{
		elements: make([]T, capacity),
		written:  make([]atomic.Bool, capacity),
	}
}

// TryPush inserts element if capacity remains, returning a pointer to its
// resting place in the stack and true on success. Once capacity is
// exhausted, every subsequent call returns (nil, false) without retrying.
func (s *Stack[T]) TryPush(element T) (*T, bool) {
	if s.full.Load() {
		return nil, false
	}

	idx := s.writeIdx.Add(1) - 1
	if idx >= uint64(len(s.elements)) {
		s.full.Store(true)
		return nil, false
	}

	s.elements[idx] = element
	s.written[idx].Store(true)
	return &s.elements[idx], true
}

// Find returns the first written element matching predicate, scanning in
// push order.
func (s *Stack[T]) Find(predicate Predicate[T]) (*T, bool) {
	limit := s.writeIdx.Load()
	if limit > uint64(len(s.elements)) {
		limit = uint64(len(s.elements))
	}
	for i := uint64(0); i < limit; i++ {
		if !s.written[i].Load() {
			continue
		}
		if predicate(&s.elements[i]) {
			return &s.elements[i], true
		}
	}
	return nil, false
}
