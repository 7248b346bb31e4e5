// Package types holds small generic containers shared across packages.
package types

import (
	"iter"
	"maps"
	"slices"
)

// Set is an unordered collection of distinct comparable values. The zero
// value is nil and must be created with NewSet before Add is called.
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding values.
func NewSet[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	s.Add(values...)
	return s
}

func (s Set[T]) Add(values ...T) {
	for _, v := range values {
		s[v] = struct{}{}
	}
}

func (s Set[T]) Delete(values ...T) {
	for _, v := range values {
		delete(s, v)
	}
}

func (s Set[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

func (s Set[T]) Len() int {
	return len(s)
}

// All yields every member in unspecified order.
func (s Set[T]) All() iter.Seq[T] {
	return maps.Keys(s)
}

// Sorted returns the members ordered by cmp.
func (s Set[T]) Sorted(cmp func(a, b T) int) []T {
	return slices.SortedFunc(s.All(), cmp)
}
