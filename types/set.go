package types

import (
	"cmp"
	"slices"
)

// Set is an unordered collection of distinct values.
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding items.
func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

func (s Set[T]) Add(item T) {
	s[item] = struct{}{}
}

// AddAll adds every member of other to s.
func (s Set[T]) AddAll(other Set[T]) {
	for item := range other {
		s[item] = struct{}{}
	}
}

func (s Set[T]) Remove(item T) {
	delete(s, item)
}

func (s Set[T]) Contains(item T) bool {
	_, ok := s[item]
	return ok
}

func (s Set[T]) Len() int {
	return len(s)
}

// Clone returns an independent copy of s.
func (s Set[T]) Clone() Set[T] {
	out := make(Set[T], len(s))
	for item := range s {
		out[item] = struct{}{}
	}
	return out
}

// Intersect returns a new set with the members present in both s and other.
func (s Set[T]) Intersect(other Set[T]) Set[T] {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set[T])
	for item := range small {
		if _, ok := large[item]; ok {
			out[item] = struct{}{}
		}
	}
	return out
}

// IntersectionSize counts the common members without allocating.
func (s Set[T]) IntersectionSize(other Set[T]) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for item := range small {
		if _, ok := large[item]; ok {
			n++
		}
	}
	return n
}

// Union returns a new set with the members of s and other.
func (s Set[T]) Union(other Set[T]) Set[T] {
	out := make(Set[T], len(s)+len(other))
	for item := range s {
		out[item] = struct{}{}
	}
	for item := range other {
		out[item] = struct{}{}
	}
	return out
}

// UnionSize counts |s ∪ other| without allocating.
func (s Set[T]) UnionSize(other Set[T]) int {
	return len(s) + len(other) - s.IntersectionSize(other)
}

// Sorted returns the members of s in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	out := make([]T, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	slices.Sort(out)
	return out
}
