package prefs

import "slices"

// AllowedSet is an immutable set of permitted values. It is either sorted by
// the value type's ordering or keeps first-seen order; duplicates are
// collapsed either way. A nil *AllowedSet means "no allow-list" and is safe to
// call methods on.
type AllowedSet[T any] struct {
	vt     ValueType[T]
	values []T
	sorted bool
}

// NewAllowedSet builds a set from values. It returns nil when values is empty,
// meaning no allow-list is in effect.
func NewAllowedSet[T any](vt ValueType[T], sort bool, values ...T) *AllowedSet[T] {
	if len(values) == 0 {
		return nil
	}

	set := &AllowedSet[T]{vt: vt, sorted: sort}
	if sort {
		sortedValues := make([]T, 0, len(values))
		for _, v := range values {
			sortedValues = append(sortedValues, vt.Clone(v))
		}
		slices.SortStableFunc(sortedValues, vt.compare)
		set.values = slices.CompactFunc(sortedValues, vt.equal)
		return set
	}

	for _, v := range values {
		if !set.Contains(v) {
			set.values = append(set.values, vt.Clone(v))
		}
	}
	return set
}

// NewAllowedSetFromPtrs builds a set from nullable values, dropping nil entries.
func NewAllowedSetFromPtrs[T any](vt ValueType[T], sort bool, values ...*T) *AllowedSet[T] {
	plain := make([]T, 0, len(values))
	for _, v := range values {
		if v != nil {
			plain = append(plain, *v)
		}
	}
	return NewAllowedSet(vt, sort, plain...)
}

// Contains reports whether v is in the set.
func (s *AllowedSet[T]) Contains(v T) bool {
	if s == nil {
		return false
	}
	if s.sorted {
		_, found := slices.BinarySearchFunc(s.values, v, s.vt.compare)
		return found
	}
	return slices.ContainsFunc(s.values, func(x T) bool { return s.vt.equal(x, v) })
}

// Len returns the number of values.
func (s *AllowedSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Sorted reports whether the set is ordered by value.
func (s *AllowedSet[T]) Sorted() bool {
	return s != nil && s.sorted
}

// Values returns a copy of the values in set order.
func (s *AllowedSet[T]) Values() []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s.values))
	for i, v := range s.values {
		out[i] = s.vt.Clone(v)
	}
	return out
}
