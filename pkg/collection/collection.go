// Package collection holds the generic slice helpers the repositories and
// views share:
//
//	visible := collection.Filter(products, func(p models.Product) bool { return p.Quantity > 0 })
//	page := collection.Paginate(visible, 2, 10)
//	names := collection.Map(page, func(p models.Product) string { return p.Name })
package collection

import "sort"

// Map transforms each element of s. A nil s yields an empty, non-nil slice.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Filter returns the elements for which keep reports true, in order. The
// result is never nil.
func Filter[T any](s []T, keep func(T) bool) []T {
	out := []T{}
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// SortBy returns a stably sorted copy of s.
func SortBy[T any](s []T, less func(a, b T) bool) []T {
	out := append([]T(nil), s...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Paginate returns a copy of one 1-indexed page of s. Pages past the end are
// empty.
func Paginate[T any](s []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(s) {
		return []T{}
	}
	end := min(start+size, len(s))
	return append([]T{}, s[start:end]...)
}

// Take returns at most the first n elements.
func Take[T any](s []T, n int) []T {
	if n > len(s) {
		n = len(s)
	}
	if n < 0 {
		n = 0
	}
	return s[:n]
}
