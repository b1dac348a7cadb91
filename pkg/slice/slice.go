// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

// Package slice complements the standard [slices] package with generic
// transformation helpers.
package slice

// Map transforms each element of input through fn into a new slice.
// A nil input maps to nil.
func Map[T any, U any](input []T, fn func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = fn(v)
	}
	return result
}
