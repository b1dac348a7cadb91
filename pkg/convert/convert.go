// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package convert provides fault-tolerant string conversions for query-parameter
parsing, where a malformed value should read as its zero (or a caller default)
rather than surface an error.

Do not use it where malformed input must be distinguished from an absent
value; reach for [strconv] directly in that case.
*/
package convert

import "strconv"

// ToInt converts a string to an int, returning 0 on empty or malformed input.
func ToInt(s string) int {
	if s == "" {
		return 0
	}

	v, _ := strconv.Atoi(s)
	return v
}

// ToIntD converts a string to an int, returning def on empty or malformed
// input.
func ToIntD(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
