// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

// Package query parses repeated-value URL query parameters.
package query

import "strings"

// CSV splits a comma-separated query value into trimmed, non-empty parts.
// An empty value yields nil.
func CSV(value string) []string {
	if value == "" {
		return nil
	}

	var parts []string
	for _, raw := range strings.Split(value, ",") {
		part := strings.TrimSpace(raw)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
