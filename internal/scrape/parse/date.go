// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package parse

import (
	"regexp"
	"strings"
	"time"
)

// dateLayouts is the ordered list of accepted formats. Korean-form dates
// are rewritten to dotted form before matching.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
}

// koreanDate rewrites "2026년 8월 24일" into "2026.8.24".
var koreanDate = regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일`)

// singleDigit pads "2026.8.4" to "2026.08.04" so fixed layouts match.
var singleDigit = regexp.MustCompile(`([.\-/])(\d)([.\-/ ]|$)`)

/*
ParseDate parses a publication date string, returning nil when no format
matches. All results are normalized to UTC.
*/
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	raw = koreanDate.ReplaceAllString(raw, "$1.$2.$3")
	for i := 0; i < 2; i++ { // two passes cover adjacent single digits
		raw = singleDigit.ReplaceAllString(raw, "${1}0$2$3")
	}

	for _, layout := range dateLayouts {
		if at, err := time.Parse(layout, raw); err == nil {
			utc := at.UTC()
			return &utc
		}
	}

	// Opportunistic last chance: a leading ISO prefix inside a longer
	// string, e.g. "2026-08-24T09:00:00+09:00 (KST)".
	if len(raw) >= 10 {
		if at, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			utc := at.UTC()
			return &utc
		}
	}
	return nil
}
