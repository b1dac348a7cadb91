// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyeonlab/kwave/internal/ai/llm"
)

/*
TestStripFences verifies markdown fence removal across the shapes Gemini
actually emits.
*/
func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"no_fence", `{"a": 1}`, `{"a": 1}`},
		{"json_fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare_fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"upper_tag", "```JSON\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding_whitespace", "  ```json\n{\"a\": 1}\n```  \n", `{"a": 1}`},
		{"unclosed_fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.StripFences(tt.raw))
		})
	}
}
