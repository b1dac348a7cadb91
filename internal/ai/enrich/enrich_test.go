// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/pkg/pointer"
)

/*
TestParseGender verifies the closed enumeration round-trips from model
output, including co-ed acts, and that anything else is dropped.
*/
func TestParseGender(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		want *artist.Gender
	}{
		{"male", pointer.To("MALE"), pointer.To(artist.GenderMale)},
		{"female_lowercase", pointer.To("female"), pointer.To(artist.GenderFemale)},
		{"mixed", pointer.To("MIXED"), pointer.To(artist.GenderMixed)},
		{"padded", pointer.To(" mixed "), pointer.To(artist.GenderMixed)},
		{"unrecognized", pointer.To("여성"), nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseGender(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

/*
TestArtistPrompt_GenderOptions verifies the schema offered to the model
covers every gender the registry accepts.
*/
func TestArtistPrompt_GenderOptions(t *testing.T) {
	prompt := artistPrompt("아이유", "")
	assert.Contains(t, prompt, `"MALE"|"FEMALE"|"MIXED"`)
}

/*
TestParseISODate verifies date normalization tolerates padding and rejects
malformed input.
*/
func TestParseISODate(t *testing.T) {
	at := parseISODate(pointer.To(" 1993-05-16 "))
	require.NotNil(t, at)
	assert.Equal(t, "1993-05-16", at.Format("2006-01-02"))

	assert.Nil(t, parseISODate(pointer.To("16 May 1993")))
	assert.Nil(t, parseISODate(nil))
}
