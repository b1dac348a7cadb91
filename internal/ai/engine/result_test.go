// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestParseExtraction_Normalization verifies clamping, hashtag prefixing and
dedupe, and mention-count flooring.
*/
func TestParseExtraction_Normalization(t *testing.T) {
	raw := `{
		"title_ko": "아이유 컴백",
		"title_en": "IU Comeback",
		"relevance_score": 1.4,
		"confidence": -0.2,
		"sentiment": " Positive ",
		"main_category": "MUSIC",
		"seo_hashtags": ["IU", "#IU", "  ", "#컴백", "#"],
		"detected_artists": [
			{"name_ko": " 아이유 ", "entity_type": "ARTIST", "confidence_score": 2.0, "mention_count": 0}
		]
	}`

	extraction, err := ParseExtraction(raw)
	require.NoError(t, err)

	assert.Equal(t, 1.0, extraction.RelevanceScore)
	assert.Equal(t, 0.0, extraction.Confidence)
	assert.Equal(t, "positive", extraction.Sentiment)
	assert.Equal(t, "music", extraction.MainCategory)
	assert.Equal(t, []string{"#IU", "#컴백"}, extraction.SEOHashtags)

	require.Len(t, extraction.Detected, 1)
	assert.Equal(t, "아이유", extraction.Detected[0].NameKO)
	assert.Equal(t, 1.0, extraction.Detected[0].ConfidenceScore)
	assert.Equal(t, 1, extraction.Detected[0].MentionCount)
}

/*
TestParseExtraction_Rejections verifies schema violations fail loudly.
*/
func TestParseExtraction_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed_json", `{"title_ko": `},
		{"unknown_sentiment", `{"sentiment": "ecstatic"}`},
		{"unknown_category", `{"main_category": "sports"}`},
		{"unknown_entity_type", `{"detected_artists": [{"name_ko": "x", "entity_type": "VENUE"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExtraction(tt.raw)
			assert.Error(t, err)
		})
	}
}

/*
TestParseExtraction_HashtagCap verifies the 15-tag ceiling.
*/
func TestParseExtraction_HashtagCap(t *testing.T) {
	raw := `{"seo_hashtags": ["a","b","c","d","e","f","g","h","i","j","k","l","m","n","o","p","q"]}`

	extraction, err := ParseExtraction(raw)
	require.NoError(t, err)
	assert.Len(t, extraction.SEOHashtags, 15)
	assert.Equal(t, "#a", extraction.SEOHashtags[0])
}
