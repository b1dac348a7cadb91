// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyeonlab/kwave/internal/core/mapping"
)

// maxHashtags caps the SEO hashtag list after normalization.
const maxHashtags = 15

// maxContextHints caps per-entity context snippets.
const maxContextHints = 10

// DetectedEntity is one entity the model found in the article.
type DetectedEntity struct {
	NameKO          string             `json:"name_ko"`
	NameEN          string             `json:"name_en,omitempty"`
	ContextHints    []string           `json:"context_hints,omitempty"`
	MentionCount    int                `json:"mention_count"`
	IsPrimary       bool               `json:"is_primary"`
	EntityType      mapping.EntityType `json:"entity_type"`
	ConfidenceScore float64            `json:"confidence_score"`
	IsAmbiguous     bool               `json:"is_ambiguous"`
	AmbiguityReason string             `json:"ambiguity_reason,omitempty"`
}

// Extraction is the top-level model response for one article.
type Extraction struct {
	TitleKO        string           `json:"title_ko"`
	TitleEN        string           `json:"title_en"`
	Detected       []DetectedEntity `json:"detected_artists"`
	TopicSummary   string           `json:"topic_summary"`
	TopicSummaryEN string           `json:"topic_summary_en"`
	SEOHashtags    []string         `json:"seo_hashtags"`
	Sentiment      string           `json:"sentiment"`
	RelevanceScore float64          `json:"relevance_score"`
	MainCategory   string           `json:"main_category"`
	Confidence     float64          `json:"confidence"`
}

var validSentiments = map[string]bool{
	"positive": true, "negative": true, "neutral": true, "mixed": true,
}

var validCategories = map[string]bool{
	"music": true, "drama": true, "film": true, "fashion": true,
	"entertainment": true, "award": true, "other": true,
}

/*
ParseExtraction decodes and normalizes a model response.

Description: Scores are clamped to [0,1]; hashtags gain a leading '#' and
are capped; per-entity hint lists are capped; mention counts floor at 1.
Out-of-vocabulary sentiment or category values are rejected.

Returns:
  - *Extraction: Normalized result
  - error: JSON or schema violations
*/
func ParseExtraction(raw string) (*Extraction, error) {
	var extraction Extraction
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		return nil, fmt.Errorf("engine: malformed extraction JSON: %w", err)
	}

	extraction.Sentiment = strings.ToLower(strings.TrimSpace(extraction.Sentiment))
	if extraction.Sentiment != "" && !validSentiments[extraction.Sentiment] {
		return nil, fmt.Errorf("engine: unknown sentiment %q", extraction.Sentiment)
	}

	extraction.MainCategory = strings.ToLower(strings.TrimSpace(extraction.MainCategory))
	if extraction.MainCategory != "" && !validCategories[extraction.MainCategory] {
		return nil, fmt.Errorf("engine: unknown category %q", extraction.MainCategory)
	}

	extraction.RelevanceScore = clamp01(extraction.RelevanceScore)
	extraction.Confidence = clamp01(extraction.Confidence)
	extraction.SEOHashtags = normalizeHashtags(extraction.SEOHashtags)

	for i := range extraction.Detected {
		entity := &extraction.Detected[i]
		entity.NameKO = strings.TrimSpace(entity.NameKO)
		entity.NameEN = strings.TrimSpace(entity.NameEN)
		entity.ConfidenceScore = clamp01(entity.ConfidenceScore)
		if entity.MentionCount < 1 {
			entity.MentionCount = 1
		}
		if len(entity.ContextHints) > maxContextHints {
			entity.ContextHints = entity.ContextHints[:maxContextHints]
		}
		switch entity.EntityType {
		case mapping.TypeArtist, mapping.TypeGroup, mapping.TypeEvent:
		default:
			return nil, fmt.Errorf("engine: unknown entity type %q", entity.EntityType)
		}
	}

	return &extraction, nil
}

// normalizeHashtags prefixes '#', drops empties, dedupes, and caps.
func normalizeHashtags(tags []string) []string {
	var normalized []string
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || tag == "#" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
		if len(normalized) == maxHashtags {
			break
		}
	}
	return normalized
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
