// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/core/mapping"
)

func cleanExtraction(confidence float64) *Extraction {
	return &Extraction{
		TitleKO:        "아이유 컴백",
		TitleEN:        "IU Comeback",
		TopicSummary:   "요약",
		TopicSummaryEN: "Summary",
		RelevanceScore: 0.9,
		Confidence:     confidence,
		Detected: []DetectedEntity{
			{NameKO: "아이유", EntityType: mapping.TypeArtist, ConfidenceScore: 0.92, MentionCount: 3},
		},
	}
}

/*
TestDecide_StatusBoundaries exercises the threshold edges around the
auto-commit and entity confidence bars.
*/
func TestDecide_StatusBoundaries(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name    string
		mutate  func(*Extraction)
		tier    Tier
		want    article.Status
		reasons int
	}{
		{
			name:   "auto_commit_at_bar",
			mutate: func(e *Extraction) { e.Confidence = 0.95 },
			tier:   TierFull,
			want:   article.StatusVerified,
		},
		{
			name:   "just_under_auto_commit",
			mutate: func(e *Extraction) { e.Confidence = 0.949 },
			tier:   TierFull,
			want:   article.StatusProcessed,
		},
		{
			name:    "entity_confidence_at_boundary",
			mutate:  func(e *Extraction) { e.Detected[0].ConfidenceScore = 0.80 },
			tier:    TierFull,
			want:    article.StatusVerified,
			reasons: 0,
		},
		{
			name:    "entity_confidence_just_under",
			mutate:  func(e *Extraction) { e.Detected[0].ConfidenceScore = 0.7999 },
			tier:    TierFull,
			want:    article.StatusManualReview,
			reasons: 1,
		},
		{
			name:    "low_relevance",
			mutate:  func(e *Extraction) { e.RelevanceScore = 0.29 },
			tier:    TierFull,
			want:    article.StatusManualReview,
			reasons: 1,
		},
		{
			name:    "low_overall_confidence",
			mutate:  func(e *Extraction) { e.Confidence = 0.59 },
			tier:    TierFull,
			want:    article.StatusManualReview,
			reasons: 1,
		},
		{
			name: "ambiguous_entity",
			mutate: func(e *Extraction) {
				e.Detected[0].IsAmbiguous = true
				e.Detected[0].AmbiguityReason = "동명이인 배우 존재"
			},
			tier:    TierFull,
			want:    article.StatusManualReview,
			reasons: 1,
		},
		{
			name:    "missing_translation_full_tier",
			mutate:  func(e *Extraction) { e.TitleEN = "" },
			tier:    TierFull,
			want:    article.StatusManualReview,
			reasons: 1,
		},
		{
			name: "missing_translation_ok_for_ko_only",
			mutate: func(e *Extraction) {
				e.TitleEN = ""
				e.TopicSummaryEN = ""
			},
			tier: TierKOOnly,
			want: article.StatusVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extraction := cleanExtraction(0.96)
			tt.mutate(extraction)

			decision := decide(extraction, tt.tier, thresholds)
			assert.Equal(t, tt.want, decision.Status)
			assert.Len(t, decision.Reasons, tt.reasons)
		})
	}
}

/*
TestDecide_ReasonsAccumulate verifies every independent failure contributes
its own reason, all rendered into the note.
*/
func TestDecide_ReasonsAccumulate(t *testing.T) {
	extraction := cleanExtraction(0.50)
	extraction.RelevanceScore = 0.10
	extraction.Detected[0].ConfidenceScore = 0.40
	extraction.TitleEN = ""

	decision := decide(extraction, TierFull, DefaultThresholds())
	assert.Equal(t, article.StatusManualReview, decision.Status)
	assert.Len(t, decision.Reasons, 4)

	note := decision.Note()
	assert.Contains(t, note, "MANUAL_REVIEW 사유: ")
	assert.Contains(t, note, "영문 번역 누락")
}

/*
TestDecision_Note_EmptyWhenClean verifies a clean decision renders no note.
*/
func TestDecision_Note_EmptyWhenClean(t *testing.T) {
	decision := decide(cleanExtraction(0.96), TierFull, DefaultThresholds())
	assert.Empty(t, decision.Note())
}
