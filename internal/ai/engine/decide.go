// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package engine

import (
	"fmt"
	"strings"

	"github.com/hyeonlab/kwave/internal/core/article"
)

// Thresholds drive the status decision.
type Thresholds struct {
	EntityConfidence float64 // per-entity floor, default 0.80
	MinRelevance     float64 // default 0.30
	MinConfidence    float64 // default 0.60
	AutoCommit       float64 // overall confidence for VERIFIED, default 0.95
	MinMatchScore    float64 // linking floor, default 0.35
}

// DefaultThresholds returns the production values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EntityConfidence: 0.80,
		MinRelevance:     0.30,
		MinConfidence:    0.60,
		AutoCommit:       0.95,
		MinMatchScore:    DefaultMinMatchScore,
	}
}

// reviewNotePrefix starts every manual-review system note.
const reviewNotePrefix = "MANUAL_REVIEW 사유: "

// Decision is the outcome of the status rules for one article.
type Decision struct {
	Status  article.Status
	Reasons []string
}

// Note renders the system_note value; empty when no reasons exist.
func (decision Decision) Note() string {
	if len(decision.Reasons) == 0 {
		return ""
	}
	return reviewNotePrefix + strings.Join(decision.Reasons, "; ")
}

/*
decide applies the status rules.

Description: Any collected reason forces MANUAL_REVIEW. With no reasons,
overall confidence at or above the auto-commit bar yields VERIFIED,
otherwise PROCESSED. The empty-translation check is waived for KO_ONLY,
which never requested a translation.
*/
func decide(extraction *Extraction, tier Tier, thresholds Thresholds) Decision {
	var reasons []string

	for _, entity := range extraction.Detected {
		if entity.ConfidenceScore < thresholds.EntityConfidence {
			reasons = append(reasons, fmt.Sprintf(
				"엔티티 '%s' 신뢰도 %.2f < %.2f", entity.NameKO, entity.ConfidenceScore, thresholds.EntityConfidence))
		}
		if entity.IsAmbiguous {
			reason := fmt.Sprintf("엔티티 '%s' 동명이인 모호성", entity.NameKO)
			if entity.AmbiguityReason != "" {
				reason += " (" + entity.AmbiguityReason + ")"
			}
			reasons = append(reasons, reason)
		}
	}

	if extraction.RelevanceScore < thresholds.MinRelevance {
		reasons = append(reasons, fmt.Sprintf(
			"관련성 점수 %.2f < %.2f", extraction.RelevanceScore, thresholds.MinRelevance))
	}
	if extraction.Confidence < thresholds.MinConfidence {
		reasons = append(reasons, fmt.Sprintf(
			"전체 신뢰도 %.2f < %.2f", extraction.Confidence, thresholds.MinConfidence))
	}
	if tier != TierKOOnly && (strings.TrimSpace(extraction.TitleEN) == "" || strings.TrimSpace(extraction.TopicSummaryEN) == "") {
		reasons = append(reasons, "영문 번역 누락")
	}

	if len(reasons) > 0 {
		return Decision{Status: article.StatusManualReview, Reasons: reasons}
	}
	if extraction.Confidence >= thresholds.AutoCommit {
		return Decision{Status: article.StatusVerified}
	}
	return Decision{Status: article.StatusProcessed}
}
