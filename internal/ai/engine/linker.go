// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package engine

import (
	"strings"

	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/group"
	"github.com/hyeonlab/kwave/internal/core/mapping"
)

// DefaultMinMatchScore is the floor below which the best candidate is
// discarded and the mapping stays unlinked.
const DefaultMinMatchScore = 0.35

// Contribution weights for the candidate scorer. An exact match subsumes
// the substring match, so it earns both contributions. Stage-name weights
// apply only when the stage name is distinct from the primary name, so a
// single string never scores twice.
const (
	weightNameKOExact      = 0.50
	weightNameKOSubstring  = 0.30
	weightStageKOExact     = 0.50
	weightStageKOSubstring = 0.25
	weightNameENExact      = 0.20
	weightNameENSubstring  = 0.10
	weightStageENExact     = 0.20
	weightStageENSubstring = 0.10
)

// Link is the outcome of matching one detected entity against the registry.
type Link struct {
	ArtistID *string
	GroupID  *string
	Score    float64
}

/*
linkEntity scores every registry candidate of the entity's type and returns
the winner, or an unlinked result when no candidate reaches minScore.
EVENT entities are never linked.
*/
func linkEntity(entity DetectedEntity, artists []artist.RegistryEntry, groups []group.RegistryEntry, minScore float64) Link {
	if minScore == 0 {
		minScore = DefaultMinMatchScore
	}

	switch entity.EntityType {
	case mapping.TypeArtist:
		var bestID string
		best := 0.0
		for _, candidate := range artists {
			score := scoreArtist(entity, candidate)
			if score > best {
				best = score
				bestID = candidate.ID
			}
		}
		if best >= minScore {
			return Link{ArtistID: &bestID, Score: best}
		}

	case mapping.TypeGroup:
		var bestID string
		best := 0.0
		for _, candidate := range groups {
			score := scoreGroup(entity, candidate)
			if score > best {
				best = score
				bestID = candidate.ID
			}
		}
		if best >= minScore {
			return Link{GroupID: &bestID, Score: best}
		}
	}

	return Link{}
}

func scoreArtist(entity DetectedEntity, candidate artist.RegistryEntry) float64 {
	score := 0.0

	score += matchKO(entity.NameKO, candidate.NameKO, weightNameKOExact, weightNameKOSubstring)

	if candidate.StageNameKO != nil && *candidate.StageNameKO != candidate.NameKO {
		score += matchKO(entity.NameKO, *candidate.StageNameKO, weightStageKOExact, weightStageKOSubstring)
	}

	if candidate.NameEN != nil {
		score += matchEN(entity.NameEN, *candidate.NameEN, weightNameENExact, weightNameENSubstring)
	}

	if candidate.StageNameEN != nil && (candidate.NameEN == nil || !strings.EqualFold(*candidate.StageNameEN, *candidate.NameEN)) {
		score += matchEN(entity.NameEN, *candidate.StageNameEN, weightStageENExact, weightStageENSubstring)
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func scoreGroup(entity DetectedEntity, candidate group.RegistryEntry) float64 {
	score := 0.0

	score += matchKO(entity.NameKO, candidate.NameKO, weightNameKOExact, weightNameKOSubstring)

	if candidate.NameEN != nil {
		score += matchEN(entity.NameEN, *candidate.NameEN, weightNameENExact, weightNameENSubstring)
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// matchKO scores exact equality, else substring containment in either
// direction. Exact equality is also containment, so it earns both weights.
func matchKO(detected, candidate string, exact, substring float64) float64 {
	if detected == "" || candidate == "" {
		return 0
	}
	if detected == candidate {
		return exact + substring
	}
	if strings.Contains(detected, candidate) || strings.Contains(candidate, detected) {
		return substring
	}
	return 0
}

// matchEN is matchKO with case folding.
func matchEN(detected, candidate string, exact, substring float64) float64 {
	if detected == "" || candidate == "" {
		return 0
	}
	detectedLower := strings.ToLower(detected)
	candidateLower := strings.ToLower(candidate)
	if detectedLower == candidateLower {
		return exact + substring
	}
	if strings.Contains(detectedLower, candidateLower) || strings.Contains(candidateLower, detectedLower) {
		return substring
	}
	return 0
}
