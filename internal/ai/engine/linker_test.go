// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/group"
	"github.com/hyeonlab/kwave/internal/core/mapping"
	"github.com/hyeonlab/kwave/pkg/pointer"
)

func registryArtist(id, nameKO string, nameEN, stageKO, stageEN *string) artist.RegistryEntry {
	return artist.RegistryEntry{ID: id, NameKO: nameKO, NameEN: nameEN, StageNameKO: stageKO, StageNameEN: stageEN}
}

/*
TestLinkEntity_ArtistScoring exercises the score weights: an exact match
earns the exact weight plus the substring weight it subsumes, a bare
substring earns only the substring weight, and the total caps at 1.0.
*/
func TestLinkEntity_ArtistScoring(t *testing.T) {
	artists := []artist.RegistryEntry{
		registryArtist("a1", "이지은", pointer.To("Lee Ji-eun"), pointer.To("아이유"), pointer.To("IU")),
		registryArtist("a2", "김지수", pointer.To("Kim Ji-soo"), nil, nil),
	}

	tests := []struct {
		name      string
		entity    DetectedEntity
		wantID    string
		wantScore float64
	}{
		{
			name:      "exact_stage_and_english",
			entity:    DetectedEntity{EntityType: mapping.TypeArtist, NameKO: "아이유", NameEN: "IU"},
			wantID:    "a1",
			wantScore: 1.0, // stage KO exact 0.75 + stage EN exact 0.3, capped
		},
		{
			name:      "exact_korean_only",
			entity:    DetectedEntity{EntityType: mapping.TypeArtist, NameKO: "김지수"},
			wantID:    "a2",
			wantScore: 0.80, // name KO exact 0.5 + subsumed substring 0.3
		},
		{
			name:      "substring_korean_plus_english",
			entity:    DetectedEntity{EntityType: mapping.TypeArtist, NameKO: "가수 아이유의", NameEN: "IU"},
			wantID:    "a1",
			wantScore: 0.55, // stage KO substring 0.25 + stage EN exact 0.3
		},
		{
			name:      "case_insensitive_english",
			entity:    DetectedEntity{EntityType: mapping.TypeArtist, NameKO: "이지은", NameEN: "iu"},
			wantID:    "a1",
			wantScore: 1.0, // name KO exact 0.8 + stage EN exact 0.3, capped
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := linkEntity(tt.entity, artists, nil, 0)
			require.NotNil(t, link.ArtistID)
			assert.Equal(t, tt.wantID, *link.ArtistID)
			assert.InDelta(t, tt.wantScore, link.Score, 1e-9)
		})
	}
}

/*
TestLinkEntity_NoDoubleCount verifies a stage name equal to the primary name
contributes only once.
*/
func TestLinkEntity_NoDoubleCount(t *testing.T) {
	artists := []artist.RegistryEntry{
		registryArtist("a1", "청하", pointer.To("Chung Ha"), pointer.To("청하"), pointer.To("CHUNG HA")),
	}

	link := linkEntity(DetectedEntity{EntityType: mapping.TypeArtist, NameKO: "청하"}, artists, nil, 0)
	require.NotNil(t, link.ArtistID)
	assert.InDelta(t, 0.80, link.Score, 1e-9)
}

/*
TestLinkEntity_ScoreCap verifies the total never exceeds 1.0.
*/
func TestLinkEntity_ScoreCap(t *testing.T) {
	artists := []artist.RegistryEntry{
		registryArtist("a1", "태연", pointer.To("Taeyeon"), pointer.To("탱구"), pointer.To("Taengoo")),
	}
	entity := DetectedEntity{EntityType: mapping.TypeArtist, NameKO: "태연 탱구", NameEN: "Taeyeon Taengoo"}

	link := linkEntity(entity, artists, nil, 0)
	require.NotNil(t, link.ArtistID)
	assert.LessOrEqual(t, link.Score, 1.0)
}

/*
TestLinkEntity_BelowFloor verifies candidates under the minimum score stay
unlinked.
*/
func TestLinkEntity_BelowFloor(t *testing.T) {
	artists := []artist.RegistryEntry{
		registryArtist("a1", "이지은", pointer.To("Lee Ji-eun"), nil, nil),
	}

	// English substring alone scores 0.1, under the 0.35 floor.
	link := linkEntity(DetectedEntity{EntityType: mapping.TypeArtist, NameKO: "다른사람", NameEN: "Lee"}, artists, nil, 0)
	assert.Nil(t, link.ArtistID)
	assert.Nil(t, link.GroupID)
	assert.Zero(t, link.Score)
}

/*
TestLinkEntity_Group verifies group candidates link through the group
registry and never set an artist id.
*/
func TestLinkEntity_Group(t *testing.T) {
	groups := []group.RegistryEntry{
		{ID: "g1", NameKO: "뉴진스", NameEN: pointer.To("NewJeans")},
		{ID: "g2", NameKO: "에스파", NameEN: pointer.To("aespa")},
	}
	entity := DetectedEntity{EntityType: mapping.TypeGroup, NameKO: "뉴진스", NameEN: "newjeans"}

	link := linkEntity(entity, nil, groups, 0)
	require.NotNil(t, link.GroupID)
	assert.Equal(t, "g1", *link.GroupID)
	assert.Nil(t, link.ArtistID)
	assert.InDelta(t, 1.0, link.Score, 1e-9)
}

/*
TestLinkEntity_ExactBothNamesSaturates verifies a group matched exactly on
both its Korean and English names reaches the 1.0 ceiling.
*/
func TestLinkEntity_ExactBothNamesSaturates(t *testing.T) {
	groups := []group.RegistryEntry{
		{ID: "g1", NameKO: "방탄소년단", NameEN: pointer.To("BTS")},
	}
	entity := DetectedEntity{EntityType: mapping.TypeGroup, NameKO: "방탄소년단", NameEN: "BTS"}

	link := linkEntity(entity, nil, groups, 0)
	require.NotNil(t, link.GroupID)
	assert.InDelta(t, 1.0, link.Score, 1e-9)
}

/*
TestLinkEntity_EventNeverLinks verifies EVENT entities bypass both
registries.
*/
func TestLinkEntity_EventNeverLinks(t *testing.T) {
	artists := []artist.RegistryEntry{registryArtist("a1", "MAMA", nil, nil, nil)}
	groups := []group.RegistryEntry{{ID: "g1", NameKO: "MAMA"}}

	link := linkEntity(DetectedEntity{EntityType: mapping.TypeEvent, NameKO: "MAMA"}, artists, groups, 0)
	assert.Nil(t, link.ArtistID)
	assert.Nil(t, link.GroupID)
}

/*
TestLinkEntity_BestCandidateWins verifies the highest scorer is chosen among
several partial matches.
*/
func TestLinkEntity_BestCandidateWins(t *testing.T) {
	artists := []artist.RegistryEntry{
		registryArtist("partial", "윈터", nil, nil, nil),
		registryArtist("exact", "카리나", pointer.To("Karina"), nil, nil),
	}
	entity := DetectedEntity{EntityType: mapping.TypeArtist, NameKO: "카리나", NameEN: "Karina"}

	link := linkEntity(entity, artists, nil, 0)
	require.NotNil(t, link.ArtistID)
	assert.Equal(t, "exact", *link.ArtistID)
}
