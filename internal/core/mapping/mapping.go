// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package mapping manages article↔entity edges produced by entity linking.

Each row records which artist, group, or unlinked event an article mentions,
with a linking confidence score and the context snippet that supported the
link. Rows for ARTIST and GROUP carry exactly one entity foreign key; EVENT
rows carry none. Re-processing an article replaces its edge set atomically.
*/
package mapping

import "time"

// EntityType classifies what a mapping edge points at.
type EntityType string

const (
	TypeArtist EntityType = "ARTIST"
	TypeGroup  EntityType = "GROUP"
	TypeEvent  EntityType = "EVENT"
)

// EntityMapping is one article↔entity edge.
//
// Invariant (enforced by a table check): exactly one of ArtistID/GroupID is
// set for ARTIST and GROUP rows; both are nil for EVENT rows.
type EntityMapping struct {
	ID        string     `json:"id"`
	ArticleID string     `json:"article_id"`
	Type      EntityType `json:"entity_type"`
	ArtistID  *string    `json:"artist_id,omitempty"`
	GroupID   *string    `json:"group_id,omitempty"`

	// Detection payload carried over from the extraction result.
	NameKO          string  `json:"name_ko"`
	NameEN          *string `json:"name_en,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"` // [0,1]; registry link score when linked, detection confidence otherwise
	ContextSnippet  *string `json:"context_snippet,omitempty"`
	MentionCount    int     `json:"mention_count"`
	IsPrimary       bool    `json:"is_primary"`

	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the edge satisfies the one-FK invariant.
func (m *EntityMapping) Valid() bool {
	switch m.Type {
	case TypeArtist:
		return m.ArtistID != nil && m.GroupID == nil
	case TypeGroup:
		return m.GroupID != nil && m.ArtistID == nil
	case TypeEvent:
		return m.ArtistID == nil && m.GroupID == nil
	default:
		return false
	}
}
