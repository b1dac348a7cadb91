// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package group manages band, team, and unit profiles in the entity registry.

Groups mirror the artist entity's evidence-based field model: every mutable
profile field carries a source-article foreign key, and all AI-driven
mutations flow through the resolver's whitelisted transaction methods.
Membership edges connect groups to the artists in them, with role sets and
open-ended tenure.
*/
package group

import "time"

// # Enums

// ActivityStatus is the closed activity enumeration for a group.
type ActivityStatus string

const (
	StatusActive    ActivityStatus = "ACTIVE"
	StatusHiatus    ActivityStatus = "HIATUS"
	StatusDisbanded ActivityStatus = "DISBANDED"
	StatusSoloOnly  ActivityStatus = "SOLO_ONLY"
)

// MemberRole is a position an artist holds in a group. A membership edge
// carries a set of these.
type MemberRole string

const (
	RoleLeader    MemberRole = "LEADER"
	RoleVocalist  MemberRole = "VOCALIST"
	RoleRapper    MemberRole = "RAPPER"
	RoleDancer    MemberRole = "DANCER"
	RoleCenter    MemberRole = "CENTER"
	RoleVisual    MemberRole = "VISUAL"
	RoleMaknae    MemberRole = "MAKNAE"
	RoleProducer  MemberRole = "PRODUCER"
)

// # Core Entity

// Group represents a band, team, or sub-unit.
type Group struct {
	ID   string `json:"id"` // UUIDv7
	Slug string `json:"slug"`

	// Evidence-based profile fields.
	NameKO         string         `json:"name_ko"`
	NameEN         *string        `json:"name_en,omitempty"`
	DebutDate      *time.Time     `json:"debut_date,omitempty"`
	AgencyKO       *string        `json:"agency_ko,omitempty"`
	AgencyEN       *string        `json:"agency_en,omitempty"`
	FandomNameKO   *string        `json:"fandom_name_ko,omitempty"`
	FandomNameEN   *string        `json:"fandom_name_en,omitempty"`
	ActivityStatus ActivityStatus `json:"activity_status"`
	BioKO          *string        `json:"bio_ko,omitempty"`
	BioEN          *string        `json:"bio_en,omitempty"`

	// Per-field provenance. Never serialized through the public API.
	Sources Provenance `json:"-"`

	// System fields.
	IsVerified     bool       `json:"is_verified"`
	GlobalPriority *int       `json:"global_priority,omitempty"`
	EnrichedAt     *time.Time `json:"-"`
	LastVerifiedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provenance pairs each mutable profile field with the article that last
// supplied its value.
type Provenance struct {
	NameKO         *string
	NameEN         *string
	DebutDate      *string
	AgencyKO       *string
	AgencyEN       *string
	FandomNameKO   *string
	FandomNameEN   *string
	ActivityStatus *string
	BioKO          *string
	BioEN          *string
}

// # Membership

// Member is an Artist↔Group membership edge. A NULL LeftAt means the
// membership is currently active. An artist may hold several concurrent
// memberships (main group plus sub-units).
type Member struct {
	ID              string       `json:"id"`
	GroupID         string       `json:"-"`
	ArtistID        string       `json:"artist_id"`
	ArtistNameKO    string       `json:"artist_name_ko"`
	ArtistNameEN    *string      `json:"artist_name_en,omitempty"`
	ArtistSlug      string       `json:"artist_slug"`
	Roles           []MemberRole `json:"roles"`
	JoinedAt        *time.Time   `json:"joined_at,omitempty"`
	LeftAt          *time.Time   `json:"left_at,omitempty"`
	IsSubUnit       bool         `json:"is_sub_unit"`
	SourceArticleID *string      `json:"-"`
}

// # Side Tables

// SNS is a social media account owned by a group.
// Uniqueness: one row per (group, platform).
type SNS struct {
	ID              string    `json:"id"`
	GroupID         string    `json:"-"`
	Platform        string    `json:"platform"`
	URL             string    `json:"url"`
	Handle          *string   `json:"handle,omitempty"`
	FollowerCount   *int64    `json:"follower_count,omitempty"`
	SourceArticleID *string   `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// # Registry Projection

// RegistryEntry is the lightweight group projection cached by the
// intelligence engine for entity linking.
type RegistryEntry struct {
	ID             string
	NameKO         string
	NameEN         *string
	FandomNameKO   *string
	GlobalPriority *int
}

// # Search & Filtering

// Filter holds parameters for searching and listing groups.
type Filter struct {
	Query          string // matches name_ko, name_en
	ActivityStatus ActivityStatus
}

// # Field Identifiers

// Column names of the evidence-based profile fields, used to express the
// resolver's whitelist without free-form SQL strings.
const (
	FieldNameKO         = "name_ko"
	FieldNameEN         = "name_en"
	FieldDebutDate      = "debut_date"
	FieldAgencyKO       = "agency_ko"
	FieldAgencyEN       = "agency_en"
	FieldFandomNameKO   = "fandom_name_ko"
	FieldFandomNameEN   = "fandom_name_en"
	FieldActivityStatus = "activity_status"
	FieldBioKO          = "bio_ko"
	FieldBioEN          = "bio_en"
)

// EnrichmentPatch carries fields extracted by the profile enricher.
// Nil members are not touched; non-nil members fill only empty columns
// unless the bio-overwrite sweep is active.
type EnrichmentPatch struct {
	NameEN       *string
	DebutDate    *time.Time
	AgencyKO     *string
	AgencyEN     *string
	FandomNameKO *string
	FandomNameEN *string
	BioKO        *string
	BioEN        *string
}
