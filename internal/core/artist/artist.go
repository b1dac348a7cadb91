// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package artist manages solo performer profiles in the entity registry.

Every mutable profile field is evidence-based: it is paired with a
source-article foreign key identifying which scraped article last supplied
its value. The AI pipeline may only mutate these fields through the
resolver's whitelisted transaction methods, which update field, provenance,
and audit logs atomically.

# Core Responsibility

  - Registry: Defines the [Artist] entity and the lightweight [RegistryEntry]
    projection used by the intelligence engine's linking cache.
  - Provenance: Tracks per-field source articles ([Provenance]).
  - Enrichment: One-shot profile enrichment stamped by enriched_at.
*/
package artist

import "time"

// # Enums

// Gender is the closed gender enumeration.
type Gender string

const (
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
	GenderMixed   Gender = "MIXED"
	GenderUnknown Gender = "UNKNOWN"
)

// # Core Entity

// Artist represents a solo performer.
type Artist struct {
	ID   string `json:"id"` // UUIDv7
	Slug string `json:"slug"`

	// Evidence-based profile fields.
	NameKO        string     `json:"name_ko"`
	NameEN        *string    `json:"name_en,omitempty"`
	StageNameKO   *string    `json:"stage_name_ko,omitempty"`
	StageNameEN   *string    `json:"stage_name_en,omitempty"`
	Gender        Gender     `json:"gender"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	NationalityKO *string    `json:"nationality_ko,omitempty"`
	NationalityEN *string    `json:"nationality_en,omitempty"`
	MBTI          *string    `json:"mbti,omitempty"` // ^[A-Z]{4}$ when present
	BloodType     *string    `json:"blood_type,omitempty"`
	HeightCM      *float64   `json:"height_cm,omitempty"`
	WeightKG      *float64   `json:"weight_kg,omitempty"`
	BioKO         *string    `json:"bio_ko,omitempty"`
	BioEN         *string    `json:"bio_en,omitempty"`

	// Per-field provenance. Never serialized through the public API.
	Sources Provenance `json:"-"`

	// System fields.
	IsVerified           bool       `json:"is_verified"`
	GlobalPriority       *int       `json:"global_priority,omitempty"` // 1 full, 2 title+summary, 3 KO only; NULL≈1
	EnrichedAt           *time.Time `json:"-"`
	LastVerifiedAt       *time.Time `json:"-"`
	DataReliabilityScore float64    `json:"data_reliability_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provenance pairs each mutable profile field with the article that last
// supplied its value.
type Provenance struct {
	NameKO        *string
	NameEN        *string
	StageNameKO   *string
	StageNameEN   *string
	Gender        *string
	BirthDate     *string
	NationalityKO *string
	NationalityEN *string
	MBTI          *string
	BloodType     *string
	HeightCM      *string
	WeightKG      *string
	BioKO         *string
	BioEN         *string
}

// # Registry Projection

// RegistryEntry is the lightweight artist projection cached by the
// intelligence engine for tier selection and entity linking.
type RegistryEntry struct {
	ID             string
	NameKO         string
	NameEN         *string
	StageNameKO    *string
	StageNameEN    *string
	GlobalPriority *int
}

// # Side Tables

// SNS is a social media account owned by an artist.
// Uniqueness: one row per (artist, platform).
type SNS struct {
	ID              string    `json:"id"`
	ArtistID        string    `json:"-"`
	Platform        string    `json:"platform"`
	URL             string    `json:"url"`
	Handle          *string   `json:"handle,omitempty"`
	FollowerCount   *int64    `json:"follower_count,omitempty"`
	SourceArticleID *string   `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// Education is a school or academy an artist attended.
type Education struct {
	ID              string    `json:"id"`
	ArtistID        string    `json:"-"`
	SchoolName      string    `json:"school_name"`
	Degree          *string   `json:"degree,omitempty"`
	SourceArticleID *string   `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// # Search & Filtering

// Filter holds parameters for searching and listing artists.
type Filter struct {
	Query          string // matches name_ko, name_en, stage names
	GlobalPriority *int
}

// # Field Identifiers

// Column names of the evidence-based profile fields. The resolver's
// whitelist is expressed in terms of these constants so that no free-form
// string ever reaches SQL composition.
const (
	FieldNameKO        = "name_ko"
	FieldNameEN        = "name_en"
	FieldStageNameKO   = "stage_name_ko"
	FieldStageNameEN   = "stage_name_en"
	FieldGender        = "gender"
	FieldBirthDate     = "birth_date"
	FieldNationalityKO = "nationality_ko"
	FieldNationalityEN = "nationality_en"
	FieldMBTI          = "mbti"
	FieldBloodType     = "blood_type"
	FieldHeightCM      = "height_cm"
	FieldWeightKG      = "weight_kg"
	FieldBioKO         = "bio_ko"
	FieldBioEN         = "bio_en"
)

// EnrichmentPatch carries fields extracted by the profile enricher.
// Nil members are not touched; non-nil members fill only empty columns
// unless the bio-overwrite sweep is active.
type EnrichmentPatch struct {
	NameEN        *string
	StageNameEN   *string
	Gender        *Gender
	BirthDate     *time.Time
	NationalityKO *string
	NationalityEN *string
	MBTI          *string
	BloodType     *string
	HeightCM      *float64
	WeightKG      *float64
	BioKO         *string
	BioEN         *string
}
