// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package artist

import (
	"context"
	"time"
)

// # Artist Data Access

// Repository defines the data access contract for artists.
type Repository interface {

	/*
		List returns a filtered, paginated slice of artists and the total count.

		Parameters:
		  - context: context.Context
		  - filter: Filter (Search query, global priority)
		  - limit, offset: int

		Returns:
		  - []*Artist: Slice of matching artists
		  - int: Total record count
		  - error: Database retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Artist, int, error)

	/*
		FindByID retrieves an artist by UUID, including provenance columns.
	*/
	FindByID(context context.Context, id string) (*Artist, error)

	/*
		FindBySlug retrieves an artist by its human-readable identifier.
	*/
	FindBySlug(context context.Context, slug string) (*Artist, error)

	/*
		Create persists a new artist.
	*/
	Create(context context.Context, artist *Artist) error

	/*
		Registry returns the lightweight projection of every artist for the
		intelligence engine's linking cache.
	*/
	Registry(context context.Context) ([]RegistryEntry, error)

	/*
		TouchVerified stamps last_verified_at on an artist whose stored value
		was independently confirmed by a fresh article.
	*/
	TouchVerified(context context.Context, id string, at time.Time) error

	// # Enrichment

	/*
		ListUnenriched returns artists with enriched_at IS NULL, ordered by
		global_priority ascending (NULL last) then id.
	*/
	ListUnenriched(context context.Context, limit int) ([]*Artist, error)

	/*
		ApplyEnrichment fills empty profile columns from the patch and stamps
		enriched_at. When overwriteBio is true, bio fields may be replaced
		even when already populated; every other field remains fill-only.
	*/
	ApplyEnrichment(context context.Context, id string, patch EnrichmentPatch, overwriteBio bool) error

	/*
		ResetSparseEnrichment clears enriched_at for up to limit artists whose
		critical fields (name_en, birth_date, bio_ko) are all still empty, so
		the periodic sweep can try them again.

		Returns:
		  - int: Number of artists reset
	*/
	ResetSparseEnrichment(context context.Context, limit int) (int, error)

	// # Side Tables

	/*
		ListSNS returns the artist's social accounts.
	*/
	ListSNS(context context.Context, artistID string) ([]*SNS, error)

	/*
		UpsertSNS inserts or refreshes a social account, unique per
		(artist, platform).
	*/
	UpsertSNS(context context.Context, sns *SNS) error

	/*
		ListEducations returns the artist's education records.
	*/
	ListEducations(context context.Context, artistID string) ([]*Education, error)
}
