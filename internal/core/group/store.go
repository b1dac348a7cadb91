// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package group

import (
	"context"
	"time"
)

// # Group Data Access

// Repository defines the data access contract for groups.
type Repository interface {

	/*
		List returns a filtered, paginated slice of groups and the total count.

		Parameters:
		  - context: context.Context
		  - filter: Filter (Name search, activity status)
		  - limit, offset: int

		Returns:
		  - []*Group: Slice of matching groups
		  - int: Total record count
		  - error: Database retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Group, int, error)

	/*
		FindByID retrieves a group by UUID, including provenance columns.
	*/
	FindByID(context context.Context, id string) (*Group, error)

	/*
		FindBySlug retrieves a group by its human-readable identifier.
	*/
	FindBySlug(context context.Context, slug string) (*Group, error)

	/*
		Create persists a new group.
	*/
	Create(context context.Context, group *Group) error

	/*
		Registry returns the lightweight projection of every group for the
		intelligence engine's linking cache.
	*/
	Registry(context context.Context) ([]RegistryEntry, error)

	/*
		TouchVerified stamps last_verified_at on a group whose stored value
		was independently confirmed by a fresh article.
	*/
	TouchVerified(context context.Context, id string, at time.Time) error

	// # Membership

	/*
		ListMembers returns a group's membership edges joined with each
		member's display names, active members first, then by join date.
	*/
	ListMembers(context context.Context, groupID string) ([]*Member, error)

	/*
		UpsertMember inserts or refreshes a membership edge, unique per
		(group, artist, is_sub_unit).
	*/
	UpsertMember(context context.Context, member *Member) error

	// # Enrichment

	/*
		ListUnenriched returns groups with enriched_at IS NULL, ordered by
		global_priority ascending (NULL last) then id.
	*/
	ListUnenriched(context context.Context, limit int) ([]*Group, error)

	/*
		ApplyEnrichment fills empty profile columns from the patch and stamps
		enriched_at. When overwriteBio is true, bio fields may be replaced
		even when already populated; every other field remains fill-only.
	*/
	ApplyEnrichment(context context.Context, id string, patch EnrichmentPatch, overwriteBio bool) error

	/*
		ResetSparseEnrichment clears enriched_at for up to limit groups whose
		critical fields (name_en, debut_date, bio_ko) are all still empty.

		Returns:
		  - int: Number of groups reset
	*/
	ResetSparseEnrichment(context context.Context, limit int) (int, error)

	// # Side Tables

	/*
		ListSNS returns the group's social accounts.
	*/
	ListSNS(context context.Context, groupID string) ([]*SNS, error)

	/*
		UpsertSNS inserts or refreshes a social account, unique per
		(group, platform).
	*/
	UpsertSNS(context context.Context, sns *SNS) error
}
