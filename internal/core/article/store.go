// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package article

import (
	"context"
	"time"
)

// # Article Data Access

// Repository defines the data access contract for articles.
type Repository interface {

	/*
		Upsert inserts an article or merges it into the existing row keyed by
		source URL. Merge semantics are COALESCE-like: an incoming NULL never
		overwrites a stored non-NULL value.

		Parameters:
		  - context: context.Context
		  - article: *Article (ID is assigned on insert)

		Returns:
		  - error: Persistence failures
	*/
	Upsert(context context.Context, article *Article) error

	/*
		FindByID retrieves an article by its UUID, regardless of status.
	*/
	FindByID(context context.Context, id string) (*Article, error)

	/*
		FindBySourceURL retrieves an article by its unique source URL.
	*/
	FindBySourceURL(context context.Context, sourceURL string) (*Article, error)

	/*
		StatusByURLs bulk-resolves the current process status for a set of
		source URLs. URLs with no stored row are absent from the result map.
	*/
	StatusByURLs(context context.Context, urls []string) (map[string]Status, error)

	/*
		MaxPublishedAt returns the newest published_at in the store for a
		language, or nil when the store is empty. Feed discovery uses it to
		filter already-seen entries.
	*/
	MaxPublishedAt(context context.Context, language string) (*time.Time, error)

	/*
		ClaimPending atomically claims up to limit PENDING articles for AI
		processing, transitioning them to SCRAPED as an in-progress marker.
		Row-level locks skip rows already claimed by concurrent workers.
	*/
	ClaimPending(context context.Context, limit int) ([]*Article, error)

	/*
		ListByStatus returns up to limit articles in the given status,
		oldest first.
	*/
	ListByStatus(context context.Context, status Status, limit int) ([]*Article, error)

	/*
		ApplyProcessing performs the engine's COALESCE-style write-through
		and the status transition in one statement.
	*/
	ApplyProcessing(context context.Context, update ProcessingUpdate) error

	/*
		SetStatus transitions an article, optionally recording a system note.
		Used by the simple post-processor and error paths.
	*/
	SetStatus(context context.Context, id string, status Status, note *string) error

	/*
		UpdateThumbnail stores a thumbnail URL for an article that lacks one.
	*/
	UpdateThumbnail(context context.Context, id string, thumbnailURL string) error

	/*
		ListMissingThumbnail returns scraped articles without a thumbnail,
		newest first, for the worker's best-effort backfill.
	*/
	ListMissingThumbnail(context context.Context, limit int) ([]*Article, error)

	// # Public Projection

	/*
		ListPublic returns PROCESSED/VERIFIED articles matching the filter,
		newest first, with total count for pagination.
	*/
	ListPublic(context context.Context, filter Filter, limit, offset int) ([]*Article, int, error)

	/*
		FindPublicByID retrieves a single public article including content_ko.
	*/
	FindPublicByID(context context.Context, id string) (*Article, error)

	/*
		LatestThumbnailForArtistName returns the thumbnail of the most recent
		public article whose denormalized artist_name_ko matches, falling back
		to any article mapped to the artist id.
	*/
	LatestThumbnailForArtistName(context context.Context, nameKO, artistID string) (*string, error)
}
