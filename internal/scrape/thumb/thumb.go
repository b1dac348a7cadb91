// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package thumb is the boundary to the thumbnail processing pipeline.

Scraping only needs two hooks: hand off a freshly parsed article's OG image,
and backfill articles that ended up without one. The full pipeline (resize,
recompress, object-store upload) lives outside this repository; Noop keeps
local and CI runs self-contained by simply recording the original URL.
*/
package thumb

import (
	"context"
	"log/slog"

	"github.com/hyeonlab/kwave/internal/core/article"
)

// Service processes representative article images.
type Service interface {

	/*
		ProcessArticleImage ingests the article's OG image URL and returns
		the URL to store as the thumbnail.
	*/
	ProcessArticleImage(context context.Context, articleID, imageURL string) (string, error)
}

// ArticleUpdater is the article-store slice needed for backfill.
type ArticleUpdater interface {
	ListMissingThumbnail(context context.Context, limit int) ([]*article.Article, error)
	UpdateThumbnail(context context.Context, id, thumbnailURL string) error
}

// PageImage re-extracts an OG image for a stored article page.
type PageImage func(context context.Context, sourceURL string) (string, error)

// # Noop Implementation

// Noop passes the original image URL through untouched.
type Noop struct{}

// NewNoop constructs the pass-through [Service].
func NewNoop() *Noop { return &Noop{} }

func (*Noop) ProcessArticleImage(_ context.Context, _, imageURL string) (string, error) {
	return imageURL, nil
}

// # Backfill

// Backfiller re-fetches OG images for articles lacking a thumbnail.
type Backfiller struct {
	service   Service
	articles  ArticleUpdater
	pageImage PageImage
	logger    *slog.Logger
}

// NewBackfiller constructs a [Backfiller].
func NewBackfiller(service Service, articles ArticleUpdater, pageImage PageImage, logger *slog.Logger) *Backfiller {
	return &Backfiller{
		service:   service,
		articles:  articles,
		pageImage: pageImage,
		logger:    logger,
	}
}

/*
Run backfills up to limit articles. Per-article failures are logged and
skipped; the worker treats the whole pass as best-effort.

Returns:
  - int: Number of thumbnails written
*/
func (backfiller *Backfiller) Run(context context.Context, limit int) (int, error) {
	articles, err := backfiller.articles.ListMissingThumbnail(context, limit)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, art := range articles {
		imageURL, err := backfiller.pageImage(context, art.SourceURL)
		if err != nil || imageURL == "" {
			backfiller.logger.Debug("thumbnail backfill skipped",
				slog.String("article_id", art.ID))
			continue
		}

		stored, err := backfiller.service.ProcessArticleImage(context, art.ID, imageURL)
		if err != nil {
			backfiller.logger.Warn("thumbnail processing failed",
				slog.String("article_id", art.ID),
				slog.String("error", err.Error()))
			continue
		}

		if err := backfiller.articles.UpdateThumbnail(context, art.ID, stored); err != nil {
			backfiller.logger.Warn("thumbnail write failed",
				slog.String("article_id", art.ID),
				slog.String("error", err.Error()))
			continue
		}
		updated++
	}

	return updated, nil
}
