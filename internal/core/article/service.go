// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package article

import (
	"context"
	"log/slog"
	"strings"
)

// # Service Layer

// Service orchestrates read-side business rules for the public article feed.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a new article [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

/*
ListArticles retrieves a paginated, filtered projection of public articles.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit, offset: int

Returns:
  - []*Article: Matching articles (provenance stripped)
  - int: Total matching count
  - error: Retrieval errors
*/
func (service *Service) ListArticles(context context.Context, filter Filter, limit, offset int) ([]*Article, int, error) {
	// Stored hashtags carry the # prefix; accept either form from callers.
	for i, tag := range filter.Hashtags {
		if !strings.HasPrefix(tag, "#") {
			filter.Hashtags[i] = "#" + tag
		}
	}

	articles, total, err := service.repo.ListPublic(context, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	// List views omit the body; only the detail endpoint ships content_ko.
	for _, a := range articles {
		a.ContentKO = ""
	}

	return articles, total, nil
}

/*
GetArticle retrieves a single public article by UUID, including content_ko.

Returns:
  - *Article: Hydrated entity
  - error: ErrNotFound when missing or not yet public
*/
func (service *Service) GetArticle(context context.Context, id string) (*Article, error) {
	return service.repo.FindPublicByID(context, id)
}
