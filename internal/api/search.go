// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package api

import (
	"net/http"

	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/group"
	"github.com/hyeonlab/kwave/internal/platform/respond"
	"github.com/hyeonlab/kwave/internal/platform/validate"
)

// searchSectionLimit caps each entity section of a unified search response.
const searchSectionLimit = 5

// # Unified Search

// SearchHandler serves GET /public/search: one query fanned out over
// articles, artists, and groups.
type SearchHandler struct {
	articles *article.Service
	artists  *artist.Service
	groups   *group.Service
}

// NewSearchHandler constructs a [SearchHandler].
func NewSearchHandler(articles *article.Service, artists *artist.Service, groups *group.Service) *SearchHandler {
	return &SearchHandler{
		articles: articles,
		artists:  artists,
		groups:   groups,
	}
}

// searchResponse groups the per-entity result sections.
type searchResponse struct {
	Articles []*article.Article `json:"articles"`
	Artists  []*artist.Artist   `json:"artists"`
	Groups   []*group.Group     `json:"groups"`
}

/*
GET /public/search.

Description: Runs one query across all public entities. Articles use
weighted full-text search; artists and groups use name matching. Each
section is capped independently, so a popular name cannot crowd out the
other entity kinds.

Request:
  - q: string (required, 2..100 runes)
  - language: string (articles only)

Response:
  - 200: searchResponse: Success
  - 400: ErrValidation: Missing or oversized query
*/
func (handler *SearchHandler) Search(writer http.ResponseWriter, request *http.Request) {
	queryParams := request.URL.Query()
	query := queryParams.Get("q")

	v := &validate.Validator{}
	v.Required("q", query)
	v.MinLen("q", query, 2)
	v.MaxLen("q", query, 100)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	articles, _, err := handler.articles.ListArticles(request.Context(), article.Filter{
		Query:    query,
		Language: queryParams.Get("language"),
	}, searchSectionLimit, 0)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	artists, _, err := handler.artists.ListArtists(request.Context(), artist.Filter{Query: query}, searchSectionLimit, 0)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	groups, _, err := handler.groups.ListGroups(request.Context(), group.Filter{Query: query}, searchSectionLimit, 0)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, searchResponse{
		Articles: articles,
		Artists:  artists,
		Groups:   groups,
	})
}
