// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package article provides the HTTP interface for the public article feed.

# Routing Strategy

  - Public (read-only): Listing with entity/language/full-text filters and
    single-article detail. Only PROCESSED and VERIFIED rows are visible;
    review rationale and job backpointers are never serialized.

The handler translates between the REST layer and the [Service] domain.
*/
package article

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/hyeonlab/kwave/internal/platform/request"
	"github.com/hyeonlab/kwave/internal/platform/respond"
	"github.com/hyeonlab/kwave/pkg/pagination"
	"github.com/hyeonlab/kwave/pkg/query"
)

// # Handler Implementation

// Handler implements the HTTP layer for public article reads.
type Handler struct {
	service *Service
}

// NewHandler constructs a new article [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with article endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listArticles)
	router.Get("/{id}", handler.getArticle)

	return router
}

// # Article Endpoints

/*
GET /public/articles.

Description: Retrieves a paginated list of published articles.

Request:
  - artist_id: string (Filter by linked artist)
  - group_id: string (Filter by linked group)
  - language: string (kr, en, jp)
  - q: string (Weighted full-text search)
  - hashtags: string (Comma-separated; matches any Korean hashtag)
  - limit, page: int

Response:
  - 200: []Article: Paginated list (bodies omitted)
*/
func (handler *Handler) listArticles(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{
		ArtistID: queryParams.Get("artist_id"),
		GroupID:  queryParams.Get("group_id"),
		Language: queryParams.Get("language"),
		Query:    queryParams.Get("q"),
		Hashtags: query.CSV(queryParams.Get("hashtags")),
	}

	articles, total, err := handler.service.ListArticles(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, articles, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /public/articles/{id}.

Description: Retrieves one published article including content_ko.

Response:
  - 200: Article: Success
  - 404: ErrNotFound: Unknown id, or article not yet public
*/
func (handler *Handler) getArticle(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	foundArticle, err := handler.service.GetArticle(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, foundArticle)
}
