// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package artist

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyeonlab/kwave/internal/core/article"
	requestutil "github.com/hyeonlab/kwave/internal/platform/request"
	"github.com/hyeonlab/kwave/internal/platform/respond"
	"github.com/hyeonlab/kwave/pkg/convert"
	"github.com/hyeonlab/kwave/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for public artist reads.
type Handler struct {
	service  *Service
	articles *article.Service
}

// NewHandler constructs a new artist [Handler].
func NewHandler(service *Service, articles *article.Service) *Handler {
	return &Handler{service: service, articles: articles}
}

// Routes returns a [chi.Router] configured with artist endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listArtists)
	router.Get("/{identifier}", handler.getArtist)
	router.Get("/{identifier}/articles", handler.listArtistArticles)

	return router
}

// InternalRoutes returns the operator-only registry management endpoints.
func (handler *Handler) InternalRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.createArtist)

	return router
}

// # Artist Endpoints

/*
GET /public/artists.

Description: Retrieves a paginated list of artist profiles.

Request:
  - q: string (Name search across KO/EN and stage names)
  - priority: int (Global priority tier)
  - limit, page: int

Response:
  - 200: []Artist: Paginated list
*/
func (handler *Handler) listArtists(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{Query: queryParams.Get("q")}
	if priority := convert.ToInt(queryParams.Get("priority")); priority > 0 {
		filter.GlobalPriority = &priority
	}

	artists, total, err := handler.service.ListArtists(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, artists, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /public/artists/{identifier}.

Description: Retrieves one artist by slug or UUID, including social accounts,
education records, and a photo composed from the newest article thumbnail.

Response:
  - 200: Detail: Success
  - 404: ErrNotFound: Unknown slug/id
*/
func (handler *Handler) getArtist(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.Param(request, "identifier")

	detail, err := handler.service.GetArtist(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, detail)
}

/*
GET /public/artists/{identifier}/articles.

Description: Retrieves published articles linked to the artist.

Response:
  - 200: []Article: Paginated list (bodies omitted)
  - 404: ErrNotFound: Unknown slug/id
*/
func (handler *Handler) listArtistArticles(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.Param(request, "identifier")
	paginationParams := pagination.FromRequest(request)

	detail, err := handler.service.GetArtist(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := article.Filter{ArtistID: detail.ID}
	articles, total, err := handler.articles.ListArticles(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, articles, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
POST /internal/v1/artists.

Description: Registers a new artist for the entity registry. Requires an
operator token.

Request:
  - body: CreateInput

Response:
  - 201: Artist: Created
  - 400: ErrValidation: Missing name_ko or malformed fields
  - 409: ErrConflict: Duplicate slug
*/
func (handler *Handler) createArtist(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.CreateArtist(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}
