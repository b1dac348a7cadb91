// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package group

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyeonlab/kwave/internal/core/article"
	requestutil "github.com/hyeonlab/kwave/internal/platform/request"
	"github.com/hyeonlab/kwave/internal/platform/respond"
	"github.com/hyeonlab/kwave/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for public group reads.
type Handler struct {
	service  *Service
	articles *article.Service
}

// NewHandler constructs a new group [Handler].
func NewHandler(service *Service, articles *article.Service) *Handler {
	return &Handler{service: service, articles: articles}
}

// Routes returns a [chi.Router] configured with group endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listGroups)
	router.Get("/{identifier}", handler.getGroup)
	router.Get("/{identifier}/articles", handler.listGroupArticles)

	return router
}

// InternalRoutes returns the operator-only registry management endpoints.
func (handler *Handler) InternalRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.createGroup)

	return router
}

// # Group Endpoints

/*
GET /public/groups.

Description: Retrieves a paginated list of group profiles.

Request:
  - q: string (Name search across KO/EN)
  - status: string (ACTIVE, HIATUS, DISBANDED, SOLO_ONLY)
  - limit, page: int

Response:
  - 200: []Group: Paginated list
*/
func (handler *Handler) listGroups(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{
		Query:          queryParams.Get("q"),
		ActivityStatus: ActivityStatus(queryParams.Get("status")),
	}

	groups, total, err := handler.service.ListGroups(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, groups, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /public/groups/{identifier}.

Description: Retrieves one group by slug or UUID, including the sorted
member roster and social accounts.

Response:
  - 200: Detail: Success
  - 404: ErrNotFound: Unknown slug/id
*/
func (handler *Handler) getGroup(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.Param(request, "identifier")

	detail, err := handler.service.GetGroup(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, detail)
}

/*
GET /public/groups/{identifier}/articles.

Description: Retrieves published articles linked to the group.

Response:
  - 200: []Article: Paginated list (bodies omitted)
  - 404: ErrNotFound: Unknown slug/id
*/
func (handler *Handler) listGroupArticles(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.Param(request, "identifier")
	paginationParams := pagination.FromRequest(request)

	detail, err := handler.service.GetGroup(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := article.Filter{GroupID: detail.ID}
	articles, total, err := handler.articles.ListArticles(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, articles, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
POST /internal/v1/groups.

Description: Registers a new group for the entity registry. Requires an
operator token.

Request:
  - body: CreateInput

Response:
  - 201: Group: Created
  - 400: ErrValidation: Missing name_ko or malformed fields
  - 409: ErrConflict: Duplicate slug
*/
func (handler *Handler) createGroup(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.CreateGroup(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}
