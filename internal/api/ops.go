// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyeonlab/kwave/internal/core/audit"
	requestutil "github.com/hyeonlab/kwave/internal/platform/request"
	"github.com/hyeonlab/kwave/internal/platform/respond"
	"github.com/hyeonlab/kwave/internal/platform/validate"
	"github.com/hyeonlab/kwave/pkg/pagination"
)

// # Operator Triage

// OpsHandler exposes the self-healing audit trail to operators: open
// conflict flags awaiting a human verdict, the resolver's decision log, and
// the pipeline's operational events.
type OpsHandler struct {
	audits audit.Repository
}

// NewOpsHandler constructs an [OpsHandler].
func NewOpsHandler(audits audit.Repository) *OpsHandler {
	return &OpsHandler{audits: audits}
}

// Routes returns a [chi.Router] configured with triage endpoints.
func (handler *OpsHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/conflicts", handler.listConflicts)
	router.Post("/conflicts/{id}/close", handler.closeConflict)
	router.Get("/resolutions", handler.listResolutions)
	router.Get("/system-logs", handler.listSystemLogs)

	return router
}

/*
GET /internal/v1/conflicts.

Description: Lists conflict flags, OPEN first by default.

Request:
  - status: string (OPEN, RESOLVED, DISMISSED; empty lists all)
  - limit, page: int
*/
func (handler *OpsHandler) listConflicts(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	status := audit.FlagStatus(request.URL.Query().Get("status"))

	flags, total, err := handler.audits.ListConflicts(request.Context(), status, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, flags, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

// closeConflictRequest carries the operator's verdict.
type closeConflictRequest struct {
	Status audit.FlagStatus `json:"status"`
}

/*
POST /internal/v1/conflicts/{id}/close.

Description: Moves an OPEN flag to RESOLVED or DISMISSED.

Response:
  - 204: Closed
  - 409: ErrConflict: Flag already closed
*/
func (handler *OpsHandler) closeConflict(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	var payload closeConflictRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.UUID("id", id)
	v.OneOf("status", string(payload.Status), string(audit.FlagResolved), string(audit.FlagDismissed))
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.audits.CloseConflict(request.Context(), id, payload.Status); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /internal/v1/resolutions.

Description: Lists the resolver's auto-resolution decisions, newest first.
*/
func (handler *OpsHandler) listResolutions(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	resolutions, total, err := handler.audits.ListResolutions(request.Context(), paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, resolutions, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /internal/v1/system-logs.

Request:
  - category: string (AI_PROCESS, SCRAPE, ...; empty lists all)
  - level: string (DEBUG, INFO, WARN, ERROR; empty lists all)
*/
func (handler *OpsHandler) listSystemLogs(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	category := request.URL.Query().Get("category")
	level := request.URL.Query().Get("level")

	logs, total, err := handler.audits.ListSystemLogs(request.Context(), category, level, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, logs, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}
