// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyeonlab/kwave/internal/platform/apperr"
	requestutil "github.com/hyeonlab/kwave/internal/platform/request"
	"github.com/hyeonlab/kwave/internal/platform/respond"
	"github.com/hyeonlab/kwave/internal/platform/validate"
	"github.com/hyeonlab/kwave/internal/queue"
)

// # Job Management

// JobsHandler is the operator surface over the scrape queue. Every route is
// mounted behind RequireOperator.
type JobsHandler struct {
	jobs queue.Repository
}

// NewJobsHandler constructs a [JobsHandler].
func NewJobsHandler(jobs queue.Repository) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// Routes returns a [chi.Router] configured with queue endpoints.
func (handler *JobsHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.createJob)
	router.Get("/", handler.listJobs)
	router.Get("/stats", handler.getStats)
	router.Get("/{id}", handler.getJob)
	router.Delete("/{id}", handler.cancelJob)

	return router
}

// createJobRequest is the submission payload.
type createJobRequest struct {
	Type       queue.Type      `json:"job_type"`
	Params     json.RawMessage `json:"parameters"`
	Priority   int             `json:"priority"`
	MaxRetries int             `json:"max_retries"`
}

/*
POST /internal/v1/jobs.

Description: Submits a scrape job. Parameters are validated per job type
before the row is inserted.

Response:
  - 201: {id}: Job accepted
  - 422: ErrValidation: Unknown type or malformed parameters
*/
func (handler *JobsHandler) createJob(writer http.ResponseWriter, request *http.Request) {
	var payload createJobRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := validateJob(payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := handler.jobs.Create(request.Context(), payload.Type, payload.Params, payload.Priority, payload.MaxRetries)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{"id": id})
}

// validateJob rejects unknown types and structurally broken parameter blobs.
func validateJob(payload createJobRequest) error {
	v := &validate.Validator{}
	v.OneOf("job_type", string(payload.Type),
		string(queue.TypeScrape), string(queue.TypeScrapeRange), string(queue.TypeScrapeRSS))
	v.Range("priority", payload.Priority, 0, 10)
	if err := v.Err(); err != nil {
		return err
	}

	switch payload.Type {
	case queue.TypeScrape:
		var params queue.ScrapeParams
		if err := json.Unmarshal(payload.Params, &params); err != nil {
			return apperr.Unprocessable("malformed scrape parameters")
		}
		if len(params.URLs) == 0 && params.SourceURL == "" {
			return apperr.Unprocessable("scrape jobs need urls or source_url")
		}

	case queue.TypeScrapeRange:
		var params queue.RangeParams
		if err := json.Unmarshal(payload.Params, &params); err != nil {
			return apperr.Unprocessable("malformed range parameters")
		}
		if _, err := time.Parse("2006-01-02", params.StartDate); err != nil {
			return apperr.Unprocessable("start_date must be YYYY-MM-DD")
		}
		if _, err := time.Parse("2006-01-02", params.EndDate); err != nil {
			return apperr.Unprocessable("end_date must be YYYY-MM-DD")
		}

	case queue.TypeScrapeRSS:
		var params queue.FeedParams
		if len(payload.Params) > 0 {
			if err := json.Unmarshal(payload.Params, &params); err != nil {
				return apperr.Unprocessable("malformed feed parameters")
			}
		}
	}

	return nil
}

/*
GET /internal/v1/jobs.

Description: Lists the most recent jobs, newest first.
*/
func (handler *JobsHandler) listJobs(writer http.ResponseWriter, request *http.Request) {
	limit := 50
	jobs, err := handler.jobs.ListRecent(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, jobs)
}

/*
GET /internal/v1/jobs/stats.

Description: Returns queue depth by status.
*/
func (handler *JobsHandler) getStats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.jobs.GetStats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, stats)
}

/*
GET /internal/v1/jobs/{id}.

Response:
  - 200: Job: Success
  - 404: ErrNotFound: Unknown id
*/
func (handler *JobsHandler) getJob(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	job, err := handler.jobs.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, job)
}

/*
DELETE /internal/v1/jobs/{id}.

Description: Cancels a pending job. Running and terminal jobs cannot be
cancelled.

Response:
  - 204: Cancelled
  - 409: ErrConflict: Job already claimed or finished
*/
func (handler *JobsHandler) cancelJob(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	cancelled, err := handler.jobs.Cancel(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !cancelled {
		respond.Error(writer, request, apperr.Conflict("job is not pending"))
		return
	}

	respond.NoContent(writer)
}
