// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonlab/kwave/internal/platform/constants"
	"github.com/hyeonlab/kwave/internal/platform/dberr"
	"github.com/hyeonlab/kwave/pkg/uuidv7"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed job queue.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const jobColumns = `
	id, job_type, status, parameters, priority, retry_count, max_retries,
	worker_id, result, error_msg, created_at, started_at, completed_at
`

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	job := &Job{}
	err := row.Scan(
		&job.ID, &job.Type, &job.Status, &job.Params, &job.Priority,
		&job.RetryCount, &job.MaxRetries, &job.WorkerID, &job.Result,
		&job.ErrorMsg, &job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// # Submission

/*
Create inserts a pending job.
*/
func (repository *PostgresRepository) Create(context context.Context, jobType Type, params json.RawMessage, priority, maxRetries int) (string, error) {
	if priority == 0 {
		priority = DefaultPriority
	}
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	if params == nil {
		params = json.RawMessage(`{}`)
	}

	id := uuidv7.New()
	const query = `
		INSERT INTO ops.job_queue (
			id, job_type, status, parameters, priority, retry_count,
			max_retries, created_at
		) VALUES ($1, $2, 'pending', $3, $4, 0, $5, NOW())
	`
	if _, err := repository.db.Exec(context, query, id, jobType, params, priority, maxRetries); err != nil {
		return "", dberr.Wrap(err, "create_job")
	}
	return id, nil
}

// # Coordination

/*
ClaimPending atomically claims one pending job for the worker.

Description: FOR UPDATE SKIP LOCKED guarantees two concurrent workers never
observe the same row; a loser either claims a different job or gets nil.
*/
func (repository *PostgresRepository) ClaimPending(context context.Context, workerID string) (*Job, error) {
	query := `
		WITH picked AS (
			SELECT id FROM ops.job_queue
			WHERE status = 'pending'
			ORDER BY priority DESC, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE ops.job_queue AS j
		SET status = 'running', started_at = NOW(), worker_id = $1
		FROM picked
		WHERE j.id = picked.id
		RETURNING ` + jobColumns

	job, err := scanJob(repository.db.QueryRow(context, query, workerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrap(err, "claim_job")
	}
	return job, nil
}

/*
UpdateStatus transitions a job and merges result/error.
*/
func (repository *PostgresRepository) UpdateStatus(context context.Context, id string, status Status, result json.RawMessage, errorMsg *string) error {
	const query = `
		UPDATE ops.job_queue SET
			status       = $2,
			result       = COALESCE($3, result),
			error_msg    = COALESCE($4, error_msg),
			completed_at = CASE WHEN $2 IN ('completed', 'failed', 'cancelled') THEN NOW() ELSE completed_at END
		WHERE id = $1
	`
	_, err := repository.db.Exec(context, query, id, status, result, errorMsg)
	return dberr.Wrap(err, "update_job_status")
}

/*
IncrementRetry bumps retry_count and re-queues or fails the job.
*/
func (repository *PostgresRepository) IncrementRetry(context context.Context, id string) (int, error) {
	const query = `
		UPDATE ops.job_queue SET
			retry_count = retry_count + 1,
			status      = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
			started_at  = CASE WHEN retry_count + 1 >= max_retries THEN started_at ELSE NULL END,
			worker_id   = CASE WHEN retry_count + 1 >= max_retries THEN worker_id ELSE NULL END,
			error_msg   = CASE WHEN retry_count + 1 >= max_retries THEN error_msg ELSE NULL END,
			completed_at = CASE WHEN retry_count + 1 >= max_retries THEN NOW() ELSE completed_at END
		WHERE id = $1
		RETURNING retry_count
	`
	var newCount int
	if err := repository.db.QueryRow(context, query, id).Scan(&newCount); err != nil {
		return 0, dberr.Wrap(err, "increment_retry")
	}
	return newCount, nil
}

/*
RecoverStuck re-queues running jobs older than the stuck threshold.
*/
func (repository *PostgresRepository) RecoverStuck(context context.Context) (int, error) {
	const query = `
		UPDATE ops.job_queue
		SET status = 'pending', started_at = NULL, worker_id = NULL
		WHERE status = 'running' AND started_at < NOW() - $1::interval
	`
	tag, err := repository.db.Exec(context, query, constants.StuckJobThreshold.String())
	if err != nil {
		return 0, dberr.Wrap(err, "recover_stuck_jobs")
	}
	return int(tag.RowsAffected()), nil
}

/*
Cancel marks a pending job cancelled.
*/
func (repository *PostgresRepository) Cancel(context context.Context, id string) (bool, error) {
	const query = `
		UPDATE ops.job_queue
		SET status = 'cancelled', completed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return false, dberr.Wrap(err, "cancel_job")
	}
	return tag.RowsAffected() > 0, nil
}

// # Inspection

/*
Get retrieves one job by id.
*/
func (repository *PostgresRepository) Get(context context.Context, id string) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM ops.job_queue WHERE id = $1`

	job, err := scanJob(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_job")
	}
	return job, nil
}

/*
ListRecent returns the newest jobs.
*/
func (repository *PostgresRepository) ListRecent(context context.Context, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM ops.job_queue ORDER BY created_at DESC LIMIT $1`

	rows, err := repository.db.Query(context, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list_jobs")
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_job")
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

/*
GetStats returns queue depth by status.
*/
func (repository *PostgresRepository) GetStats(context context.Context) (*Stats, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'running'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM ops.job_queue
	`
	stats := &Stats{}
	err := repository.db.QueryRow(context, query).Scan(
		&stats.Pending, &stats.Running, &stats.Completed, &stats.Failed)
	if err != nil {
		return nil, dberr.Wrap(err, "queue_stats")
	}
	return stats, nil
}
