// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package queue

import (
	"context"
	"encoding/json"
)

// # Queue Data Access

// Repository defines the queue's coordination contract.
type Repository interface {

	/*
		Create inserts a pending job.

		Parameters:
		  - context: context.Context
		  - jobType: Type
		  - params: json.RawMessage (job-type specific blob)
		  - priority: int (0 means DefaultPriority)
		  - maxRetries: int (0 means DefaultMaxRetries)

		Returns:
		  - string: New job id
		  - error: Insert failures
	*/
	Create(context context.Context, jobType Type, params json.RawMessage, priority, maxRetries int) (string, error)

	/*
		ClaimPending atomically claims the highest-priority, oldest pending
		job for the worker: locks the row skipping locked rows, flips it to
		running, stamps started_at and worker_id.

		Returns:
		  - *Job: Claimed job, or nil when the queue is empty
		  - error: Database failures
	*/
	ClaimPending(context context.Context, workerID string) (*Job, error)

	/*
		UpdateStatus transitions a job, merging result/error COALESCE-style
		and stamping completed_at on terminal states.
	*/
	UpdateStatus(context context.Context, id string, status Status, result json.RawMessage, errorMsg *string) error

	/*
		IncrementRetry bumps retry_count. At max_retries the job flips to
		failed; otherwise it returns to pending with started_at, worker_id,
		and error_msg cleared.

		Returns:
		  - int: New retry count
		  - error: ErrNotFound or database failures
	*/
	IncrementRetry(context context.Context, id string) (int, error)

	/*
		RecoverStuck resets running jobs older than the stuck threshold back
		to pending. Runs at worker startup.

		Returns:
		  - int: Number of jobs recovered
	*/
	RecoverStuck(context context.Context) (int, error)

	/*
		Cancel marks a pending job cancelled.

		Returns:
		  - bool: true when the job was pending and is now cancelled
	*/
	Cancel(context context.Context, id string) (bool, error)

	/*
		Get retrieves one job by id.
	*/
	Get(context context.Context, id string) (*Job, error)

	/*
		ListRecent returns the newest jobs.
	*/
	ListRecent(context context.Context, limit int) ([]*Job, error)

	/*
		GetStats returns queue depth by status.
	*/
	GetStats(context context.Context) (*Stats, error)
}
