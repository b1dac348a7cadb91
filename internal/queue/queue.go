// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package queue implements the database-backed scrape job queue.

The queue is the only coordination mechanism between job submitters and
worker processes. Claiming relies on row-level locks that skip locked rows,
so any number of workers may poll the same table and a job is handed to
exactly one of them. Crashed workers are healed at startup by resetting
long-running rows to pending.
*/
package queue

import (
	"encoding/json"
	"time"
)

// # Enums

// Status is the job lifecycle enumeration.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status ends the job's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Type enumerates the job kinds workers understand.
type Type string

const (
	TypeScrape      Type = "scrape"
	TypeScrapeRange Type = "scrape_range"
	TypeScrapeRSS   Type = "scrape_rss"
)

// Defaults applied by Create when the caller leaves them zero.
const (
	DefaultPriority   = 5
	DefaultMaxRetries = 3

	// FeedPriority jumps the queue for jobs auto-created by check-latest,
	// since feed discoveries are the freshest content available.
	FeedPriority = 7
)

// # Core Entity

// Job is one row of the scrape queue.
type Job struct {
	ID         string          `json:"id"` // UUIDv7
	Type       Type            `json:"job_type"`
	Status     Status          `json:"status"`
	Params     json.RawMessage `json:"parameters"`
	Priority   int             `json:"priority"` // higher runs first
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
	WorkerID   *string         `json:"worker_id,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	ErrorMsg   *string         `json:"error_msg,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ScrapeParams is the parameters blob for scrape jobs.
type ScrapeParams struct {
	URLs      []string `json:"urls,omitempty"`
	SourceURL string   `json:"source_url,omitempty"`
	Language  string   `json:"language,omitempty"`
	BatchSize int      `json:"batch_size,omitempty"`

	// SkipProcessed and RetryError default to true when absent.
	SkipProcessed *bool `json:"skip_processed,omitempty"`
	RetryError    *bool `json:"retry_error,omitempty"`

	// DateAfter/DateBefore bound parsed published_at, YYYY-MM-DD.
	DateAfter  string `json:"date_after,omitempty"`
	DateBefore string `json:"date_before,omitempty"`
	DryRun     bool   `json:"dry_run,omitempty"`
}

// RangeParams is the parameters blob for scrape_range jobs.
type RangeParams struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD[THH:MM:SS]
	EndDate   string `json:"end_date"`
	Language  string `json:"language,omitempty"`
	MaxPages  int    `json:"max_pages,omitempty"`
	BatchSize int    `json:"batch_size,omitempty"`

	// Force rescrapes URLs regardless of their stored process status.
	Force  bool `json:"force,omitempty"`
	DryRun bool `json:"dry_run,omitempty"`
}

// FeedParams is the parameters blob for scrape_rss jobs.
type FeedParams struct {
	Language  string `json:"language,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Stats is the queue depth snapshot by status.
type Stats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
