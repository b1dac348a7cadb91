// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package worker runs scrape jobs claimed from the database queue.

Two entry points exist: Run, the long-lived loop (claim, execute, persist,
poll when empty), and RunOne for operating on exactly one job id. The loop
installs termination-signal handlers; on signal it finishes the in-flight
job and exits cleanly.

Failure handling follows the queue contract: a Forbidden response is fatal
to the whole batch and fails the job without consuming a retry, everything
else increments the retry counter and sends the job back to pending until
max_retries is reached.
*/
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/platform/constants"
	"github.com/hyeonlab/kwave/internal/queue"
	"github.com/hyeonlab/kwave/internal/scrape/feed"
	"github.com/hyeonlab/kwave/internal/scrape/fetch"
	"github.com/hyeonlab/kwave/internal/scrape/parse"
	"github.com/hyeonlab/kwave/internal/scrape/thumb"
)

// # Collaborator Interfaces

// ArticleStore is the article repository slice the worker writes through.
type ArticleStore interface {
	StatusByURLs(context context.Context, urls []string) (map[string]article.Status, error)
	Upsert(context context.Context, article *article.Article) error
}

// Fetcher performs polite, throttled page downloads.
type Fetcher interface {
	Fetch(url string) (*fetch.Response, error)
}

// PageParser extracts article fields from raw HTML.
type PageParser interface {
	Parse(url, rawHTML string) (*parse.Fields, error)
}

// Discoverer resolves feed and range jobs into concrete URL lists.
type Discoverer interface {
	CheckLatest(context context.Context, language string, enqueue bool) (*feed.Discovery, error)
	CollectRange(context context.Context, start, end time.Time, maxPages int) ([]feed.Entry, error)
}

// FollowUp is a best-effort pass run after a successful batch.
type FollowUp interface {
	Run(context context.Context, limit int) (int, error)
}

// # Batch Result

// URLOutcome records what happened to one URL of a batch.
type URLOutcome struct {
	URL       string `json:"url"`
	ArticleID string `json:"article_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Fatal     bool   `json:"fatal,omitempty"`
	Reason    string `json:"reason,omitempty"`
	DryRun    bool   `json:"dry_run,omitempty"`
}

// BatchResult aggregates per-URL outcomes and becomes the job's result blob.
type BatchResult struct {
	Success []URLOutcome `json:"success"`
	Failed  []URLOutcome `json:"failed"`
	Skipped []URLOutcome `json:"skipped"`
}

func (result *BatchResult) fatal() bool {
	for _, outcome := range result.Failed {
		if outcome.Fatal {
			return true
		}
	}
	return false
}

// # Worker

// Options configures a [Worker].
type Options struct {
	// WorkerID identifies this process in claimed job rows.
	WorkerID string

	// PollInterval is the sleep between claims when the queue is empty.
	// Zero means constants.WorkerPollInterval.
	PollInterval time.Duration

	// DefaultLanguage applies when job parameters omit one.
	DefaultLanguage string

	// MaxRangePages bounds list-page pagination for range jobs.
	MaxRangePages int
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.WorkerID == "" {
		host, _ := os.Hostname()
		opts.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.WorkerPollInterval
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "kr"
	}
	if opts.MaxRangePages <= 0 {
		opts.MaxRangePages = 30
	}
	return opts
}

// Worker claims and executes scrape jobs.
type Worker struct {
	jobs       queue.Repository
	articles   ArticleStore
	fetcher    Fetcher
	parser     PageParser
	discoverer Discoverer
	thumbs     thumb.Service
	options    Options
	logger     *slog.Logger

	// Follow-ups are optional; nil disables them.
	postProcess FollowUp
	backfill    FollowUp

	shutdown atomic.Bool
	sleep    func(time.Duration)
}

// New constructs a [Worker].
func New(
	jobs queue.Repository,
	articles ArticleStore,
	fetcher Fetcher,
	parser PageParser,
	discoverer Discoverer,
	thumbs thumb.Service,
	postProcess FollowUp,
	backfill FollowUp,
	options Options,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		jobs:        jobs,
		articles:    articles,
		fetcher:     fetcher,
		parser:      parser,
		discoverer:  discoverer,
		thumbs:      thumbs,
		postProcess: postProcess,
		backfill:    backfill,
		options:     options.withDefaults(),
		logger:      logger,
		sleep:       time.Sleep,
	}
}

// Stop requests a clean shutdown after the in-flight job completes.
func (worker *Worker) Stop() {
	worker.shutdown.Store(true)
}

/*
Run is the worker loop.

Description: Recovers stuck jobs once at startup, then claims and executes
jobs until the context is cancelled or a termination signal arrives. An
in-flight job always runs to completion before the loop exits.
*/
func (worker *Worker) Run(context context.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		sig := <-signals
		worker.logger.Info("termination signal received, finishing in-flight job",
			slog.String("signal", sig.String()))
		worker.Stop()
	}()

	recovered, err := worker.jobs.RecoverStuck(context)
	if err != nil {
		return fmt.Errorf("worker: stuck recovery: %w", err)
	}
	if recovered > 0 {
		worker.logger.Warn("recovered stuck jobs", slog.Int("count", recovered))
	}

	worker.logger.Info("worker started",
		slog.String("worker_id", worker.options.WorkerID),
		slog.Duration("poll_interval", worker.options.PollInterval))

	for !worker.shutdown.Load() {
		if context.Err() != nil {
			return nil
		}

		job, err := worker.jobs.ClaimPending(context, worker.options.WorkerID)
		if err != nil {
			worker.logger.Error("claim failed", slog.String("error", err.Error()))
			worker.sleep(worker.options.PollInterval)
			continue
		}
		if job == nil {
			worker.sleep(worker.options.PollInterval)
			continue
		}

		worker.execute(context, job)
	}

	worker.logger.Info("worker stopped")
	return nil
}

/*
RunOne executes exactly one job by id, regardless of its queue position.

Description: The job must be pending. It is flipped to running under this
worker's id, executed, and persisted exactly as the loop would.
*/
func (worker *Worker) RunOne(context context.Context, jobID string) error {
	job, err := worker.jobs.Get(context, jobID)
	if err != nil {
		return err
	}
	if job.Status != queue.StatusPending {
		return fmt.Errorf("worker: job %s is %s, not pending", jobID, job.Status)
	}

	if err := worker.jobs.UpdateStatus(context, jobID, queue.StatusRunning, nil, nil); err != nil {
		return err
	}
	job.Status = queue.StatusRunning

	worker.execute(context, job)
	return nil
}

// # Job Execution

// execute dispatches one claimed job and persists its outcome.
func (worker *Worker) execute(context context.Context, job *queue.Job) {
	started := time.Now()
	worker.logger.Info("job started",
		slog.String("job_id", job.ID),
		slog.String("job_type", string(job.Type)))

	result, err := worker.dispatch(context, job)

	resultJSON, _ := json.Marshal(result)
	switch {
	case err != nil:
		worker.failJob(context, job, resultJSON, err)

	case result != nil && result.fatal():
		// Blocked by the source host. Retrying burns the IP further, so the
		// job fails terminally without touching retry_count.
		message := "batch aborted: source host returned 403"
		if updateErr := worker.jobs.UpdateStatus(context, job.ID, queue.StatusFailed, resultJSON, &message); updateErr != nil {
			worker.logger.Error("failed to persist fatal job outcome",
				slog.String("job_id", job.ID), slog.String("error", updateErr.Error()))
		}
		worker.logger.Error("job failed fatally", slog.String("job_id", job.ID))

	default:
		if updateErr := worker.jobs.UpdateStatus(context, job.ID, queue.StatusCompleted, resultJSON, nil); updateErr != nil {
			worker.logger.Error("failed to persist job outcome",
				slog.String("job_id", job.ID), slog.String("error", updateErr.Error()))
			return
		}
		worker.logger.Info("job completed",
			slog.String("job_id", job.ID),
			slog.Int("success", len(result.Success)),
			slog.Int("failed", len(result.Failed)),
			slog.Int("skipped", len(result.Skipped)),
			slog.Duration("elapsed", time.Since(started)))

		worker.runFollowUps(context, job, result)
	}
}

// failJob records a retriable failure and sends the job back to pending,
// or flips it to failed once retries are exhausted.
func (worker *Worker) failJob(context context.Context, job *queue.Job, resultJSON json.RawMessage, cause error) {
	worker.logger.Error("job errored",
		slog.String("job_id", job.ID),
		slog.String("error", cause.Error()))

	newCount, err := worker.jobs.IncrementRetry(context, job.ID)
	if err != nil {
		worker.logger.Error("retry bookkeeping failed",
			slog.String("job_id", job.ID), slog.String("error", err.Error()))
		return
	}
	if newCount >= job.MaxRetries {
		message := cause.Error()
		if updateErr := worker.jobs.UpdateStatus(context, job.ID, queue.StatusFailed, resultJSON, &message); updateErr != nil {
			worker.logger.Error("failed to persist exhausted job",
				slog.String("job_id", job.ID), slog.String("error", updateErr.Error()))
		}
	}
}

// dispatch resolves the job type to a URL batch and scrapes it.
func (worker *Worker) dispatch(context context.Context, job *queue.Job) (*BatchResult, error) {
	switch job.Type {
	case queue.TypeScrape:
		var params queue.ScrapeParams
		if err := json.Unmarshal(job.Params, &params); err != nil {
			return nil, fmt.Errorf("worker: malformed scrape parameters: %w", err)
		}
		return worker.runScrape(context, job.ID, params)

	case queue.TypeScrapeRange:
		return worker.runRange(context, job)

	case queue.TypeScrapeRSS:
		return worker.runFeed(context, job)

	default:
		return nil, fmt.Errorf("worker: unknown job type %q", job.Type)
	}
}

// runRange expands a date-range job into a URL batch via list-page walking.
func (worker *Worker) runRange(context context.Context, job *queue.Job) (*BatchResult, error) {
	var params queue.RangeParams
	if err := json.Unmarshal(job.Params, &params); err != nil {
		return nil, fmt.Errorf("worker: malformed range parameters: %w", err)
	}

	start, err := parseBound(params.StartDate, false)
	if err != nil {
		return nil, fmt.Errorf("worker: bad start_date %q: %w", params.StartDate, err)
	}
	end, err := parseBound(params.EndDate, true)
	if err != nil {
		return nil, fmt.Errorf("worker: bad end_date %q: %w", params.EndDate, err)
	}

	maxPages := params.MaxPages
	if maxPages <= 0 {
		maxPages = worker.options.MaxRangePages
	}

	entries, err := worker.discoverer.CollectRange(context, start, end, maxPages)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(entries))
	for _, entry := range entries {
		urls = append(urls, entry.URL)
	}

	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = len(urls)
	}

	scrape := queue.ScrapeParams{
		URLs:       urls,
		Language:   params.Language,
		BatchSize:  batchSize,
		DateAfter:  params.StartDate,
		DateBefore: params.EndDate,
		DryRun:     params.DryRun,
	}
	if params.Force {
		skip := false
		scrape.SkipProcessed = &skip
	}

	return worker.runScrape(context, job.ID, scrape)
}

// runFeed discovers fresh feed entries and scrapes them inline.
func (worker *Worker) runFeed(context context.Context, job *queue.Job) (*BatchResult, error) {
	var params queue.FeedParams
	if err := json.Unmarshal(job.Params, &params); err != nil {
		return nil, fmt.Errorf("worker: malformed feed parameters: %w", err)
	}

	language := params.Language
	if language == "" {
		language = worker.options.DefaultLanguage
	}

	discovery, err := worker.discoverer.CheckLatest(context, language, false)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(discovery.Fresh))
	for _, entry := range discovery.Fresh {
		urls = append(urls, entry.URL)
	}

	return worker.runScrape(context, job.ID, queue.ScrapeParams{
		URLs:       urls,
		Language:   language,
		BatchSize:  len(urls),
		DateAfter:  params.StartDate,
		DateBefore: params.EndDate,
	})
}

// # Scrape Batch

/*
runScrape executes the per-URL scrape algorithm.

Description: URLs are truncated to the batch size, triaged against the
article store's current process status, then fetched, parsed, windowed by
date, and upserted as SCRAPED. A 403 aborts the batch; the URLs after the
failure are left untouched for a later run.
*/
func (worker *Worker) runScrape(context context.Context, jobID string, params queue.ScrapeParams) (*BatchResult, error) {
	result := &BatchResult{
		Success: []URLOutcome{},
		Failed:  []URLOutcome{},
		Skipped: []URLOutcome{},
	}

	urls := params.URLs
	if params.SourceURL != "" {
		urls = append(urls, params.SourceURL)
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = constants.DefaultScrapeBatch
	}
	if len(urls) > batchSize {
		urls = urls[:batchSize]
	}
	if len(urls) == 0 {
		return result, nil
	}

	language := params.Language
	if language == "" {
		language = worker.options.DefaultLanguage
	}
	skipProcessed := params.SkipProcessed == nil || *params.SkipProcessed
	retryError := params.RetryError == nil || *params.RetryError
	dateAfter, dateBefore := parseWindow(params.DateAfter, params.DateBefore)

	// ── 1. Status triage ──────────────────────────────────────────────
	statuses, err := worker.articles.StatusByURLs(context, urls)
	if err != nil {
		return nil, err
	}

	var toScrape []string
	for _, url := range urls {
		status, known := statuses[url]
		switch {
		case !known:
			toScrape = append(toScrape, url)
		case status == article.StatusError && retryError:
			toScrape = append(toScrape, url)
		case status == article.StatusProcessed && !skipProcessed:
			toScrape = append(toScrape, url)
		default:
			result.Skipped = append(result.Skipped, URLOutcome{URL: url, Reason: string(status)})
		}
	}

	// ── 2. Fetch, parse, upsert ───────────────────────────────────────
	for _, url := range toScrape {
		outcome, fatal := worker.scrapeOne(context, jobID, url, language, dateAfter, dateBefore, params.DryRun)
		switch {
		case outcome.Error != "":
			result.Failed = append(result.Failed, outcome)
		case outcome.Reason != "":
			result.Skipped = append(result.Skipped, outcome)
		default:
			result.Success = append(result.Success, outcome)
		}

		// A fatal failure abandons the rest of the batch untouched, so a
		// later run sees those URLs as never attempted.
		if fatal {
			break
		}
	}

	return result, nil
}

// scrapeOne handles a single URL. The second return marks a batch-fatal
// failure.
func (worker *Worker) scrapeOne(context context.Context, jobID, url, language string, dateAfter, dateBefore *time.Time, dryRun bool) (URLOutcome, bool) {
	response, err := worker.fetcher.Fetch(url)
	if err != nil {
		if fetch.IsForbidden(err) {
			return URLOutcome{URL: url, Error: err.Error(), Fatal: true}, true
		}
		return URLOutcome{URL: url, Error: err.Error()}, false
	}

	fields, err := worker.parser.Parse(url, string(response.Body))
	if err != nil {
		return URLOutcome{URL: url, Error: err.Error()}, false
	}

	if outside(fields.PublishedAt, dateAfter, dateBefore) {
		return URLOutcome{URL: url, Reason: "outside date range"}, false
	}

	if dryRun {
		worker.logger.Info("dry-run scrape",
			slog.String("url", url),
			slog.String("title", fields.Title),
			slog.Int("inline_images", len(fields.Images)))
		return URLOutcome{URL: url, DryRun: true}, false
	}

	row := &article.Article{
		SourceURL: url,
		Language:  language,
		TitleKO:   fields.Title,
		ContentKO: fields.Content,
		Status:    article.StatusScraped,
		JobID:     &jobID,
	}
	if fields.Author != "" {
		row.Author = &fields.Author
	}
	row.PublishedAt = fields.PublishedAt
	if fields.ThumbnailURL != "" {
		stored, err := worker.thumbs.ProcessArticleImage(context, url, fields.ThumbnailURL)
		if err != nil {
			worker.logger.Warn("thumbnail processing failed",
				slog.String("url", url), slog.String("error", err.Error()))
			stored = fields.ThumbnailURL
		}
		row.ThumbnailURL = &stored
	}

	if err := worker.articles.Upsert(context, row); err != nil {
		return URLOutcome{URL: url, Error: err.Error()}, false
	}

	return URLOutcome{URL: url, ArticleID: row.ID}, false
}

// runFollowUps triggers the post-batch passes. Failures here never affect
// the job outcome.
func (worker *Worker) runFollowUps(context context.Context, job *queue.Job, result *BatchResult) {
	if len(result.Success) == 0 || result.Success[0].DryRun {
		return
	}

	if worker.postProcess != nil {
		if processed, err := worker.postProcess.Run(context, constants.FollowUpLimit); err != nil {
			worker.logger.Warn("post-process follow-up failed",
				slog.String("job_id", job.ID), slog.String("error", err.Error()))
		} else if processed > 0 {
			worker.logger.Info("post-processed scraped articles", slog.Int("count", processed))
		}
	}

	if worker.backfill != nil {
		if updated, err := worker.backfill.Run(context, constants.FollowUpLimit); err != nil {
			worker.logger.Warn("thumbnail backfill failed",
				slog.String("job_id", job.ID), slog.String("error", err.Error()))
		} else if updated > 0 {
			worker.logger.Info("backfilled thumbnails", slog.Int("count", updated))
		}
	}
}

// # Date Window

func parseWindow(after, before string) (*time.Time, *time.Time) {
	var lower, upper *time.Time
	if after != "" {
		if at, err := parseBound(after, false); err == nil {
			lower = &at
		}
	}
	if before != "" {
		if at, err := parseBound(before, true); err == nil {
			upper = &at
		}
	}
	return lower, upper
}

// parseBound parses a YYYY-MM-DD[THH:MM:SS] boundary in UTC. A date-only
// value expands to the start of the day, or the last instant of it when
// the value is an upper bound.
func parseBound(value string, upper bool) (time.Time, error) {
	if at, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return at.UTC(), nil
	}
	at, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	if upper {
		at = at.Add(24*time.Hour - time.Nanosecond)
	}
	return at.UTC(), nil
}

// outside reports whether a parsed publication date falls out of the
// window. Undated articles always pass.
func outside(published, after, before *time.Time) bool {
	if published == nil {
		return false
	}
	if after != nil && published.Before(*after) {
		return true
	}
	if before != nil && published.After(*before) {
		return true
	}
	return false
}
