// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hyeonlab/kwave/internal/ai/simple"
	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/queue"
	"github.com/hyeonlab/kwave/internal/scrape/feed"
	"github.com/hyeonlab/kwave/internal/scrape/fetch"
	"github.com/hyeonlab/kwave/internal/scrape/parse"
	"github.com/hyeonlab/kwave/internal/scrape/throttle"
	"github.com/hyeonlab/kwave/internal/scrape/thumb"
	"github.com/hyeonlab/kwave/internal/worker"
)

// newWorkerCommand runs the queue-driven scrape worker, either as a loop or
// as a one-shot over a single job id.
func newWorkerCommand() *cobra.Command {
	var jobID string

	command := &cobra.Command{
		Use:   "worker",
		Short: "Run the scrape worker loop",
		Long: `Claims pending jobs from the database queue and executes them until
terminated. With --job-id the worker executes exactly one pending job and
exits.`,
		RunE: func(command *cobra.Command, args []string) error {
			ctx := command.Context()

			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			scrapeWorker := buildWorker(ctx, rt)

			if jobID != "" {
				return scrapeWorker.RunOne(ctx, jobID)
			}
			return scrapeWorker.Run(ctx)
		},
	}

	command.Flags().StringVar(&jobID, "job-id", "", "execute exactly one pending job and exit")
	return command
}

// buildWorker assembles the full scrape stack: throttle, polite fetcher,
// layered parser, feed discovery, thumbnail hooks, and the optional simple
// post-processor follow-up (skipped when no LLM key is configured).
func buildWorker(ctx context.Context, rt *runtime) *worker.Worker {
	articleRepository := article.NewPostgresRepository(rt.pool)
	queueRepository := queue.NewPostgresRepository(rt.pool)

	waiter := throttle.New(nil)
	fetcher := fetch.New(waiter, fetch.Options{})
	parser := parse.New(nil)

	discoverer := feed.NewService(fetcher, articleRepository, queueRepository, feed.Config{
		FeedURL:     rt.cfg.SourceFeedURL,
		ListPageURL: rt.cfg.SourceListPageURL,
		LinkPattern: rt.cfg.SourceLinkPattern,
	}, rt.log)

	thumbs := thumb.NewNoop()

	// Re-extracting the OG image reuses the same polite fetch + parse path
	// as a live scrape.
	pageImage := func(context context.Context, sourceURL string) (string, error) {
		response, err := fetcher.Fetch(sourceURL)
		if err != nil {
			return "", err
		}
		fields, err := parser.Parse(sourceURL, string(response.Body))
		if err != nil {
			return "", err
		}
		return fields.ThumbnailURL, nil
	}
	backfiller := thumb.NewBackfiller(thumbs, articleRepository, pageImage, rt.log)

	var postProcess worker.FollowUp
	if llmClient, err := rt.newLLMClient(ctx); err == nil {
		postProcess = simple.New(articleRepository, llmClient, rt.cfg.ArticleModel, rt.log)
	} else {
		rt.log.Warn("simple post-processing disabled", slog.String("reason", err.Error()))
	}

	return worker.New(
		queueRepository,
		articleRepository,
		fetcher,
		parser,
		discoverer,
		thumbs,
		postProcess,
		backfiller,
		worker.Options{
			WorkerID:     rt.cfg.WorkerID,
			PollInterval: rt.cfg.WorkerPollInterval,
		},
		rt.log,
	)
}
