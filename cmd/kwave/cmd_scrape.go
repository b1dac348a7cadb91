// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/queue"
	"github.com/hyeonlab/kwave/internal/scrape/feed"
	"github.com/hyeonlab/kwave/internal/scrape/fetch"
	"github.com/hyeonlab/kwave/internal/scrape/throttle"
)

// newScrapeRangeCommand submits a scrape_range job covering [start, end].
func newScrapeRangeCommand() *cobra.Command {
	var (
		startDate string
		endDate   string
		language  string
		maxPages  int
		batchSize int
		force     bool
		dryRun    bool
	)

	command := &cobra.Command{
		Use:   "scrape-range",
		Short: "Queue a date-range backfill scrape",
		RunE: func(command *cobra.Command, args []string) error {
			ctx := command.Context()

			if err := validateBound(startDate); err != nil {
				return fmt.Errorf("--start must be YYYY-MM-DD[THH:MM:SS]: %w", err)
			}
			if err := validateBound(endDate); err != nil {
				return fmt.Errorf("--end must be YYYY-MM-DD[THH:MM:SS]: %w", err)
			}

			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			params, _ := json.Marshal(queue.RangeParams{
				StartDate: startDate,
				EndDate:   endDate,
				Language:  language,
				MaxPages:  maxPages,
				BatchSize: batchSize,
				Force:     force,
				DryRun:    dryRun,
			})

			jobs := queue.NewPostgresRepository(rt.pool)
			jobID, err := jobs.Create(ctx, queue.TypeScrapeRange, params, 0, 0)
			if err != nil {
				return err
			}

			fmt.Fprintln(command.OutOrStdout(), jobID)
			return nil
		},
	}

	command.Flags().StringVar(&startDate, "start", "", "range start, YYYY-MM-DD[THH:MM:SS]")
	command.Flags().StringVar(&endDate, "end", "", "range end, YYYY-MM-DD[THH:MM:SS] (inclusive)")
	command.Flags().StringVar(&language, "language", "kr", "article language")
	command.Flags().IntVar(&maxPages, "max-pages", 0, "list-page pagination bound (0 = worker default)")
	command.Flags().IntVar(&batchSize, "batch-size", 0, "URLs per batch (0 = all discovered)")
	command.Flags().BoolVar(&force, "force", false, "rescrape URLs regardless of stored status")
	command.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and parse without writing")
	_ = command.MarkFlagRequired("start")
	_ = command.MarkFlagRequired("end")
	return command
}

// validateBound accepts a date with an optional time component. A bare
// date expands inside the worker, 00:00:00 for starts and 23:59:59 for
// ends.
func validateBound(value string) error {
	if _, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return nil
	}
	_, err := time.Parse("2006-01-02", value)
	return err
}

// newCheckLatestCommand runs feed discovery against the source site and
// optionally enqueues a scrape job for the fresh URLs.
func newCheckLatestCommand() *cobra.Command {
	var (
		language string
		noQueue  bool
	)

	command := &cobra.Command{
		Use:   "check-latest",
		Short: "Discover feed entries newer than the stored watermark",
		RunE: func(command *cobra.Command, args []string) error {
			ctx := command.Context()

			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			articleRepository := article.NewPostgresRepository(rt.pool)
			queueRepository := queue.NewPostgresRepository(rt.pool)
			fetcher := fetch.New(throttle.New(nil), fetch.Options{})

			discoverer := feed.NewService(fetcher, articleRepository, queueRepository, feed.Config{
				FeedURL:     rt.cfg.SourceFeedURL,
				ListPageURL: rt.cfg.SourceListPageURL,
				LinkPattern: rt.cfg.SourceLinkPattern,
			}, rt.log)

			discovery, err := discoverer.CheckLatest(ctx, language, !noQueue)
			if err != nil {
				return err
			}

			encoded, _ := json.MarshalIndent(discovery, "", "  ")
			fmt.Fprintln(command.OutOrStdout(), string(encoded))
			return nil
		},
	}

	command.Flags().StringVar(&language, "language", "kr", "article language")
	command.Flags().BoolVar(&noQueue, "no-queue", false, "report fresh URLs without creating a scrape job")
	return command
}
