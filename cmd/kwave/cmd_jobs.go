// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyeonlab/kwave/internal/queue"
)

// newJobsCommand groups direct queue operations for operators with database
// access. The same surface exists over HTTP on the internal API.
func newJobsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage the scrape queue",
	}

	command.AddCommand(
		newJobsSubmitCommand(),
		newJobsCancelCommand(),
		newJobsStatsCommand(),
	)
	return command
}

func newJobsSubmitCommand() *cobra.Command {
	var (
		jobType    string
		params     string
		priority   int
		maxRetries int
	)

	command := &cobra.Command{
		Use:   "submit",
		Short: "Submit a job",
		RunE: func(command *cobra.Command, args []string) error {
			ctx := command.Context()

			if !json.Valid([]byte(params)) {
				return fmt.Errorf("--params must be a JSON object")
			}

			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			jobs := queue.NewPostgresRepository(rt.pool)
			jobID, err := jobs.Create(ctx, queue.Type(jobType), json.RawMessage(params), priority, maxRetries)
			if err != nil {
				return err
			}

			fmt.Fprintln(command.OutOrStdout(), jobID)
			return nil
		},
	}

	command.Flags().StringVar(&jobType, "type", string(queue.TypeScrape), "scrape, scrape_range, or scrape_rss")
	command.Flags().StringVar(&params, "params", "{}", "job parameters as JSON")
	command.Flags().IntVar(&priority, "priority", 0, "0 uses the queue default")
	command.Flags().IntVar(&maxRetries, "max-retries", 0, "0 uses the queue default")
	return command
}

func newJobsCancelCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a pending job",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			ctx := command.Context()

			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			jobs := queue.NewPostgresRepository(rt.pool)
			cancelled, err := jobs.Cancel(ctx, args[0])
			if err != nil {
				return err
			}
			if !cancelled {
				return fmt.Errorf("job %s is not pending", args[0])
			}

			fmt.Fprintln(command.OutOrStdout(), "cancelled")
			return nil
		},
	}
	return command
}

func newJobsStatsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "stats",
		Short: "Show queue depth by status",
		RunE: func(command *cobra.Command, args []string) error {
			ctx := command.Context()

			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			jobs := queue.NewPostgresRepository(rt.pool)
			stats, err := jobs.GetStats(ctx)
			if err != nil {
				return err
			}

			encoded, _ := json.MarshalIndent(stats, "", "  ")
			fmt.Fprintln(command.OutOrStdout(), string(encoded))
			return nil
		},
	}
	return command
}
