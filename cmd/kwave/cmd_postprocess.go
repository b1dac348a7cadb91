// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyeonlab/kwave/internal/ai/simple"
	"github.com/hyeonlab/kwave/internal/core/article"
)

// newPostProcessCommand runs the lightweight translation pass over SCRAPED
// articles, one cheap model call each.
func newPostProcessCommand() *cobra.Command {
	var limit int

	command := &cobra.Command{
		Use:   "postprocess",
		Short: "Run the simple post-processor over the SCRAPED backlog",
		RunE: func(command *cobra.Command, args []string) error {
			ctx := command.Context()

			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			llmClient, err := rt.newLLMClient(ctx)
			if err != nil {
				return err
			}

			processor := simple.New(
				article.NewPostgresRepository(rt.pool),
				llmClient,
				rt.cfg.ArticleModel,
				rt.log,
			)

			processed, err := processor.Run(ctx, limit)
			if err != nil {
				return err
			}

			fmt.Fprintf(command.OutOrStdout(), "processed: %d\n", processed)
			return nil
		},
	}

	command.Flags().IntVar(&limit, "limit", 20, "articles per pass")
	return command
}
