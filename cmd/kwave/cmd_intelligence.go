// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyeonlab/kwave/internal/ai/engine"
	"github.com/hyeonlab/kwave/internal/ai/resolver"
	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/audit"
	"github.com/hyeonlab/kwave/internal/core/glossary"
	"github.com/hyeonlab/kwave/internal/core/group"
	"github.com/hyeonlab/kwave/internal/core/mapping"
)

// newIntelligenceCommand runs one batch of the intelligence engine over
// PENDING articles.
func newIntelligenceCommand() *cobra.Command {
	var (
		batchSize      int
		jobID          string
		model          string
		threshold      float64
		autoCommit     float64
		disableHealing bool
		dryRun         bool
	)

	command := &cobra.Command{
		Use:   "intelligence",
		Short: "Run the extraction, linking, and status-decision pass",
		Long: `Claims up to --batch-size PENDING articles, runs tiered extraction and
contextual entity linking, applies the status decision, and writes the
results through. --dry-run prints per-article previews without claiming or
writing anything.`,
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

			if model == "" {
				model = rt.cfg.IntelligenceModel
			}

			articleRepository := article.NewPostgresRepository(rt.pool)
			artistRepository := artist.NewPostgresRepository(rt.pool)
			groupRepository := group.NewPostgresRepository(rt.pool)
			mappingRepository := mapping.NewPostgresRepository(rt.pool)
			glossaryRepository := glossary.NewPostgresRepository(rt.pool)
			auditRepository := audit.NewPostgresRepository(rt.pool)

			var healer engine.Healer
			if !disableHealing {
				healer = resolver.New(rt.pool, artistRepository, auditRepository,
					glossaryRepository, llmClient, model, rt.log)
			}

			thresholds := engine.DefaultThresholds()
			thresholds.EntityConfidence = threshold
			thresholds.AutoCommit = autoCommit

			intelligence := engine.New(
				articleRepository,
				mappingRepository,
				artistRepository,
				groupRepository,
				glossaryRepository,
				llmClient,
				healer,
				auditRepository,
				engine.Config{
					Model:       model,
					Thresholds:  thresholds,
					GlossaryTTL: rt.cfg.GlossaryCacheTTL,
				},
				rt.log,
			)

			var jobRef *string
			if jobID != "" {
				jobRef = &jobID
			}

			outcome, err := intelligence.ProcessPending(ctx, batchSize, jobRef, dryRun)
			if err != nil {
				return err
			}

			encoded, _ := json.MarshalIndent(outcome, "", "  ")
			fmt.Fprintln(command.OutOrStdout(), string(encoded))
			return nil
		},
	}

	command.Flags().IntVar(&batchSize, "batch-size", 10, "articles per pass")
	command.Flags().StringVar(&jobID, "job-id", "", "queue job to attribute processed articles to")
	command.Flags().StringVar(&model, "model", "", "override the configured intelligence model")
	command.Flags().Float64Var(&threshold, "threshold", 0.80, "per-entity confidence floor")
	command.Flags().Float64Var(&autoCommit, "auto-commit-threshold", 0.95, "overall confidence for VERIFIED")
	command.Flags().BoolVar(&disableHealing, "no-self-healing", false, "skip cross-validation and auto-enrollment")
	command.Flags().BoolVar(&dryRun, "dry-run", false, "preview without claiming or writing")
	return command
}
