// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyeonlab/kwave/internal/ai/enrich"
	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/group"
	"github.com/hyeonlab/kwave/internal/scrape/fetch"
	"github.com/hyeonlab/kwave/internal/scrape/throttle"
)

// newEnrichCommand fills empty profile fields from the reference corpus and
// the model's verified prior knowledge.
func newEnrichCommand() *cobra.Command {
	var (
		limit  int
		groups bool
		sparse bool
	)

	command := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich artist and group profiles",
		Long: `Processes entities with no enrichment stamp in global-priority order.
--groups switches to group profiles; --sparse resets near-empty enrichments
for both entity kinds and redoes them with overwrite semantics.`,
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

			fetcher := fetch.New(throttle.New(nil), fetch.Options{})
			reference := enrich.NewWikipediaFetcher(fetcher.FetchBody)

			enricher := enrich.New(
				artist.NewPostgresRepository(rt.pool),
				group.NewPostgresRepository(rt.pool),
				reference,
				llmClient,
				rt.cfg.IntelligenceModel,
				rt.log,
			)

			var enriched int
			switch {
			case sparse:
				enriched, err = enricher.ReEnrichSparse(ctx, limit)
			case groups:
				enriched, err = enricher.EnrichGroups(ctx, limit)
			default:
				enriched, err = enricher.EnrichArtists(ctx, limit)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(command.OutOrStdout(), "enriched: %d\n", enriched)
			return nil
		},
	}

	command.Flags().IntVar(&limit, "limit", 10, "entities per pass")
	command.Flags().BoolVar(&groups, "groups", false, "enrich groups instead of artists")
	command.Flags().BoolVar(&sparse, "sparse", false, "reset and redo near-empty enrichments")
	return command
}
