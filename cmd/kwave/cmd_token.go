// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyeonlab/kwave/internal/platform/config"
	"github.com/hyeonlab/kwave/internal/platform/constants"
	"github.com/hyeonlab/kwave/internal/platform/sec"
)

// newTokenCommand mints operator bearer tokens for the internal API. It
// only needs the signing key, so no database connection is opened.
func newTokenCommand() *cobra.Command {
	var (
		subject    string
		timeToLive time.Duration
	)

	command := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token for the internal API",
		RunE: func(command *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
			if err != nil {
				return err
			}

			token, err := tokens.GenerateOperatorToken(subject, timeToLive)
			if err != nil {
				return err
			}

			fmt.Fprintln(command.OutOrStdout(), token)
			return nil
		},
	}

	command.Flags().StringVar(&subject, "subject", "", "operator identity embedded in the token")
	command.Flags().DurationVar(&timeToLive, "ttl", 12*time.Hour, "token lifetime")
	_ = command.MarkFlagRequired("subject")
	return command
}
