// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

// Command kwave is the operations CLI for the scrape and intelligence
// pipeline: the worker loop, job submission, batch AI passes, profile
// enrichment, and operator token minting.
//
// Every subcommand bootstraps the same way the API server does (config,
// structured logger, pgx pool, Redis) and tears the connections down when
// the command returns.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/hyeonlab/kwave/internal/ai/llm"
	"github.com/hyeonlab/kwave/internal/platform/config"
	"github.com/hyeonlab/kwave/internal/platform/constants"
	pgstore "github.com/hyeonlab/kwave/internal/platform/postgres"
	redisstore "github.com/hyeonlab/kwave/internal/platform/redis"
)

func main() {
	root := &cobra.Command{
		Use:           "kwave",
		Short:         "Kwave pipeline operations",
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newWorkerCommand(),
		newScrapeRangeCommand(),
		newCheckLatestCommand(),
		newIntelligenceCommand(),
		newEnrichCommand(),
		newPostProcessCommand(),
		newJobsCommand(),
		newTokenCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// # Shared Bootstrap

// runtime bundles the connections every subcommand needs.
type runtime struct {
	cfg  *config.Config
	log  *slog.Logger
	pool *pgxpool.Pool
	rdb  *goredis.Client
}

// newRuntime loads configuration and opens PostgreSQL and Redis. The caller
// must invoke close.
func newRuntime(context context.Context) (*runtime, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	pool, err := pgstore.NewPool(context, cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, err
	}

	rdb, err := redisstore.NewClient(context, cfg.RedisURL, log)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	rt := &runtime{cfg: cfg, log: log, pool: pool, rdb: rdb}
	cleanup := func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
		pool.Close()
	}
	return rt, cleanup, nil
}

// newLLMClient builds the budget-gated Gemini client backed by the Redis
// parameter store for the kill switch and the monthly token counter.
func (rt *runtime) newLLMClient(context context.Context) (*llm.Client, error) {
	if rt.cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	params := llm.NewRedisParamStore(rt.rdb)

	return llm.New(context, llm.Config{
		APIKey:           rt.cfg.GeminiAPIKey,
		RPMLimit:         rt.cfg.GeminiRPMLimit,
		MonthlyTokenCap:  rt.cfg.GeminiMonthlyTokenCap,
		KillSwitchKey:    rt.cfg.GeminiKillSwitchKey,
		MonthlyTokensKey: rt.cfg.GeminiMonthlyTokensKey,
	}, params, rt.log)
}
