// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, LLM) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Kwave pipeline and API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) — LLM kill switch and monthly token accounting.
	RedisURL string `env:"REDIS_URL,required"`

	// Operator tokens for the internal job API
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`

	// Object Storage (thumbnail service boundary)
	S3Bucket string `env:"S3_BUCKET_NAME"`
	S3Region string `env:"AWS_REGION" envDefault:"ap-northeast-2"`

	// Gemini LLM provider
	GeminiAPIKey           string `env:"GEMINI_API_KEY"`
	GeminiRPMLimit         int    `env:"GEMINI_RPM_LIMIT"           envDefault:"60"`
	GeminiMonthlyTokenCap  int64  `env:"GEMINI_MONTHLY_TOKEN_LIMIT" envDefault:"2000000"`
	GeminiKillSwitchKey    string `env:"GEMINI_KILL_SWITCH_PATH"    envDefault:"kwave:gemini:kill_switch"`
	GeminiMonthlyTokensKey string `env:"GEMINI_MONTHLY_TOKENS_PATH" envDefault:"kwave:gemini:monthly_tokens"`

	// Model selection per pipeline stage
	IntelligenceModel string `env:"INTELLIGENCE_MODEL" envDefault:"gemini-2.0-flash"`
	ArticleModel      string `env:"ARTICLE_MODEL"      envDefault:"gemini-2.0-flash-lite"`
	FallbackModel     string `env:"FALLBACK_MODEL"     envDefault:"gemini-1.5-flash"`

	// Intelligence thresholds
	EntityConfidenceThreshold float64       `env:"ENTITY_CONFIDENCE_THRESHOLD" envDefault:"0.80"`
	AutoCommitThreshold       float64       `env:"AUTO_COMMIT_THRESHOLD"       envDefault:"0.95"`
	GlossaryCacheTTL          time.Duration `env:"GLOSSARY_CACHE_TTL"          envDefault:"600s"`

	// Scrape worker
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"10s"`
	WorkerID           string        `env:"WORKER_ID"`

	// Source site (feed discovery). ListPageURL carries one %d page verb.
	SourceFeedURL     string `env:"SOURCE_FEED_URL"`
	SourceListPageURL string `env:"SOURCE_LIST_PAGE_URL"`
	SourceLinkPattern string `env:"SOURCE_LINK_PATTERN"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// GEMINI_API_KEY is only mandatory outside development so that the
	// scraper and the read API can run locally without LLM access.
	if cfg.IsProduction() && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("config: GEMINI_API_KEY is required in production")
	}

	// Worker identity falls back to the hostname.
	if cfg.WorkerID == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.WorkerID = host
		} else {
			cfg.WorkerID = "worker-unknown"
		}
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
