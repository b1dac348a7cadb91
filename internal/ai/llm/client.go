// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package llm wraps the Gemini API behind budget and pacing controls.

Every call passes three gates in order: the kill switch (a flag in the
shared param store that any operator or the client itself may trip), a
sliding-window RPM limiter, and finally the provider call with a JSON
response type and low temperature. Token usage is accounted into a monthly
counter in the param store; crossing the configured limit trips the kill
switch automatically so every worker stops at once.
*/
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// KillSwitchError signals that model calls are administratively disabled.
type KillSwitchError struct{}

func (KillSwitchError) Error() string {
	return "llm: kill switch is active"
}

// IsKillSwitch reports whether err is the kill-switch sentinel.
func IsKillSwitch(err error) bool {
	var kse KillSwitchError
	return errors.As(err, &kse)
}

// Usage captures the token and latency metrics of one call.
type Usage struct {
	PromptTokens     int   `json:"prompt_tokens"`
	CompletionTokens int   `json:"completion_tokens"`
	TotalTokens      int   `json:"total_tokens"`
	ResponseTimeMS   int64 `json:"response_time_ms"`
}

// Config tunes the client.
type Config struct {
	APIKey           string
	RPMLimit         int   // default 60
	MonthlyTokenCap  int64 // 0 disables budget enforcement
	KillSwitchKey    string
	MonthlyTokensKey string
	Temperature      float32 // default 0.1
}

// Client is the budget-gated Gemini client.
type Client struct {
	models  generativeModels
	params  ParamStore
	limiter *rpmLimiter
	config  Config
	logger  *slog.Logger
}

// generativeModels is the genai surface the client needs, split out so
// tests can stub the provider.
type generativeModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// New constructs a [Client] over the real Gemini SDK.
func New(context context.Context, config Config, params ParamStore, logger *slog.Logger) (*Client, error) {
	if config.RPMLimit == 0 {
		config.RPMLimit = 60
	}
	if config.Temperature == 0 {
		config.Temperature = 0.1
	}

	sdk, err := genai.NewClient(context, &genai.ClientConfig{APIKey: config.APIKey})
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}

	return &Client{
		models:  sdk.Models,
		params:  params,
		limiter: newRPMLimiter(config.RPMLimit),
		config:  config,
		logger:  logger,
	}, nil
}

/*
GenerateJSON runs one model call and returns the raw JSON text.

Description: The kill switch is checked first, then an RPM slot is
acquired (may block). The response has any markdown code fence stripped;
JSON validity is the caller's concern. Token usage is accounted before
returning, even when the caller later rejects the payload.

Returns:
  - string: Fence-stripped response text
  - *Usage: Token and latency metrics
  - error: KillSwitchError or provider failures
*/
func (client *Client) GenerateJSON(context context.Context, model, prompt string) (string, *Usage, error) {
	active, err := client.killSwitchActive(context)
	if err != nil {
		client.logger.Warn("kill switch lookup failed, proceeding", slog.String("error", err.Error()))
	}
	if active {
		return "", nil, KillSwitchError{}
	}

	client.limiter.acquire()

	started := time.Now()
	response, err := client.models.GenerateContent(context, model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr(client.config.Temperature),
		},
	)
	if err != nil {
		return "", nil, fmt.Errorf("llm: generate: %w", err)
	}

	usage := &Usage{ResponseTimeMS: time.Since(started).Milliseconds()}
	if metadata := response.UsageMetadata; metadata != nil {
		usage.PromptTokens = int(metadata.PromptTokenCount)
		usage.CompletionTokens = int(metadata.CandidatesTokenCount)
		usage.TotalTokens = int(metadata.TotalTokenCount)
	}

	client.accountUsage(context, usage)

	return StripFences(response.Text()), usage, nil
}

// killSwitchActive reads the flag; "true" (case-insensitive, trimmed) is
// active, everything else including lookup errors is inactive.
func (client *Client) killSwitchActive(context context.Context) (bool, error) {
	if client.config.KillSwitchKey == "" {
		return false, nil
	}
	value, err := client.params.Get(context, client.config.KillSwitchKey)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(value), "true"), nil
}

// accountUsage adds the call's tokens to the monthly counter and trips the
// kill switch when the budget is exhausted.
func (client *Client) accountUsage(context context.Context, usage *Usage) {
	if client.config.MonthlyTokensKey == "" || usage.TotalTokens == 0 {
		return
	}

	total, err := client.params.IncrBy(context, client.config.MonthlyTokensKey, int64(usage.TotalTokens))
	if err != nil {
		client.logger.Warn("token accounting failed", slog.String("error", err.Error()))
		return
	}

	if client.config.MonthlyTokenCap > 0 && total >= client.config.MonthlyTokenCap && client.config.KillSwitchKey != "" {
		if err := client.params.Set(context, client.config.KillSwitchKey, "true"); err != nil {
			client.logger.Error("failed to trip kill switch", slog.String("error", err.Error()))
			return
		}
		client.logger.Error("monthly token budget exhausted, kill switch tripped",
			slog.Int64("total_tokens", total),
			slog.Int64("cap", client.config.MonthlyTokenCap))
	}
}

// StripFences removes a wrapping markdown code fence from model output.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
