// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package fetch implements the polite HTTP client used by all scraping.

Pacing is two-layered on purpose: the domain throttle enforces hard
politeness invariants per host, while an additional human-jitter delay of
uniform(2,5) seconds makes the request cadence irregular. 403 responses are
terminal for the whole batch (IP/UA blocks do not resolve on retry); 429
responses honor Retry-After with jitter before retrying.
*/
package fetch

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/hyeonlab/kwave/internal/platform/constants"
)

// # Errors

// ForbiddenError signals an HTTP 403. Fatal to the batch, never retried.
type ForbiddenError struct {
	URL string
}

func (e *ForbiddenError) Error() string {
	return "fetch: 403 forbidden at " + e.URL
}

// RateLimitError signals that 429 responses survived every retry.
type RateLimitError struct {
	URL string
}

func (e *RateLimitError) Error() string {
	return "fetch: rate limited at " + e.URL
}

// ScraperError signals exhausted retries over 5xx or network failures.
type ScraperError struct {
	URL  string
	Last error
}

func (e *ScraperError) Error() string {
	return fmt.Sprintf("fetch: giving up on %s: %v", e.URL, e.Last)
}

func (e *ScraperError) Unwrap() error { return e.Last }

// IsForbidden reports whether err is a batch-fatal 403.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}

// # Fetcher

// Waiter is the admission gate consulted before every request.
// Satisfied by [throttle.Throttle].
type Waiter interface {
	Wait(url string) error
}

// Options tune retry and delay behavior.
type Options struct {
	MaxRetries int           // attempts beyond the first, default 3
	DelayMin   time.Duration // human-jitter lower bound, default 2 s
	DelayMax   time.Duration // human-jitter upper bound, default 5 s
	UserAgent  string
	Timeout    time.Duration // per-attempt, default constants.FetchTimeout
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.DelayMin == 0 {
		opts.DelayMin = 2 * time.Second
	}
	if opts.DelayMax == 0 {
		opts.DelayMax = 5 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	}
	if opts.Timeout == 0 {
		opts.Timeout = constants.FetchTimeout
	}
	return opts
}

// Response is a fully buffered fetch result.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher performs throttled, retrying GETs.
type Fetcher struct {
	client  *http.Client
	waiter  Waiter
	options Options

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// New constructs a [Fetcher] around the given throttle.
func New(waiter Waiter, options Options) *Fetcher {
	opts := options.withDefaults()
	return &Fetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		waiter:  waiter,
		options: opts,
		sleep:   time.Sleep,
	}
}

/*
Fetch GETs the URL, retrying per policy.

Returns:
  - *Response: Buffered 2xx response
  - error: ForbiddenError (no retry), RateLimitError, or ScraperError
*/
func (fetcher *Fetcher) Fetch(url string) (*Response, error) {
	var lastErr error
	rateLimited := false

	for attempt := 0; attempt <= fetcher.options.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff with jitter: 2·2^(attempt-1) + U(0,1).
			backoff := 2 * math.Pow(2, float64(attempt-1))
			fetcher.sleep(time.Duration((backoff + rand.Float64()) * float64(time.Second)))
		}

		// Human-jitter delay on top of the domain throttle.
		fetcher.sleep(fetcher.humanDelay())

		if err := fetcher.waiter.Wait(url); err != nil {
			return nil, &ScraperError{URL: url, Last: err}
		}

		response, err := fetcher.get(url)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case response.StatusCode == http.StatusForbidden:
			return nil, &ForbiddenError{URL: url}

		case response.StatusCode == http.StatusTooManyRequests:
			rateLimited = true
			fetcher.sleep(retryAfter(response.header) + time.Duration(1+4*rand.Float64())*time.Second)
			lastErr = fmt.Errorf("status 429")

		case response.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d", response.StatusCode)

		case response.StatusCode >= 200 && response.StatusCode < 300:
			return &Response{URL: url, StatusCode: response.StatusCode, Body: response.body}, nil

		default:
			lastErr = fmt.Errorf("status %d", response.StatusCode)
		}
	}

	if rateLimited {
		return nil, &RateLimitError{URL: url}
	}
	return nil, &ScraperError{URL: url, Last: lastErr}
}

/*
FetchBody GETs the URL and returns only the buffered body.
*/
func (fetcher *Fetcher) FetchBody(url string) ([]byte, error) {
	response, err := fetcher.Fetch(url)
	if err != nil {
		return nil, err
	}
	return response.Body, nil
}

/*
FetchImage GETs a binary asset through the same session, so the throttle
and human delay apply identically to image downloads.
*/
func (fetcher *Fetcher) FetchImage(url string) ([]byte, error) {
	response, err := fetcher.Fetch(url)
	if err != nil {
		return nil, err
	}
	return response.Body, nil
}

type rawResponse struct {
	StatusCode int
	header     http.Header
	body       []byte
}

func (fetcher *Fetcher) get(url string) (*rawResponse, error) {
	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", fetcher.options.UserAgent)
	request.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8")

	response, err := fetcher.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	return &rawResponse{StatusCode: response.StatusCode, header: response.Header, body: body}, nil
}

func (fetcher *Fetcher) humanDelay() time.Duration {
	span := fetcher.options.DelayMax - fetcher.options.DelayMin
	return fetcher.options.DelayMin + time.Duration(rand.Float64()*float64(span))
}

// retryAfter reads the Retry-After header in seconds, defaulting to 30 s.
func retryAfter(header http.Header) time.Duration {
	if raw := header.Get("Retry-After"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 30 * time.Second
}
