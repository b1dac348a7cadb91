// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/queue"
	"github.com/hyeonlab/kwave/internal/scrape/parse"
	"github.com/hyeonlab/kwave/pkg/slice"
)

// Fetcher is the polite HTTP client used for feed and list-page downloads.
type Fetcher interface {
	FetchBody(url string) ([]byte, error)
}

// ArticleIndex is the slice of the article store the discoverer consults to
// skip known URLs.
type ArticleIndex interface {
	MaxPublishedAt(context context.Context, language string) (*time.Time, error)
	StatusByURLs(context context.Context, urls []string) (map[string]article.Status, error)
}

// JobCreator submits scrape jobs for discovered URLs.
type JobCreator interface {
	Create(context context.Context, jobType queue.Type, params json.RawMessage, priority, maxRetries int) (string, error)
}

// Config locates the source site's feed and list pages.
type Config struct {
	FeedURL string
	// ListPageURL is a printf pattern with one %d page-number verb.
	ListPageURL string
	// LinkPattern restricts list-page anchors to article detail pages,
	// e.g. "/article/". Empty accepts every anchor.
	LinkPattern string
}

// Discovery is the outcome of a check-latest run.
type Discovery struct {
	Fresh   []Entry  `json:"fresh"`
	Skipped []string `json:"skipped"` // already processed or queued
	JobID   string   `json:"job_id,omitempty"`
}

// Service implements feed-driven discovery.
type Service struct {
	fetcher  Fetcher
	articles ArticleIndex
	jobs     JobCreator
	config   Config
	logger   *slog.Logger
}

// NewService constructs a feed discovery [Service].
func NewService(fetcher Fetcher, articles ArticleIndex, jobs JobCreator, config Config, logger *slog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		articles: articles,
		jobs:     jobs,
		config:   config,
		logger:   logger,
	}
}

/*
CheckLatest discovers entries newer than the newest stored article.

Description: Reads the RSS feed, falling back to the first list page when
the feed is empty. Entries already PROCESSED or queued are skipped. When
enqueue is true and fresh entries exist, a single scrape job is created at
feed priority covering all fresh URLs.

Returns:
  - *Discovery: Fresh entries, skipped URLs, created job id
  - error: Fetch or classification failures
*/
func (service *Service) CheckLatest(context context.Context, language string, enqueue bool) (*Discovery, error) {
	entries, err := service.fetchFeed()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		service.logger.Info("feed empty, falling back to list page")
		if entries, err = service.fetchListPage(1); err != nil {
			return nil, err
		}
	}

	watermark, err := service.articles.MaxPublishedAt(context, language)
	if err != nil {
		return nil, err
	}

	var candidates []Entry
	var urls []string
	for _, entry := range entries {
		if watermark != nil && entry.PublishedAt != nil && !entry.PublishedAt.After(*watermark) {
			continue
		}
		candidates = append(candidates, entry)
		urls = append(urls, entry.URL)
	}

	statuses, err := service.articles.StatusByURLs(context, urls)
	if err != nil {
		return nil, err
	}

	discovery := &Discovery{}
	for _, entry := range candidates {
		if status, known := statuses[entry.URL]; known && status != article.StatusError {
			discovery.Skipped = append(discovery.Skipped, entry.URL)
			continue
		}
		discovery.Fresh = append(discovery.Fresh, entry)
	}

	if enqueue && len(discovery.Fresh) > 0 {
		freshURLs := slice.Map(discovery.Fresh, func(entry Entry) string { return entry.URL })
		params, _ := json.Marshal(queue.ScrapeParams{URLs: freshURLs, Language: language})
		jobID, err := service.jobs.Create(context, queue.TypeScrape, params, queue.FeedPriority, queue.DefaultMaxRetries)
		if err != nil {
			return nil, err
		}
		discovery.JobID = jobID
		service.logger.Info("queued feed discoveries",
			slog.String("job_id", jobID),
			slog.Int("count", len(freshURLs)))
	}

	return discovery, nil
}

/*
CollectRange discovers entries published inside [start, end].

Description: The feed is consulted first. If its oldest entry is still newer
than start, list pages are walked up to maxPages, stopping early once the
oldest dated entry on a page precedes start. Undated entries stay in as
candidates; their dates are re-checked during scraping.
*/
func (service *Service) CollectRange(context context.Context, start, end time.Time, maxPages int) ([]Entry, error) {
	entries, err := service.fetchFeed()
	if err != nil {
		service.logger.Warn("feed fetch failed, using list pages only", slog.String("error", err.Error()))
		entries = nil
	}

	collected := filterRange(entries, start, end)

	if oldestAfter(entries, start) {
		for page := 1; page <= maxPages; page++ {
			pageEntries, err := service.fetchListPage(page)
			if err != nil {
				return nil, err
			}
			if len(pageEntries) == 0 {
				break
			}

			collected = append(collected, filterRange(pageEntries, start, end)...)

			if oldest := oldestDated(pageEntries); oldest != nil && oldest.Before(start) {
				break
			}
		}
	}

	return dedupe(collected), nil
}

// fetchFeed downloads and parses the configured RSS feed.
func (service *Service) fetchFeed() ([]Entry, error) {
	body, err := service.fetcher.FetchBody(service.config.FeedURL)
	if err != nil {
		return nil, err
	}
	return ParseFeed(body)
}

// fetchListPage downloads one list page and extracts article anchors.
func (service *Service) fetchListPage(page int) ([]Entry, error) {
	url := fmt.Sprintf(service.config.ListPageURL, page)
	body, err := service.fetcher.FetchBody(url)
	if err != nil {
		return nil, err
	}

	document, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	var entries []Entry
	document.Find("a[href]").Each(func(_ int, node *goquery.Selection) {
		href, _ := node.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || !strings.HasPrefix(href, "http") {
			return
		}
		if service.config.LinkPattern != "" && !strings.Contains(href, service.config.LinkPattern) {
			return
		}

		entry := Entry{URL: href, Title: strings.TrimSpace(node.Text())}

		// A sibling <time> or a dated text node near the anchor.
		if datetime, ok := node.Closest("li, article, div").Find("time[datetime]").First().Attr("datetime"); ok {
			entry.PublishedAt = parse.ParseDate(datetime)
		}

		entries = append(entries, entry)
	})

	return dedupe(entries), nil
}

// # Range Helpers

func filterRange(entries []Entry, start, end time.Time) []Entry {
	var kept []Entry
	for _, entry := range entries {
		if entry.PublishedAt == nil {
			kept = append(kept, entry)
			continue
		}
		if entry.PublishedAt.Before(start) || entry.PublishedAt.After(end) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

// oldestAfter reports whether every dated entry is newer than start,
// meaning the feed did not reach back far enough.
func oldestAfter(entries []Entry, start time.Time) bool {
	oldest := oldestDated(entries)
	return oldest == nil || oldest.After(start)
}

func oldestDated(entries []Entry) *time.Time {
	var oldest *time.Time
	for _, entry := range entries {
		if entry.PublishedAt == nil {
			continue
		}
		if oldest == nil || entry.PublishedAt.Before(*oldest) {
			oldest = entry.PublishedAt
		}
	}
	return oldest
}

func dedupe(entries []Entry) []Entry {
	seen := map[string]bool{}
	var unique []Entry
	for _, entry := range entries {
		if seen[entry.URL] {
			continue
		}
		seen[entry.URL] = true
		unique = append(unique, entry)
	}
	return unique
}
