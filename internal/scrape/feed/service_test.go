// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/queue"
)

// fakeFetcher serves canned bodies keyed by URL.
type fakeFetcher struct {
	bodies map[string][]byte
	errs   map[string]error
	calls  []string
}

func (f *fakeFetcher) FetchBody(url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if body, ok := f.bodies[url]; ok {
		return body, nil
	}
	return nil, io.EOF
}

type fakeIndex struct {
	watermark *time.Time
	statuses  map[string]article.Status
}

func (f *fakeIndex) MaxPublishedAt(context.Context, string) (*time.Time, error) {
	return f.watermark, nil
}

func (f *fakeIndex) StatusByURLs(_ context.Context, urls []string) (map[string]article.Status, error) {
	known := map[string]article.Status{}
	for _, url := range urls {
		if status, ok := f.statuses[url]; ok {
			known[url] = status
		}
	}
	return known, nil
}

type fakeJobs struct {
	jobType  queue.Type
	params   json.RawMessage
	priority int
	created  int
}

func (f *fakeJobs) Create(_ context.Context, jobType queue.Type, params json.RawMessage, priority, _ int) (string, error) {
	f.jobType = jobType
	f.params = params
	f.priority = priority
	f.created++
	return "job-feed-1", nil
}

const (
	feedURL  = "https://news.example.co.kr/rss"
	listURL  = "https://news.example.co.kr/list?page=%d"
	listURL1 = "https://news.example.co.kr/list?page=1"
)

func rssBody(items ...string) []byte {
	body := `<rss><channel>`
	for _, item := range items {
		body += item
	}
	return []byte(body + `</channel></rss>`)
}

func rssItemXML(url, pubDate string) string {
	item := `<item><title>t</title><link>` + url + `</link>`
	if pubDate != "" {
		item += `<pubDate>` + pubDate + `</pubDate>`
	}
	return item + `</item>`
}

func newTestService(fetcher *fakeFetcher, index *fakeIndex, jobs *fakeJobs) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(fetcher, index, jobs, Config{
		FeedURL:     feedURL,
		ListPageURL: listURL,
		LinkPattern: "/article/",
	}, logger)
}

/*
TestCheckLatest_FreshAndSkipped verifies watermark filtering, known-URL
skipping, and job creation at feed priority.
*/
func TestCheckLatest_FreshAndSkipped(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		feedURL: rssBody(
			rssItemXML("https://news.example.co.kr/article/new", "Mon, 24 Aug 2026 09:00:00 +0900"),
			rssItemXML("https://news.example.co.kr/article/known", "Mon, 24 Aug 2026 08:00:00 +0900"),
			rssItemXML("https://news.example.co.kr/article/old", "Sat, 01 Aug 2026 09:00:00 +0900"),
		),
	}}
	watermark := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	index := &fakeIndex{
		watermark: &watermark,
		statuses: map[string]article.Status{
			"https://news.example.co.kr/article/known": article.StatusProcessed,
		},
	}
	jobs := &fakeJobs{}

	discovery, err := newTestService(fetcher, index, jobs).CheckLatest(context.Background(), "kr", true)
	require.NoError(t, err)

	require.Len(t, discovery.Fresh, 1)
	assert.Equal(t, "https://news.example.co.kr/article/new", discovery.Fresh[0].URL)
	assert.Equal(t, []string{"https://news.example.co.kr/article/known"}, discovery.Skipped)
	assert.Equal(t, "job-feed-1", discovery.JobID)

	assert.Equal(t, 1, jobs.created)
	assert.Equal(t, queue.TypeScrape, jobs.jobType)
	assert.Equal(t, queue.FeedPriority, jobs.priority)

	var params queue.ScrapeParams
	require.NoError(t, json.Unmarshal(jobs.params, &params))
	assert.Equal(t, []string{"https://news.example.co.kr/article/new"}, params.URLs)
	assert.Equal(t, "kr", params.Language)
}

/*
TestCheckLatest_ErrorStatusRetried verifies URLs stored with ERROR status
count as fresh again.
*/
func TestCheckLatest_ErrorStatusRetried(t *testing.T) {
	url := "https://news.example.co.kr/article/errored"
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		feedURL: rssBody(rssItemXML(url, "Mon, 24 Aug 2026 09:00:00 +0900")),
	}}
	index := &fakeIndex{statuses: map[string]article.Status{url: article.StatusError}}

	discovery, err := newTestService(fetcher, index, &fakeJobs{}).CheckLatest(context.Background(), "kr", false)
	require.NoError(t, err)

	require.Len(t, discovery.Fresh, 1)
	assert.Empty(t, discovery.Skipped)
}

/*
TestCheckLatest_NoEnqueue verifies enqueue=false never creates a job.
*/
func TestCheckLatest_NoEnqueue(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		feedURL: rssBody(rssItemXML("https://news.example.co.kr/article/a", "")),
	}}
	jobs := &fakeJobs{}

	discovery, err := newTestService(fetcher, &fakeIndex{}, jobs).CheckLatest(context.Background(), "kr", false)
	require.NoError(t, err)

	assert.Len(t, discovery.Fresh, 1)
	assert.Zero(t, jobs.created)
	assert.Empty(t, discovery.JobID)
}

/*
TestCheckLatest_ListPageFallback verifies an empty feed falls back to the
first list page, honoring the link pattern.
*/
func TestCheckLatest_ListPageFallback(t *testing.T) {
	listPage := []byte(`<html><body>
		<a href="https://news.example.co.kr/article/100">기사</a>
		<a href="https://news.example.co.kr/tags/kpop">태그</a>
		<a href="/article/101">상대경로</a>
	</body></html>`)
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		feedURL:  rssBody(),
		listURL1: listPage,
	}}

	discovery, err := newTestService(fetcher, &fakeIndex{}, &fakeJobs{}).CheckLatest(context.Background(), "kr", false)
	require.NoError(t, err)

	require.Len(t, discovery.Fresh, 1)
	assert.Equal(t, "https://news.example.co.kr/article/100", discovery.Fresh[0].URL)
}

/*
TestCollectRange verifies list pages are walked until a page reaches back
before the window start, and dated entries outside the window are dropped.
*/
func TestCollectRange(t *testing.T) {
	page := func(n int) string {
		return "https://news.example.co.kr/list?page=" + string(rune('0'+n))
	}
	listPage := func(anchors string) []byte {
		return []byte(`<html><body>` + anchors + `</body></html>`)
	}
	anchor := func(url, datetime string) string {
		html := `<li><a href="` + url + `">기사</a>`
		if datetime != "" {
			html += `<time datetime="` + datetime + `">날짜</time>`
		}
		return html + `</li>`
	}

	fetcher := &fakeFetcher{
		bodies: map[string][]byte{
			page(1): listPage(
				anchor("https://news.example.co.kr/article/10", "2026-08-15") +
					anchor("https://news.example.co.kr/article/11", "2026-08-12")),
			page(2): listPage(
				anchor("https://news.example.co.kr/article/12", "2026-08-09") +
					anchor("https://news.example.co.kr/article/13", "")),
			page(3): listPage(anchor("https://news.example.co.kr/article/14", "2026-07-01")),
		},
		errs: map[string]error{feedURL: errors.New("feed down")},
	}

	start := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC)

	entries, err := newTestService(fetcher, &fakeIndex{}, &fakeJobs{}).CollectRange(context.Background(), start, end, 10)
	require.NoError(t, err)

	// Page 2's oldest dated entry precedes the window start, so page 3 is
	// never fetched. The undated entry survives as a candidate.
	urls := make([]string, 0, len(entries))
	for _, entry := range entries {
		urls = append(urls, entry.URL)
	}
	assert.Equal(t, []string{
		"https://news.example.co.kr/article/10",
		"https://news.example.co.kr/article/11",
		"https://news.example.co.kr/article/13",
	}, urls)
	assert.NotContains(t, fetcher.calls, page(3))
}
