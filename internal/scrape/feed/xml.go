// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package feed discovers new article URLs from RSS/Atom feeds and paginated
list pages.

Feeds are parsed permissively: namespace declarations are stripped before
decoding so prefixed and unprefixed documents parse identically, and both
RSS 2.0 <item> and Atom <entry> nodes are accepted in one pass.
*/
package feed

import (
	"encoding/xml"
	"regexp"
	"strings"
	"time"

	"github.com/hyeonlab/kwave/internal/scrape/parse"
)

// Entry is one discovered article candidate. A nil PublishedAt keeps the
// entry as a candidate; the date is re-checked during scraping.
type Entry struct {
	Title       string
	URL         string
	PublishedAt *time.Time
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
	Entries []atomEntry `xml:"entry"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Date    string `xml:"date"` // dc:date after namespace stripping
}

type atomEntry struct {
	Title string `xml:"title"`
	Link  struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
}

// xmlnsAttribute matches namespace declarations and element prefixes.
var (
	xmlnsAttribute = regexp.MustCompile(`\s+xmlns(:\w+)?="[^"]*"`)
	elementPrefix  = regexp.MustCompile(`(</?)(\w+):`)
)

/*
ParseFeed decodes RSS 2.0 or Atom XML into entries, newest first order
preserved as published.

Returns:
  - []Entry: Parsed entries; empty title/link rows are dropped
  - error: XML syntax failures
*/
func ParseFeed(raw []byte) ([]Entry, error) {
	sanitized := xmlnsAttribute.ReplaceAll(raw, nil)
	sanitized = elementPrefix.ReplaceAll(sanitized, []byte("$1"))

	var document rssDocument
	decoder := xml.NewDecoder(strings.NewReader(string(sanitized)))
	decoder.Strict = false
	if err := decoder.Decode(&document); err != nil {
		return nil, err
	}

	var entries []Entry
	for _, item := range document.Channel.Items {
		url := strings.TrimSpace(item.Link)
		if url == "" {
			continue
		}
		published := parseFeedDate(item.PubDate)
		if published == nil {
			published = parseFeedDate(item.Date)
		}
		entries = append(entries, Entry{
			Title:       strings.TrimSpace(item.Title),
			URL:         url,
			PublishedAt: published,
		})
	}
	for _, entry := range document.Entries {
		url := strings.TrimSpace(entry.Link.Href)
		if url == "" {
			continue
		}
		published := parseFeedDate(entry.Published)
		if published == nil {
			published = parseFeedDate(entry.Updated)
		}
		entries = append(entries, Entry{
			Title:       strings.TrimSpace(entry.Title),
			URL:         url,
			PublishedAt: published,
		})
	}

	return entries, nil
}

// feedDateLayouts covers RFC1123 variants common in RSS pubDate.
var feedDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

func parseFeedDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range feedDateLayouts {
		if at, err := time.Parse(layout, raw); err == nil {
			utc := at.UTC()
			return &utc
		}
	}
	return parse.ParseDate(raw)
}
