// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package article manages scraped K-entertainment news articles.

It defines the [Article] entity, its forward-only processing lifecycle, and
the persistence contract used by the scrape worker, the AI pipeline, and the
public read API.

# Core Responsibility

  - Identity: Articles are globally unique by source URL.
  - Lifecycle: PENDING → SCRAPED → (PROCESSED | VERIFIED | MANUAL_REVIEW) | ERROR.
  - Projection: The public API serves only PROCESSED and VERIFIED rows with
    provenance fields stripped.
*/
package article

import (
	"encoding/json"
	"time"
)

// # Lifecycle

// Status is the processing state of an article. Transitions are strictly
// forward; ERROR is terminal until an operator resets it.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusScraped      Status = "SCRAPED"
	StatusProcessed    Status = "PROCESSED"
	StatusVerified     Status = "VERIFIED"
	StatusManualReview Status = "MANUAL_REVIEW"
	StatusError        Status = "ERROR"
)

// CanTransition reports whether moving from s to next follows an allowed
// lifecycle edge. The audit tests reject any other observed transition.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusScraped || next == StatusError
	case StatusScraped:
		switch next {
		case StatusProcessed, StatusVerified, StatusManualReview, StatusError:
			return true
		}
	}
	return false
}

// IsPublic reports whether the status is visible through the public API.
func (s Status) IsPublic() bool {
	return s == StatusProcessed || s == StatusVerified
}

// # Sentiment

// Sentiment is the stored article sentiment. The LLM may additionally emit
// "mixed", which normalizes to NEUTRAL before persistence.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// SentimentFromModel maps an LLM sentiment label onto the stored enum.
// Unknown labels return an empty sentiment (stored as NULL).
func SentimentFromModel(label string) *Sentiment {
	var s Sentiment
	switch label {
	case "positive":
		s = SentimentPositive
	case "negative":
		s = SentimentNegative
	case "neutral", "mixed":
		s = SentimentNeutral
	default:
		return nil
	}
	return &s
}

// # Core Entity

// Article represents a scraped news item and its bilingual derivatives.
type Article struct {
	ID        string `json:"id"` // UUIDv7
	SourceURL string `json:"source_url"`
	Language  string `json:"language"` // kr, en, jp

	TitleKO   string  `json:"title_ko"`
	TitleEN   *string `json:"title_en,omitempty"`
	ContentKO string  `json:"content_ko,omitempty"`
	SummaryKO *string `json:"summary_ko,omitempty"`
	SummaryEN *string `json:"summary_en,omitempty"`

	Author       *string    `json:"author,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	ThumbnailURL *string    `json:"thumbnail_url,omitempty"`

	HashtagsKO  []string        `json:"hashtags_ko,omitempty"`
	HashtagsEN  []string        `json:"hashtags_en,omitempty"`
	SEOHashtags json.RawMessage `json:"seo_hashtags,omitempty"` // tags + model + confidence + tier

	Sentiment *Sentiment `json:"sentiment,omitempty"`
	Status    Status     `json:"process_status"`

	// SystemNote carries the human-readable review rationale. It is never
	// exposed through the public projection.
	SystemNote *string `json:"-"`

	// ArtistNameKO is a denormalized tier hint filled by the scraper.
	ArtistNameKO *string `json:"artist_name_ko,omitempty"`

	// GlobalPriority marks articles about priority-1 entities for fast filtering.
	GlobalPriority bool `json:"global_priority"`

	// JobID backpoints to the queue job that scraped this article.
	JobID *string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Search & Filtering

// Filter holds parameters for listing public articles.
type Filter struct {
	ArtistID string
	GroupID  string
	Language string
	Query    string   // weighted full-text search (title A, summary B, body C)
	Hashtags []string // matches any Korean hashtag, with or without the # prefix
}

// # Write-Through

// ProcessingUpdate is the engine's COALESCE-style write-back after
// extraction. Nil pointer fields leave the stored value untouched;
// SystemNote set to an empty string clears the column to NULL.
type ProcessingUpdate struct {
	ArticleID   string
	Status      Status
	TitleEN     *string
	SummaryKO   *string // written only when the stored summary is empty
	SummaryEN   *string
	HashtagsEN  []string
	SEOHashtags json.RawMessage
	Sentiment   *Sentiment
	SystemNote  *string
}
