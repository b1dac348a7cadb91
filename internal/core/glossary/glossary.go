// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package glossary manages the Korean→English canonical term dictionary.

Entries feed the intelligence engine's prompts so that translations stay
consistent across batches. Besides curated rows, the engine auto-enrolls
terms it confidently detected but could not link to a known entity; those
rows are marked is_auto_provisioned and carry the article they came from.
*/
package glossary

import (
	"context"
	"time"
)

// Category partitions glossary terms.
type Category string

const (
	CategoryArtist  Category = "ARTIST"
	CategoryEvent   Category = "EVENT"
	CategoryAgency  Category = "AGENCY"
	CategoryProgram Category = "PROGRAM"
	CategoryGeneral Category = "GENERAL"
)

// Entry is one canonical Korean→English term mapping.
// Uniqueness: one row per (term_ko, category).
type Entry struct {
	ID                string    `json:"id"`
	TermKO            string    `json:"term_ko"`
	TermEN            string    `json:"term_en"`
	Category          Category  `json:"category"`
	IsActive          bool      `json:"is_active"`
	IsAutoProvisioned bool      `json:"is_auto_provisioned"`
	SourceArticleID   *string   `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}

// # Glossary Data Access

// Repository defines the data access contract for glossary entries.
type Repository interface {

	/*
		ListActive returns up to limit active entries ordered by category
		then Korean term, for prompt injection.
	*/
	ListActive(context context.Context, limit int) ([]*Entry, error)

	/*
		InsertAutoProvisioned enrolls a machine-detected term. The insert is
		idempotent on (term_ko, category).

		Returns:
		  - bool: true when a new row was created, false on conflict
		  - error: Database failures
	*/
	InsertAutoProvisioned(context context.Context, entry *Entry) (bool, error)
}
