// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package glossary

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonlab/kwave/internal/platform/dberr"
	"github.com/hyeonlab/kwave/pkg/uuidv7"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed glossary store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

/*
ListActive returns up to limit active entries for prompt injection.
*/
func (repository *PostgresRepository) ListActive(context context.Context, limit int) ([]*Entry, error) {
	const query = `
		SELECT id, term_ko, term_en, category, is_active,
		       is_auto_provisioned, source_article_id, created_at
		FROM core.glossary
		WHERE is_active
		ORDER BY category ASC, term_ko ASC
		LIMIT $1
	`
	rows, err := repository.db.Query(context, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list_glossary")
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		err := rows.Scan(&entry.ID, &entry.TermKO, &entry.TermEN,
			&entry.Category, &entry.IsActive, &entry.IsAutoProvisioned,
			&entry.SourceArticleID, &entry.CreatedAt)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_glossary_entry")
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

/*
InsertAutoProvisioned enrolls a machine-detected term idempotently.

Description: RETURNING id distinguishes a real insert from a conflict no-op;
pgx.ErrNoRows after ON CONFLICT DO NOTHING means the term already existed.
*/
func (repository *PostgresRepository) InsertAutoProvisioned(context context.Context, entry *Entry) (bool, error) {
	if entry.ID == "" {
		entry.ID = uuidv7.New()
	}

	const query = `
		INSERT INTO core.glossary (
			id, term_ko, term_en, category, is_active,
			is_auto_provisioned, source_article_id, created_at
		) VALUES ($1, $2, $3, $4, TRUE, TRUE, $5, NOW())
		ON CONFLICT (term_ko, category) DO NOTHING
		RETURNING id
	`
	var insertedID string
	err := repository.db.QueryRow(context, query,
		entry.ID, entry.TermKO, entry.TermEN, entry.Category, entry.SourceArticleID,
	).Scan(&insertedID)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, dberr.Wrap(err, "enroll_glossary_term")
	}
	return true, nil
}
