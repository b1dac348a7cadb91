// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package mapping

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonlab/kwave/internal/platform/apperr"
	"github.com/hyeonlab/kwave/internal/platform/dberr"
	"github.com/hyeonlab/kwave/pkg/uuidv7"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed mapping store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

/*
ReplaceForArticle atomically swaps the article's edge set.
*/
func (repository *PostgresRepository) ReplaceForArticle(context context.Context, articleID string, edges []*EntityMapping) error {
	for _, edge := range edges {
		if !edge.Valid() {
			return apperr.Unprocessable("entity mapping violates the single-FK invariant")
		}
	}

	tx, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_replace_mappings")
	}
	defer tx.Rollback(context)

	if _, err := tx.Exec(context, `DELETE FROM core.entity_mapping WHERE article_id = $1`, articleID); err != nil {
		return dberr.Wrap(err, "clear_mappings")
	}

	const insert = `
		INSERT INTO core.entity_mapping (
			id, article_id, entity_type, artist_id, group_id, name_ko,
			name_en, confidence_score, context_snippet, mention_count,
			is_primary, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT DO NOTHING
	`
	for _, edge := range edges {
		if edge.ID == "" {
			edge.ID = uuidv7.New()
		}
		edge.ArticleID = articleID

		_, err := tx.Exec(context, insert,
			edge.ID, edge.ArticleID, edge.Type, edge.ArtistID, edge.GroupID,
			edge.NameKO, edge.NameEN, edge.ConfidenceScore, edge.ContextSnippet,
			edge.MentionCount, edge.IsPrimary,
		)
		if err != nil {
			return dberr.Wrap(err, "insert_mapping")
		}
	}

	if err := tx.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_replace_mappings")
	}
	return nil
}

/*
ListByArticle returns the article's edges, primary first.
*/
func (repository *PostgresRepository) ListByArticle(context context.Context, articleID string) ([]*EntityMapping, error) {
	const query = `
		SELECT id, article_id, entity_type, artist_id, group_id, name_ko,
		       name_en, confidence_score, context_snippet, mention_count,
		       is_primary, created_at
		FROM core.entity_mapping
		WHERE article_id = $1
		ORDER BY is_primary DESC, confidence_score DESC
	`
	rows, err := repository.db.Query(context, query, articleID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_mappings")
	}
	defer rows.Close()

	var edges []*EntityMapping
	for rows.Next() {
		edge := &EntityMapping{}
		err := rows.Scan(&edge.ID, &edge.ArticleID, &edge.Type, &edge.ArtistID,
			&edge.GroupID, &edge.NameKO, &edge.NameEN, &edge.ConfidenceScore,
			&edge.ContextSnippet, &edge.MentionCount, &edge.IsPrimary,
			&edge.CreatedAt)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_mapping")
		}
		edges = append(edges, edge)
	}

	return edges, nil
}
