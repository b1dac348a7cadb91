// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package article

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonlab/kwave/internal/platform/dberr"
	"github.com/hyeonlab/kwave/pkg/uuidv7"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed article store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// articleColumns is the shared projection for full-row scans.
const articleColumns = `
	id, source_url, language, title_ko, title_en, content_ko, summary_ko,
	summary_en, author, published_at, thumbnail_url, hashtags_ko, hashtags_en,
	seo_hashtags, sentiment, process_status, system_note, artist_name_ko,
	global_priority, job_id, created_at, updated_at
`

func scanArticle(row interface{ Scan(...any) error }) (*Article, error) {
	a := &Article{}
	err := row.Scan(
		&a.ID, &a.SourceURL, &a.Language, &a.TitleKO, &a.TitleEN, &a.ContentKO,
		&a.SummaryKO, &a.SummaryEN, &a.Author, &a.PublishedAt, &a.ThumbnailURL,
		&a.HashtagsKO, &a.HashtagsEN, &a.SEOHashtags, &a.Sentiment, &a.Status,
		&a.SystemNote, &a.ArtistNameKO, &a.GlobalPriority, &a.JobID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// # Ingestion

/*
Upsert inserts a scraped article or merges it into the row that already owns
the source URL.

Description: Merge semantics are COALESCE-like per column — an incoming NULL
or empty value never clobbers stored data. The stored process_status is kept
on conflict so re-scraping cannot rewind the lifecycle, with one exception:
an ERROR row takes the incoming status so a successful re-scrape can
rehabilitate it.

Parameters:
  - context: context.Context
  - article: *Article

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Upsert(context context.Context, article *Article) error {
	if article.ID == "" {
		article.ID = uuidv7.New()
	}
	if article.Status == "" {
		article.Status = StatusScraped
	}

	const query = `
		INSERT INTO core.article (
			id, source_url, language, title_ko, content_ko, summary_ko, author,
			published_at, thumbnail_url, hashtags_ko, process_status,
			artist_name_ko, job_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (source_url) DO UPDATE SET
			title_ko       = COALESCE(NULLIF(EXCLUDED.title_ko, ''), core.article.title_ko),
			content_ko     = COALESCE(NULLIF(EXCLUDED.content_ko, ''), core.article.content_ko),
			summary_ko     = COALESCE(EXCLUDED.summary_ko, core.article.summary_ko),
			author         = COALESCE(EXCLUDED.author, core.article.author),
			published_at   = COALESCE(EXCLUDED.published_at, core.article.published_at),
			thumbnail_url  = COALESCE(EXCLUDED.thumbnail_url, core.article.thumbnail_url),
			artist_name_ko = COALESCE(EXCLUDED.artist_name_ko, core.article.artist_name_ko),
			job_id         = COALESCE(EXCLUDED.job_id, core.article.job_id),
			process_status = CASE
				WHEN core.article.process_status = 'ERROR' THEN EXCLUDED.process_status
				ELSE core.article.process_status
			END,
			updated_at     = NOW()
		RETURNING id, process_status, created_at, updated_at
	`
	err := repository.db.QueryRow(context, query,
		article.ID, article.SourceURL, article.Language, article.TitleKO,
		article.ContentKO, article.SummaryKO, article.Author, article.PublishedAt,
		article.ThumbnailURL, article.HashtagsKO, article.Status,
		article.ArtistNameKO, article.JobID,
	).Scan(&article.ID, &article.Status, &article.CreatedAt, &article.UpdatedAt)

	return dberr.Wrap(err, "upsert_article")
}

// # Retrieval

/*
FindByID retrieves a single article record by its primary key.
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM core.article WHERE id = $1`
	a, err := scanArticle(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_article_by_id")
	}
	return a, nil
}

/*
FindBySourceURL retrieves a single article record by its unique source URL.
*/
func (repository *PostgresRepository) FindBySourceURL(context context.Context, sourceURL string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM core.article WHERE source_url = $1`
	a, err := scanArticle(repository.db.QueryRow(context, query, sourceURL))
	if err != nil {
		return nil, dberr.Wrap(err, "get_article_by_url")
	}
	return a, nil
}

/*
StatusByURLs bulk-resolves process statuses for the worker's batch triage.
*/
func (repository *PostgresRepository) StatusByURLs(context context.Context, urls []string) (map[string]Status, error) {
	const query = `SELECT source_url, process_status FROM core.article WHERE source_url = ANY($1)`

	rows, err := repository.db.Query(context, query, urls)
	if err != nil {
		return nil, dberr.Wrap(err, "status_by_urls")
	}
	defer rows.Close()

	statuses := make(map[string]Status, len(urls))
	for rows.Next() {
		var url string
		var status Status
		if err := rows.Scan(&url, &status); err != nil {
			return nil, dberr.Wrap(err, "scan_status")
		}
		statuses[url] = status
	}

	return statuses, nil
}

/*
MaxPublishedAt returns the newest stored publication timestamp for a language.
*/
func (repository *PostgresRepository) MaxPublishedAt(context context.Context, language string) (*time.Time, error) {
	const query = `SELECT MAX(published_at) FROM core.article WHERE language = $1`

	var maxPublished *time.Time
	if err := repository.db.QueryRow(context, query, language).Scan(&maxPublished); err != nil {
		return nil, dberr.Wrap(err, "max_published_at")
	}
	return maxPublished, nil
}

// # AI Pipeline Access

/*
ClaimPending atomically claims up to limit PENDING articles.

Description: Uses FOR UPDATE SKIP LOCKED so that concurrent intelligence
workers never process the same article. Claimed rows transition to SCRAPED
as an in-progress marker inside the same statement.
*/
func (repository *PostgresRepository) ClaimPending(context context.Context, limit int) ([]*Article, error) {
	query := `
		WITH picked AS (
			SELECT id FROM core.article
			WHERE process_status = 'PENDING'
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE core.article AS a
		SET process_status = 'SCRAPED', updated_at = NOW()
		FROM picked
		WHERE a.id = picked.id
		RETURNING ` + articleColumns

	rows, err := repository.db.Query(context, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "claim_pending_articles")
	}
	defer rows.Close()

	var claimed []*Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_claimed_article")
		}
		claimed = append(claimed, a)
	}

	return claimed, nil
}

/*
ListByStatus returns up to limit articles in a status, oldest first.
*/
func (repository *PostgresRepository) ListByStatus(context context.Context, status Status, limit int) ([]*Article, error) {
	query := `SELECT ` + articleColumns + `
		FROM core.article
		WHERE process_status = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := repository.db.Query(context, query, status, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list_articles_by_status")
	}
	defer rows.Close()

	var articles []*Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_article")
		}
		articles = append(articles, a)
	}

	return articles, nil
}

/*
ApplyProcessing performs the engine's write-through in a single UPDATE.

Description: NULL parameters keep the stored value (COALESCE), summary_ko is
written only when the stored value is empty, and a system note of '' clears
the column to NULL.
*/
func (repository *PostgresRepository) ApplyProcessing(context context.Context, update ProcessingUpdate) error {
	const query = `
		UPDATE core.article SET
			process_status = $2,
			title_en       = COALESCE($3, title_en),
			summary_ko     = CASE
				WHEN summary_ko IS NULL OR summary_ko = '' THEN COALESCE($4, summary_ko)
				ELSE summary_ko
			END,
			summary_en   = COALESCE($5, summary_en),
			hashtags_en  = COALESCE($6, hashtags_en),
			seo_hashtags = COALESCE($7, seo_hashtags),
			sentiment    = COALESCE($8, sentiment),
			system_note  = CASE
				WHEN $9::text IS NULL THEN system_note
				WHEN $9::text = ''    THEN NULL
				ELSE $9::text
			END,
			updated_at = NOW()
		WHERE id = $1
	`
	_, err := repository.db.Exec(context, query,
		update.ArticleID, update.Status, update.TitleEN, update.SummaryKO,
		update.SummaryEN, update.HashtagsEN, update.SEOHashtags,
		update.Sentiment, update.SystemNote,
	)
	return dberr.Wrap(err, "apply_processing")
}

/*
SetStatus transitions an article's lifecycle state.
*/
func (repository *PostgresRepository) SetStatus(context context.Context, id string, status Status, note *string) error {
	const query = `
		UPDATE core.article
		SET process_status = $2,
		    system_note    = COALESCE($3, system_note),
		    updated_at     = NOW()
		WHERE id = $1
	`
	_, err := repository.db.Exec(context, query, id, status, note)
	return dberr.Wrap(err, "set_article_status")
}

/*
UpdateThumbnail stores a representative image URL.
*/
func (repository *PostgresRepository) UpdateThumbnail(context context.Context, id string, thumbnailURL string) error {
	const query = `UPDATE core.article SET thumbnail_url = $2, updated_at = NOW() WHERE id = $1`
	_, err := repository.db.Exec(context, query, id, thumbnailURL)
	return dberr.Wrap(err, "update_thumbnail")
}

/*
ListMissingThumbnail returns recently scraped articles without a thumbnail.
*/
func (repository *PostgresRepository) ListMissingThumbnail(context context.Context, limit int) ([]*Article, error) {
	query := `SELECT ` + articleColumns + `
		FROM core.article
		WHERE thumbnail_url IS NULL AND process_status <> 'PENDING'
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := repository.db.Query(context, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list_missing_thumbnail")
	}
	defer rows.Close()

	var articles []*Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_article")
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// # Public Projection

/*
ListPublic returns PROCESSED/VERIFIED articles matching the filter.

Description: Entity filters join through core.entity_mapping; free-text
search uses the weighted tsvector maintained by trigger (title A, summary B,
body C). COUNT(*) OVER() supplies the total for pagination metadata.
*/
func (repository *PostgresRepository) ListPublic(context context.Context, filter Filter, limit, offset int) ([]*Article, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			a.id, a.source_url, a.language, a.title_ko, a.title_en, '',
			a.summary_ko, a.summary_en, a.author, a.published_at,
			a.thumbnail_url, a.hashtags_ko, a.hashtags_en, a.seo_hashtags,
			a.sentiment, a.process_status, NULL, a.artist_name_ko,
			a.global_priority, NULL, a.created_at, a.updated_at,
			COUNT(*) OVER() AS total
		FROM core.article a
		WHERE a.process_status IN ('PROCESSED', 'VERIFIED')
	`)

	args := []any{}
	argID := 1

	if filter.ArtistID != "" {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM core.entity_mapping m WHERE m.article_id = a.id AND m.artist_id = $%d)", argID))
		args = append(args, filter.ArtistID)
		argID++
	}

	if filter.GroupID != "" {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM core.entity_mapping m WHERE m.article_id = a.id AND m.group_id = $%d)", argID))
		args = append(args, filter.GroupID)
		argID++
	}

	if filter.Language != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND a.language = $%d", argID))
		args = append(args, filter.Language)
		argID++
	}

	if filter.Query != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND a.search_vector @@ plainto_tsquery('simple', $%d)", argID))
		args = append(args, filter.Query)
		argID++
	}

	if len(filter.Hashtags) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND a.hashtags_ko && $%d", argID))
		args = append(args, filter.Hashtags)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY a.published_at DESC NULLS LAST LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_public_articles")
	}
	defer rows.Close()

	var articles []*Article
	var total int
	for rows.Next() {
		a := &Article{}
		err := rows.Scan(
			&a.ID, &a.SourceURL, &a.Language, &a.TitleKO, &a.TitleEN, &a.ContentKO,
			&a.SummaryKO, &a.SummaryEN, &a.Author, &a.PublishedAt, &a.ThumbnailURL,
			&a.HashtagsKO, &a.HashtagsEN, &a.SEOHashtags, &a.Sentiment, &a.Status,
			&a.SystemNote, &a.ArtistNameKO, &a.GlobalPriority, &a.JobID,
			&a.CreatedAt, &a.UpdatedAt, &total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_public_article")
		}
		articles = append(articles, a)
	}

	return articles, total, nil
}

/*
FindPublicByID retrieves a single public article including content_ko.
*/
func (repository *PostgresRepository) FindPublicByID(context context.Context, id string) (*Article, error) {
	query := `SELECT ` + articleColumns + `
		FROM core.article
		WHERE id = $1 AND process_status IN ('PROCESSED', 'VERIFIED')`

	a, err := scanArticle(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_public_article")
	}

	// Provenance fields never leave the projection.
	a.SystemNote = nil
	a.JobID = nil
	return a, nil
}

/*
LatestThumbnailForArtistName resolves an artist photo from article thumbnails.

Description: Prefers the most recent public article whose denormalized
artist_name_ko matches exactly; falls back to any article mapped to the
artist id.
*/
func (repository *PostgresRepository) LatestThumbnailForArtistName(context context.Context, nameKO, artistID string) (*string, error) {
	const query = `
		SELECT a.thumbnail_url
		FROM core.article a
		WHERE a.process_status IN ('PROCESSED', 'VERIFIED')
		  AND a.thumbnail_url IS NOT NULL
		  AND (
			a.artist_name_ko = $1
			OR EXISTS (SELECT 1 FROM core.entity_mapping m WHERE m.article_id = a.id AND m.artist_id = $2)
		  )
		ORDER BY (a.artist_name_ko = $1) DESC, a.published_at DESC NULLS LAST
		LIMIT 1
	`
	var thumbnail *string
	err := repository.db.QueryRow(context, query, nameKO, artistID).Scan(&thumbnail)
	if err != nil {
		// No related article is a normal outcome, not an error.
		if dberr.Wrap(err, "latest_thumbnail") == dberr.ErrNotFound {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "latest_thumbnail")
	}
	return thumbnail, nil
}
