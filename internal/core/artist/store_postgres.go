// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package artist

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

// NewPostgresRepository constructs a PostgreSQL backed artist store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// profileColumns is the projection without provenance, for list views.
const profileColumns = `
	id, slug, name_ko, name_en, stage_name_ko, stage_name_en, gender,
	birth_date, nationality_ko, nationality_en, mbti, blood_type, height_cm,
	weight_kg, bio_ko, bio_en, is_verified, global_priority, enriched_at,
	last_verified_at, data_reliability_score, created_at, updated_at
`

// provenanceColumns mirrors each mutable profile field.
const provenanceColumns = `
	name_ko_source_article_id, name_en_source_article_id,
	stage_name_ko_source_article_id, stage_name_en_source_article_id,
	gender_source_article_id, birth_date_source_article_id,
	nationality_ko_source_article_id, nationality_en_source_article_id,
	mbti_source_article_id, blood_type_source_article_id,
	height_cm_source_article_id, weight_kg_source_article_id,
	bio_ko_source_article_id, bio_en_source_article_id
`

func scanProfile(row interface{ Scan(...any) error }, withTotal bool) (*Artist, int, error) {
	a := &Artist{}
	var total int

	dest := []any{
		&a.ID, &a.Slug, &a.NameKO, &a.NameEN, &a.StageNameKO, &a.StageNameEN,
		&a.Gender, &a.BirthDate, &a.NationalityKO, &a.NationalityEN, &a.MBTI,
		&a.BloodType, &a.HeightCM, &a.WeightKG, &a.BioKO, &a.BioEN,
		&a.IsVerified, &a.GlobalPriority, &a.EnrichedAt, &a.LastVerifiedAt,
		&a.DataReliabilityScore, &a.CreatedAt, &a.UpdatedAt,
	}
	if withTotal {
		dest = append(dest, &total)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}
	return a, total, nil
}

// # Retrieval

/*
List returns a filtered and paginated list of artists.

Description: Uses ILIKE across Korean and English names for entity search and
COUNT(*) OVER() for total metadata.
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Artist, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + profileColumns + `, COUNT(*) OVER() AS total FROM core.artist WHERE TRUE`)

	args := []any{}
	argID := 1

	if filter.Query != "" {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND (name_ko ILIKE $%d OR name_en ILIKE $%d OR stage_name_ko ILIKE $%d OR stage_name_en ILIKE $%d)",
			argID, argID, argID, argID))
		args = append(args, "%"+filter.Query+"%")
		argID++
	}

	if filter.GlobalPriority != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND global_priority = $%d", argID))
		args = append(args, *filter.GlobalPriority)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY name_ko ASC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_artists")
	}
	defer rows.Close()

	var artists []*Artist
	var total int
	for rows.Next() {
		a, rowTotal, err := scanProfile(rows, true)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_artist")
		}
		total = rowTotal
		artists = append(artists, a)
	}

	return artists, total, nil
}

/*
FindByID retrieves a single artist including provenance columns.
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Artist, error) {
	return repository.findByKey(context, "id", id)
}

/*
FindBySlug retrieves an artist by its unique URL slug.
*/
func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Artist, error) {
	return repository.findByKey(context, "slug", slug)
}

// findByKey hydrates the full row, provenance included. The column name is
// a compile-time constant at both call sites, never caller input.
func (repository *PostgresRepository) findByKey(context context.Context, column, value string) (*Artist, error) {
	query := `SELECT ` + profileColumns + `, ` + provenanceColumns + ` FROM core.artist WHERE ` + column + ` = $1`

	a := &Artist{}
	err := repository.db.QueryRow(context, query, value).Scan(
		&a.ID, &a.Slug, &a.NameKO, &a.NameEN, &a.StageNameKO, &a.StageNameEN,
		&a.Gender, &a.BirthDate, &a.NationalityKO, &a.NationalityEN, &a.MBTI,
		&a.BloodType, &a.HeightCM, &a.WeightKG, &a.BioKO, &a.BioEN,
		&a.IsVerified, &a.GlobalPriority, &a.EnrichedAt, &a.LastVerifiedAt,
		&a.DataReliabilityScore, &a.CreatedAt, &a.UpdatedAt,
		&a.Sources.NameKO, &a.Sources.NameEN, &a.Sources.StageNameKO,
		&a.Sources.StageNameEN, &a.Sources.Gender, &a.Sources.BirthDate,
		&a.Sources.NationalityKO, &a.Sources.NationalityEN, &a.Sources.MBTI,
		&a.Sources.BloodType, &a.Sources.HeightCM, &a.Sources.WeightKG,
		&a.Sources.BioKO, &a.Sources.BioEN,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_artist")
	}
	return a, nil
}

// # Mutation

/*
Create inserts a new artist record.
*/
func (repository *PostgresRepository) Create(context context.Context, artist *Artist) error {
	if artist.ID == "" {
		artist.ID = uuidv7.New()
	}
	if artist.Gender == "" {
		artist.Gender = GenderUnknown
	}

	const query = `
		INSERT INTO core.artist (
			id, slug, name_ko, name_en, stage_name_ko, stage_name_en, gender,
			global_priority, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := repository.db.QueryRow(context, query,
		artist.ID, artist.Slug, artist.NameKO, artist.NameEN,
		artist.StageNameKO, artist.StageNameEN, artist.Gender, artist.GlobalPriority,
	).Scan(&artist.CreatedAt, &artist.UpdatedAt)

	return dberr.Wrap(err, "create_artist")
}

/*
Registry returns the lightweight artist projection for the linking cache.
*/
func (repository *PostgresRepository) Registry(context context.Context) ([]RegistryEntry, error) {
	const query = `
		SELECT id, name_ko, name_en, stage_name_ko, stage_name_en, global_priority
		FROM core.artist
		ORDER BY id ASC
	`
	rows, err := repository.db.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "artist_registry")
	}
	defer rows.Close()

	var entries []RegistryEntry
	for rows.Next() {
		var entry RegistryEntry
		err := rows.Scan(&entry.ID, &entry.NameKO, &entry.NameEN,
			&entry.StageNameKO, &entry.StageNameEN, &entry.GlobalPriority)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_registry_entry")
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

/*
TouchVerified stamps last_verified_at after independent confirmation.
*/
func (repository *PostgresRepository) TouchVerified(context context.Context, id string, at time.Time) error {
	const query = `UPDATE core.artist SET last_verified_at = $2, updated_at = NOW() WHERE id = $1`
	_, err := repository.db.Exec(context, query, id, at)
	return dberr.Wrap(err, "touch_verified")
}

// # Enrichment

/*
ListUnenriched returns never-enriched artists in priority order.
*/
func (repository *PostgresRepository) ListUnenriched(context context.Context, limit int) ([]*Artist, error) {
	query := `SELECT ` + profileColumns + `
		FROM core.artist
		WHERE enriched_at IS NULL
		ORDER BY global_priority ASC NULLS LAST, id ASC
		LIMIT $1`

	rows, err := repository.db.Query(context, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list_unenriched")
	}
	defer rows.Close()

	var artists []*Artist
	for rows.Next() {
		a, _, err := scanProfile(rows, false)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_artist")
		}
		artists = append(artists, a)
	}

	return artists, nil
}

/*
ApplyEnrichment fills empty profile columns and stamps enriched_at.

Description: Enrichment never overwrites curated data — every assignment is
guarded by an emptiness check, except the bio columns when the sparse-sweep
runs with overwriteBio. enriched_at is stamped even when nothing changed so
the enricher stays idempotent.
*/
func (repository *PostgresRepository) ApplyEnrichment(context context.Context, id string, patch EnrichmentPatch, overwriteBio bool) error {
	const query = `
		UPDATE core.artist SET
			name_en        = CASE WHEN name_en IS NULL OR name_en = '' THEN COALESCE($2, name_en) ELSE name_en END,
			stage_name_en  = CASE WHEN stage_name_en IS NULL OR stage_name_en = '' THEN COALESCE($3, stage_name_en) ELSE stage_name_en END,
			gender         = CASE WHEN gender = 'UNKNOWN' THEN COALESCE($4, gender) ELSE gender END,
			birth_date     = COALESCE(birth_date, $5),
			nationality_ko = CASE WHEN nationality_ko IS NULL OR nationality_ko = '' THEN COALESCE($6, nationality_ko) ELSE nationality_ko END,
			nationality_en = CASE WHEN nationality_en IS NULL OR nationality_en = '' THEN COALESCE($7, nationality_en) ELSE nationality_en END,
			mbti           = COALESCE(mbti, $8),
			blood_type     = COALESCE(blood_type, $9),
			height_cm      = COALESCE(height_cm, $10),
			weight_kg      = COALESCE(weight_kg, $11),
			bio_ko         = CASE WHEN $13::boolean OR bio_ko IS NULL OR bio_ko = '' THEN COALESCE($12, bio_ko) ELSE bio_ko END,
			bio_en         = CASE WHEN $13::boolean OR bio_en IS NULL OR bio_en = '' THEN COALESCE($14, bio_en) ELSE bio_en END,
			enriched_at    = NOW(),
			updated_at     = NOW()
		WHERE id = $1
	`
	_, err := repository.db.Exec(context, query,
		id, patch.NameEN, patch.StageNameEN, patch.Gender, patch.BirthDate,
		patch.NationalityKO, patch.NationalityEN, patch.MBTI, patch.BloodType,
		patch.HeightCM, patch.WeightKG, patch.BioKO, overwriteBio, patch.BioEN,
	)
	return dberr.Wrap(err, "apply_enrichment")
}

/*
ResetSparseEnrichment clears enriched_at for artists that stayed sparse.
*/
func (repository *PostgresRepository) ResetSparseEnrichment(context context.Context, limit int) (int, error) {
	const query = `
		WITH sparse AS (
			SELECT id FROM core.artist
			WHERE enriched_at IS NOT NULL
			  AND (name_en IS NULL OR name_en = '')
			  AND birth_date IS NULL
			  AND (bio_ko IS NULL OR bio_ko = '')
			LIMIT $1
		)
		UPDATE core.artist AS a
		SET enriched_at = NULL, updated_at = NOW()
		FROM sparse
		WHERE a.id = sparse.id
	`
	tag, err := repository.db.Exec(context, query, limit)
	if err != nil {
		return 0, dberr.Wrap(err, "reset_sparse_enrichment")
	}
	return int(tag.RowsAffected()), nil
}

// # Side Tables

/*
ListSNS returns the artist's social accounts ordered by platform.
*/
func (repository *PostgresRepository) ListSNS(context context.Context, artistID string) ([]*SNS, error) {
	const query = `
		SELECT id, artist_id, platform, url, handle, follower_count,
		       source_article_id, created_at
		FROM core.artist_sns
		WHERE artist_id = $1
		ORDER BY platform ASC
	`
	rows, err := repository.db.Query(context, query, artistID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_artist_sns")
	}
	defer rows.Close()

	var accounts []*SNS
	for rows.Next() {
		account := &SNS{}
		err := rows.Scan(&account.ID, &account.ArtistID, &account.Platform,
			&account.URL, &account.Handle, &account.FollowerCount,
			&account.SourceArticleID, &account.CreatedAt)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_artist_sns")
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

/*
UpsertSNS inserts or refreshes a social account (unique per artist+platform).
*/
func (repository *PostgresRepository) UpsertSNS(context context.Context, sns *SNS) error {
	if sns.ID == "" {
		sns.ID = uuidv7.New()
	}

	const query = `
		INSERT INTO core.artist_sns (
			id, artist_id, platform, url, handle, follower_count,
			source_article_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (artist_id, platform) DO UPDATE SET
			url               = EXCLUDED.url,
			handle            = COALESCE(EXCLUDED.handle, core.artist_sns.handle),
			follower_count    = COALESCE(EXCLUDED.follower_count, core.artist_sns.follower_count),
			source_article_id = COALESCE(EXCLUDED.source_article_id, core.artist_sns.source_article_id)
	`
	_, err := repository.db.Exec(context, query,
		sns.ID, sns.ArtistID, sns.Platform, sns.URL, sns.Handle,
		sns.FollowerCount, sns.SourceArticleID,
	)
	return dberr.Wrap(err, "upsert_artist_sns")
}

/*
ListEducations returns the artist's education records.
*/
func (repository *PostgresRepository) ListEducations(context context.Context, artistID string) ([]*Education, error) {
	const query = `
		SELECT id, artist_id, school_name, degree, source_article_id, created_at
		FROM core.artist_education
		WHERE artist_id = $1
		ORDER BY created_at ASC
	`
	rows, err := repository.db.Query(context, query, artistID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_artist_educations")
	}
	defer rows.Close()

	var educations []*Education
	for rows.Next() {
		education := &Education{}
		err := rows.Scan(&education.ID, &education.ArtistID, &education.SchoolName,
			&education.Degree, &education.SourceArticleID, &education.CreatedAt)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_artist_education")
		}
		educations = append(educations, education)
	}

	return educations, nil
}
