// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package group

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

// NewPostgresRepository constructs a PostgreSQL backed group store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// profileColumns is the projection without provenance, for list views.
const profileColumns = `
	id, slug, name_ko, name_en, debut_date, agency_ko, agency_en,
	fandom_name_ko, fandom_name_en, activity_status, bio_ko, bio_en,
	is_verified, global_priority, enriched_at, last_verified_at,
	created_at, updated_at
`

// provenanceColumns mirrors each mutable profile field.
const provenanceColumns = `
	name_ko_source_article_id, name_en_source_article_id,
	debut_date_source_article_id, agency_ko_source_article_id,
	agency_en_source_article_id, fandom_name_ko_source_article_id,
	fandom_name_en_source_article_id, activity_status_source_article_id,
	bio_ko_source_article_id, bio_en_source_article_id
`

func scanProfile(row interface{ Scan(...any) error }, withTotal bool) (*Group, int, error) {
	g := &Group{}
	var total int

	dest := []any{
		&g.ID, &g.Slug, &g.NameKO, &g.NameEN, &g.DebutDate, &g.AgencyKO,
		&g.AgencyEN, &g.FandomNameKO, &g.FandomNameEN, &g.ActivityStatus,
		&g.BioKO, &g.BioEN, &g.IsVerified, &g.GlobalPriority, &g.EnrichedAt,
		&g.LastVerifiedAt, &g.CreatedAt, &g.UpdatedAt,
	}
	if withTotal {
		dest = append(dest, &total)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}
	return g, total, nil
}

// # Retrieval

/*
List returns a filtered and paginated list of groups.
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Group, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + profileColumns + `, COUNT(*) OVER() AS total FROM core.idol_group WHERE TRUE`)

	args := []any{}
	argID := 1

	if filter.Query != "" {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND (name_ko ILIKE $%d OR name_en ILIKE $%d)", argID, argID))
		args = append(args, "%"+filter.Query+"%")
		argID++
	}

	if filter.ActivityStatus != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND activity_status = $%d", argID))
		args = append(args, filter.ActivityStatus)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY name_ko ASC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_groups")
	}
	defer rows.Close()

	var groups []*Group
	var total int
	for rows.Next() {
		g, rowTotal, err := scanProfile(rows, true)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_group")
		}
		total = rowTotal
		groups = append(groups, g)
	}

	return groups, total, nil
}

/*
FindByID retrieves a single group including provenance columns.
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Group, error) {
	return repository.findByKey(context, "id", id)
}

/*
FindBySlug retrieves a group by its unique URL slug.
*/
func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Group, error) {
	return repository.findByKey(context, "slug", slug)
}

// findByKey hydrates the full row, provenance included. The column name is
// a compile-time constant at both call sites, never caller input.
func (repository *PostgresRepository) findByKey(context context.Context, column, value string) (*Group, error) {
	query := `SELECT ` + profileColumns + `, ` + provenanceColumns + ` FROM core.idol_group WHERE ` + column + ` = $1`

	g := &Group{}
	err := repository.db.QueryRow(context, query, value).Scan(
		&g.ID, &g.Slug, &g.NameKO, &g.NameEN, &g.DebutDate, &g.AgencyKO,
		&g.AgencyEN, &g.FandomNameKO, &g.FandomNameEN, &g.ActivityStatus,
		&g.BioKO, &g.BioEN, &g.IsVerified, &g.GlobalPriority, &g.EnrichedAt,
		&g.LastVerifiedAt, &g.CreatedAt, &g.UpdatedAt,
		&g.Sources.NameKO, &g.Sources.NameEN, &g.Sources.DebutDate,
		&g.Sources.AgencyKO, &g.Sources.AgencyEN, &g.Sources.FandomNameKO,
		&g.Sources.FandomNameEN, &g.Sources.ActivityStatus,
		&g.Sources.BioKO, &g.Sources.BioEN,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_group")
	}
	return g, nil
}

// # Mutation

/*
Create inserts a new group record.
*/
func (repository *PostgresRepository) Create(context context.Context, group *Group) error {
	if group.ID == "" {
		group.ID = uuidv7.New()
	}
	if group.ActivityStatus == "" {
		group.ActivityStatus = StatusActive
	}

	const query = `
		INSERT INTO core.idol_group (
			id, slug, name_ko, name_en, agency_ko, fandom_name_ko,
			activity_status, global_priority, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := repository.db.QueryRow(context, query,
		group.ID, group.Slug, group.NameKO, group.NameEN,
		group.AgencyKO, group.FandomNameKO,
		group.ActivityStatus, group.GlobalPriority,
	).Scan(&group.CreatedAt, &group.UpdatedAt)

	return dberr.Wrap(err, "create_group")
}

/*
Registry returns the lightweight group projection for the linking cache.
*/
func (repository *PostgresRepository) Registry(context context.Context) ([]RegistryEntry, error) {
	const query = `
		SELECT id, name_ko, name_en, fandom_name_ko, global_priority
		FROM core.idol_group
		ORDER BY id ASC
	`
	rows, err := repository.db.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "group_registry")
	}
	defer rows.Close()

	var entries []RegistryEntry
	for rows.Next() {
		var entry RegistryEntry
		err := rows.Scan(&entry.ID, &entry.NameKO, &entry.NameEN,
			&entry.FandomNameKO, &entry.GlobalPriority)
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
	const query = `UPDATE core.idol_group SET last_verified_at = $2, updated_at = NOW() WHERE id = $1`
	_, err := repository.db.Exec(context, query, id, at)
	return dberr.Wrap(err, "touch_verified")
}

// # Membership

/*
ListMembers returns the group's membership edges with member display names.

Description: Active memberships (left_at IS NULL) sort before departed ones,
then by join date with unknown dates last.
*/
func (repository *PostgresRepository) ListMembers(context context.Context, groupID string) ([]*Member, error) {
	const query = `
		SELECT m.id, m.group_id, m.artist_id, a.name_ko, a.name_en, a.slug,
		       m.roles, m.joined_at, m.left_at, m.is_sub_unit,
		       m.source_article_id
		FROM core.group_member m
		JOIN core.artist a ON a.id = m.artist_id
		WHERE m.group_id = $1
		ORDER BY (m.left_at IS NULL) DESC, m.joined_at ASC NULLS LAST, a.name_ko ASC
	`
	rows, err := repository.db.Query(context, query, groupID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_group_members")
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		var roles []string
		err := rows.Scan(&member.ID, &member.GroupID, &member.ArtistID,
			&member.ArtistNameKO, &member.ArtistNameEN, &member.ArtistSlug,
			&roles, &member.JoinedAt, &member.LeftAt, &member.IsSubUnit,
			&member.SourceArticleID)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_group_member")
		}
		for _, role := range roles {
			member.Roles = append(member.Roles, MemberRole(role))
		}
		members = append(members, member)
	}

	return members, nil
}

/*
UpsertMember inserts or refreshes a membership edge.
*/
func (repository *PostgresRepository) UpsertMember(context context.Context, member *Member) error {
	if member.ID == "" {
		member.ID = uuidv7.New()
	}

	roles := make([]string, 0, len(member.Roles))
	for _, role := range member.Roles {
		roles = append(roles, string(role))
	}

	const query = `
		INSERT INTO core.group_member (
			id, group_id, artist_id, roles, joined_at, left_at, is_sub_unit,
			source_article_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (group_id, artist_id, is_sub_unit) DO UPDATE SET
			roles             = EXCLUDED.roles,
			joined_at         = COALESCE(EXCLUDED.joined_at, core.group_member.joined_at),
			left_at           = EXCLUDED.left_at,
			source_article_id = COALESCE(EXCLUDED.source_article_id, core.group_member.source_article_id)
	`
	_, err := repository.db.Exec(context, query,
		member.ID, member.GroupID, member.ArtistID, roles,
		member.JoinedAt, member.LeftAt, member.IsSubUnit, member.SourceArticleID,
	)
	return dberr.Wrap(err, "upsert_group_member")
}

// # Enrichment

/*
ListUnenriched returns never-enriched groups in priority order.
*/
func (repository *PostgresRepository) ListUnenriched(context context.Context, limit int) ([]*Group, error) {
	query := `SELECT ` + profileColumns + `
		FROM core.idol_group
		WHERE enriched_at IS NULL
		ORDER BY global_priority ASC NULLS LAST, id ASC
		LIMIT $1`

	rows, err := repository.db.Query(context, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list_unenriched")
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		g, _, err := scanProfile(rows, false)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_group")
		}
		groups = append(groups, g)
	}

	return groups, nil
}

/*
ApplyEnrichment fills empty profile columns and stamps enriched_at.
*/
func (repository *PostgresRepository) ApplyEnrichment(context context.Context, id string, patch EnrichmentPatch, overwriteBio bool) error {
	const query = `
		UPDATE core.idol_group SET
			name_en        = CASE WHEN name_en IS NULL OR name_en = '' THEN COALESCE($2, name_en) ELSE name_en END,
			debut_date     = COALESCE(debut_date, $3),
			agency_ko      = CASE WHEN agency_ko IS NULL OR agency_ko = '' THEN COALESCE($4, agency_ko) ELSE agency_ko END,
			agency_en      = CASE WHEN agency_en IS NULL OR agency_en = '' THEN COALESCE($5, agency_en) ELSE agency_en END,
			fandom_name_ko = CASE WHEN fandom_name_ko IS NULL OR fandom_name_ko = '' THEN COALESCE($6, fandom_name_ko) ELSE fandom_name_ko END,
			fandom_name_en = CASE WHEN fandom_name_en IS NULL OR fandom_name_en = '' THEN COALESCE($7, fandom_name_en) ELSE fandom_name_en END,
			bio_ko         = CASE WHEN $9::boolean OR bio_ko IS NULL OR bio_ko = '' THEN COALESCE($8, bio_ko) ELSE bio_ko END,
			bio_en         = CASE WHEN $9::boolean OR bio_en IS NULL OR bio_en = '' THEN COALESCE($10, bio_en) ELSE bio_en END,
			enriched_at    = NOW(),
			updated_at     = NOW()
		WHERE id = $1
	`
	_, err := repository.db.Exec(context, query,
		id, patch.NameEN, patch.DebutDate, patch.AgencyKO, patch.AgencyEN,
		patch.FandomNameKO, patch.FandomNameEN, patch.BioKO, overwriteBio, patch.BioEN,
	)
	return dberr.Wrap(err, "apply_enrichment")
}

/*
ResetSparseEnrichment clears enriched_at for groups that stayed sparse.
*/
func (repository *PostgresRepository) ResetSparseEnrichment(context context.Context, limit int) (int, error) {
	const query = `
		WITH sparse AS (
			SELECT id FROM core.idol_group
			WHERE enriched_at IS NOT NULL
			  AND (name_en IS NULL OR name_en = '')
			  AND debut_date IS NULL
			  AND (bio_ko IS NULL OR bio_ko = '')
			LIMIT $1
		)
		UPDATE core.idol_group AS g
		SET enriched_at = NULL, updated_at = NOW()
		FROM sparse
		WHERE g.id = sparse.id
	`
	tag, err := repository.db.Exec(context, query, limit)
	if err != nil {
		return 0, dberr.Wrap(err, "reset_sparse_enrichment")
	}
	return int(tag.RowsAffected()), nil
}

// # Side Tables

/*
ListSNS returns the group's social accounts ordered by platform.
*/
func (repository *PostgresRepository) ListSNS(context context.Context, groupID string) ([]*SNS, error) {
	const query = `
		SELECT id, group_id, platform, url, handle, follower_count,
		       source_article_id, created_at
		FROM core.group_sns
		WHERE group_id = $1
		ORDER BY platform ASC
	`
	rows, err := repository.db.Query(context, query, groupID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_group_sns")
	}
	defer rows.Close()

	var accounts []*SNS
	for rows.Next() {
		account := &SNS{}
		err := rows.Scan(&account.ID, &account.GroupID, &account.Platform,
			&account.URL, &account.Handle, &account.FollowerCount,
			&account.SourceArticleID, &account.CreatedAt)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_group_sns")
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

/*
UpsertSNS inserts or refreshes a social account (unique per group+platform).
*/
func (repository *PostgresRepository) UpsertSNS(context context.Context, sns *SNS) error {
	if sns.ID == "" {
		sns.ID = uuidv7.New()
	}

	const query = `
		INSERT INTO core.group_sns (
			id, group_id, platform, url, handle, follower_count,
			source_article_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (group_id, platform) DO UPDATE SET
			url               = EXCLUDED.url,
			handle            = COALESCE(EXCLUDED.handle, core.group_sns.handle),
			follower_count    = COALESCE(EXCLUDED.follower_count, core.group_sns.follower_count),
			source_article_id = COALESCE(EXCLUDED.source_article_id, core.group_sns.source_article_id)
	`
	_, err := repository.db.Exec(context, query,
		sns.ID, sns.GroupID, sns.Platform, sns.URL, sns.Handle,
		sns.FollowerCount, sns.SourceArticleID,
	)
	return dberr.Wrap(err, "upsert_group_sns")
}
