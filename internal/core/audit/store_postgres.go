// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonlab/kwave/internal/platform/apperr"
	"github.com/hyeonlab/kwave/internal/platform/dberr"
	"github.com/hyeonlab/kwave/pkg/uuidv7"
)

// DBTX is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so audit writes can join a caller's transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository constructs a PostgreSQL backed audit store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// WithTx returns a recorder whose writes join the given transaction.
func (repository *PostgresRepository) WithTx(tx pgx.Tx) Recorder {
	return &PostgresRepository{db: tx}
}

// # Append

/*
RecordUpdate appends a field-level mutation record.
*/
func (repository *PostgresRepository) RecordUpdate(context context.Context, log *DataUpdateLog) error {
	if log.ID == "" {
		log.ID = uuidv7.New()
	}
	if log.UpdatedBy == "" {
		log.UpdatedBy = UpdatedByPipeline
	}

	const query = `
		INSERT INTO ops.data_update_log (
			id, entity_type, entity_id, field_name, old_value, new_value,
			updated_by, source_article_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := repository.db.Exec(context, query,
		log.ID, log.EntityType, log.EntityID, log.FieldName,
		log.OldValue, log.NewValue, log.UpdatedBy, log.SourceArticleID,
	)
	return dberr.Wrap(err, "record_data_update")
}

/*
RecordResolution appends a self-healing decision record.
*/
func (repository *PostgresRepository) RecordResolution(context context.Context, log *AutoResolutionLog) error {
	if log.ID == "" {
		log.ID = uuidv7.New()
	}

	const query = `
		INSERT INTO ops.auto_resolution_log (
			id, resolution_type, entity_type, entity_id, field_name,
			old_value, new_value, gemini_reasoning, gemini_confidence,
			source_reliability, source_article_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`
	_, err := repository.db.Exec(context, query,
		log.ID, log.ResolutionType, log.EntityType, log.EntityID,
		log.FieldName, log.OldValue, log.NewValue, log.GeminiReasoning,
		log.GeminiConfidence, log.SourceReliability, log.SourceArticleID,
	)
	return dberr.Wrap(err, "record_resolution")
}

/*
RecordConflict appends an OPEN conflict flag.
*/
func (repository *PostgresRepository) RecordConflict(context context.Context, flag *ConflictFlag) error {
	if flag.ID == "" {
		flag.ID = uuidv7.New()
	}
	flag.Status = FlagOpen

	const query = `
		INSERT INTO ops.conflict_flag (
			id, entity_type, entity_id, field_name, db_value, article_value,
			reason, conflict_score, status, source_article_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`
	_, err := repository.db.Exec(context, query,
		flag.ID, flag.EntityType, flag.EntityID, flag.FieldName,
		flag.DBValue, flag.ArticleValue, flag.Reason, flag.ConflictScore,
		flag.Status, flag.SourceArticleID,
	)
	return dberr.Wrap(err, "record_conflict")
}

/*
RecordSystem appends an operational event.
*/
func (repository *PostgresRepository) RecordSystem(context context.Context, log *SystemLog) error {
	if log.ID == "" {
		log.ID = uuidv7.New()
	}
	if log.Level == "" {
		log.Level = "INFO"
	}

	const query = `
		INSERT INTO ops.system_log (
			id, level, category, message, metadata, job_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := repository.db.Exec(context, query,
		log.ID, log.Level, log.Category, log.Message, log.Metadata, log.JobID,
	)
	return dberr.Wrap(err, "record_system_log")
}

// # Triage

/*
ListConflicts returns conflict flags filtered by status, newest first.
*/
func (repository *PostgresRepository) ListConflicts(context context.Context, status FlagStatus, limit, offset int) ([]*ConflictFlag, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, entity_type, entity_id, field_name, db_value,
		       article_value, reason, conflict_score, status,
		       source_article_id, created_at, resolved_at,
		       COUNT(*) OVER() AS total
		FROM ops.conflict_flag
		WHERE TRUE
	`)

	args := []any{}
	argID := 1
	if status != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argID))
		args = append(args, status)
		argID++
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_conflicts")
	}
	defer rows.Close()

	var flags []*ConflictFlag
	var total int
	for rows.Next() {
		flag := &ConflictFlag{}
		err := rows.Scan(&flag.ID, &flag.EntityType, &flag.EntityID,
			&flag.FieldName, &flag.DBValue, &flag.ArticleValue, &flag.Reason,
			&flag.ConflictScore, &flag.Status, &flag.SourceArticleID,
			&flag.CreatedAt, &flag.ResolvedAt, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_conflict")
		}
		flags = append(flags, flag)
	}

	return flags, total, nil
}

/*
CloseConflict moves an OPEN flag to RESOLVED or DISMISSED.
*/
func (repository *PostgresRepository) CloseConflict(context context.Context, id string, status FlagStatus) error {
	if status != FlagResolved && status != FlagDismissed {
		return apperr.ValidationError("status must be RESOLVED or DISMISSED")
	}

	const query = `
		UPDATE ops.conflict_flag
		SET status = $2, resolved_at = NOW()
		WHERE id = $1 AND status = 'OPEN'
	`
	tag, err := repository.db.Exec(context, query, id, status)
	if err != nil {
		return dberr.Wrap(err, "close_conflict")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("conflict flag is missing or already closed")
	}
	return nil
}

/*
ListResolutions returns recent self-healing decisions, newest first.
*/
func (repository *PostgresRepository) ListResolutions(context context.Context, limit, offset int) ([]*AutoResolutionLog, int, error) {
	const query = `
		SELECT id, resolution_type, entity_type, entity_id, field_name,
		       old_value, new_value, gemini_reasoning, gemini_confidence,
		       source_reliability, source_article_id, created_at,
		       COUNT(*) OVER() AS total
		FROM ops.auto_resolution_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := repository.db.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_resolutions")
	}
	defer rows.Close()

	var logs []*AutoResolutionLog
	var total int
	for rows.Next() {
		log := &AutoResolutionLog{}
		err := rows.Scan(&log.ID, &log.ResolutionType, &log.EntityType,
			&log.EntityID, &log.FieldName, &log.OldValue, &log.NewValue,
			&log.GeminiReasoning, &log.GeminiConfidence, &log.SourceReliability,
			&log.SourceArticleID, &log.CreatedAt, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_resolution")
		}
		logs = append(logs, log)
	}

	return logs, total, nil
}

/*
ListSystemLogs returns recent operational events, newest first.
*/
func (repository *PostgresRepository) ListSystemLogs(context context.Context, category, level string, limit, offset int) ([]*SystemLog, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, level, category, message, metadata, job_id, created_at,
		       COUNT(*) OVER() AS total
		FROM ops.system_log
		WHERE TRUE
	`)

	args := []any{}
	argID := 1
	if category != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND category = $%d", argID))
		args = append(args, category)
		argID++
	}
	if level != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND level = $%d", argID))
		args = append(args, level)
		argID++
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_system_logs")
	}
	defer rows.Close()

	var logs []*SystemLog
	var total int
	for rows.Next() {
		log := &SystemLog{}
		err := rows.Scan(&log.ID, &log.Level, &log.Category, &log.Message,
			&log.Metadata, &log.JobID, &log.CreatedAt, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_system_log")
		}
		logs = append(logs, log)
	}

	return logs, total, nil
}
