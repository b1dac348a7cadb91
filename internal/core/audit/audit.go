// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package audit records the paper trail of every autonomous data mutation.

Four append-mostly tables live here:

  - DataUpdateLog: field-level before/after for entity mutations.
  - AutoResolutionLog: which self-healing action (FILL, RECONCILE, ENROLL)
    ran, and the model's reasoning when one was consulted.
  - ConflictFlag: unresolved disagreements between stored data and article
    evidence, queued for a human.
  - SystemLog: operational events with token and timing metrics.

Log rows are immutable once written; only ConflictFlag has a status that
moves (OPEN → RESOLVED or DISMISSED).
*/
package audit

import (
	"encoding/json"
	"time"
)

// EntityType identifies which registry table a log row refers to.
type EntityType string

const (
	EntityArtist EntityType = "ARTIST"
	EntityGroup  EntityType = "GROUP"
)

// ResolutionType classifies a self-healing action.
type ResolutionType string

const (
	ResolutionFill      ResolutionType = "FILL"
	ResolutionReconcile ResolutionType = "RECONCILE"
	ResolutionEnroll    ResolutionType = "ENROLL"
)

// FlagStatus is the ConflictFlag lifecycle.
type FlagStatus string

const (
	FlagOpen      FlagStatus = "OPEN"
	FlagResolved  FlagStatus = "RESOLVED"
	FlagDismissed FlagStatus = "DISMISSED"
)

// UpdatedByPipeline marks rows written autonomously, as opposed to a
// human operator's username.
const UpdatedByPipeline = "ai_pipeline"

// # Log Entities

// DataUpdateLog is one field-level mutation record.
type DataUpdateLog struct {
	ID              string     `json:"id"`
	EntityType      EntityType `json:"entity_type"`
	EntityID        string     `json:"entity_id"`
	FieldName       string     `json:"field_name"`
	OldValue        *string    `json:"old_value"`
	NewValue        *string    `json:"new_value"`
	UpdatedBy       string     `json:"updated_by"`
	SourceArticleID *string    `json:"source_article_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AutoResolutionLog records one self-healing decision. EntityType and
// EntityID are nil for ENROLL rows, which predate any registry entity.
type AutoResolutionLog struct {
	ID                string         `json:"id"`
	ResolutionType    ResolutionType `json:"resolution_type"`
	EntityType        *EntityType    `json:"entity_type,omitempty"`
	EntityID          *string        `json:"entity_id,omitempty"`
	FieldName         *string        `json:"field_name,omitempty"`
	OldValue          *string        `json:"old_value,omitempty"`
	NewValue          *string        `json:"new_value,omitempty"`
	GeminiReasoning   *string        `json:"gemini_reasoning,omitempty"`
	GeminiConfidence  *float64       `json:"gemini_confidence,omitempty"`  // [0,1]
	SourceReliability *float64       `json:"source_reliability,omitempty"` // [0,1]
	SourceArticleID   *string        `json:"source_article_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ConflictFlag is a disagreement parked for human review.
type ConflictFlag struct {
	ID              string     `json:"id"`
	EntityType      EntityType `json:"entity_type"`
	EntityID        string     `json:"entity_id"`
	FieldName       string     `json:"field_name"`
	DBValue         *string    `json:"db_value"`
	ArticleValue    *string    `json:"article_value"`
	Reason          string     `json:"reason"`
	ConflictScore   float64    `json:"conflict_score"` // [0,1]
	Status          FlagStatus `json:"status"`
	SourceArticleID *string    `json:"source_article_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// SystemLog is one operational event.
type SystemLog struct {
	ID        string          `json:"id"`
	Level     string          `json:"level"` // INFO, WARN, ERROR
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"` // token/timing metrics
	JobID     *string         `json:"job_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
