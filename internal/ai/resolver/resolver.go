// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package resolver implements the self-healing data layer.

Three mechanisms run against linked entities after extraction:

  - FILL: empty profile fields gain the article's detected value.
  - RECONCILE: disagreements go to a narrow model call that picks a winner;
    undecidable cases become OPEN conflict flags for a human.
  - ENROLL: confidently detected but unlinked entities with an English name
    are auto-enrolled into the glossary.

Every entity mutation commits atomically with its provenance column, one
DataUpdateLog row, and one AutoResolutionLog row. Field names pass a hard
whitelist before any SQL is composed.
*/
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hyeonlab/kwave/internal/ai/engine"
	"github.com/hyeonlab/kwave/internal/ai/llm"
	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/audit"
	"github.com/hyeonlab/kwave/internal/core/glossary"
	"github.com/hyeonlab/kwave/internal/core/mapping"
	"github.com/hyeonlab/kwave/pkg/pointer"
)

// confidenceBoost is added to a mapping's score after a successful
// cross-validation, capped at 1.0.
const confidenceBoost = 0.05

// undecidableReason is stored on conflict flags when the model's verdict
// was unusable.
const undecidableReason = "Auto-Reconcile 판단 불가"

// fillWhitelist names the artist columns the resolver may ever write.
// Rejecting everything else happens before SQL composition because the
// column name is interpolated into the UPDATE statement.
var fillWhitelist = map[string]bool{
	artist.FieldNameEN:        true,
	artist.FieldNationalityKO: true,
	artist.FieldNationalityEN: true,
	artist.FieldMBTI:          true,
	artist.FieldBloodType:     true,
	artist.FieldHeightCM:      true,
	artist.FieldWeightKG:      true,
}

// ModelCaller is the LLM surface for the narrow reconcile prompt.
type ModelCaller interface {
	GenerateJSON(context context.Context, model, prompt string) (string, *llm.Usage, error)
}

// ArtistReader loads profiles for cross-validation.
type ArtistReader interface {
	FindByID(context context.Context, id string) (*artist.Artist, error)
	TouchVerified(context context.Context, id string, at time.Time) error
}

// DB is the transactional surface the resolver opens its atomic
// write-plus-audit transactions on. *pgxpool.Pool satisfies it.
type DB interface {
	Begin(context context.Context) (pgx.Tx, error)
}

// Auditor is the audit trail the resolver writes through. WithTx returns a
// recorder whose writes join the given transaction.
type Auditor interface {
	audit.Recorder
	WithTx(tx pgx.Tx) audit.Recorder
}

// Resolver wires the three self-healing mechanisms.
type Resolver struct {
	db       DB
	artists  ArtistReader
	auditor  Auditor
	glossary glossary.Repository
	model    ModelCaller
	modelID  string
	logger   *slog.Logger
}

// New constructs a [Resolver].
func New(db DB, artists ArtistReader, auditor Auditor, glossaryRepo glossary.Repository, model ModelCaller, modelID string, logger *slog.Logger) *Resolver {
	return &Resolver{
		db:       db,
		artists:  artists,
		auditor:  auditor,
		glossary: glossaryRepo,
		model:    model,
		modelID:  modelID,
		logger:   logger,
	}
}

// # Cross-Validation

/*
CrossValidate checks each linked ARTIST mapping against the stored profile.

Description: Per whitelisted field (currently name_en): an empty DB value is
filled from the article; an equal value boosts the mapping's confidence and
stamps last_verified_at; a disagreement goes to auto-reconciliation. Edge
scores are mutated in place since the caller persists them afterwards.
Failures are logged per entity and never abort the batch.

sourceReliability is the extraction's overall confidence for the article;
it lands on every resolution row alongside the per-entity confidence.
*/
func (resolver *Resolver) CrossValidate(context context.Context, art *article.Article, detected []engine.DetectedEntity, edges []*mapping.EntityMapping, sourceReliability float64) {
	for i, edge := range edges {
		if i >= len(detected) || edge.Type != mapping.TypeArtist || edge.ArtistID == nil {
			continue
		}
		entity := detected[i]
		if entity.NameEN == "" {
			continue
		}

		profile, err := resolver.artists.FindByID(context, *edge.ArtistID)
		if err != nil {
			resolver.logger.Warn("cross-validation profile load failed",
				slog.String("artist_id", *edge.ArtistID),
				slog.String("error", err.Error()))
			continue
		}

		dbValue := ""
		if profile.NameEN != nil {
			dbValue = strings.TrimSpace(*profile.NameEN)
		}
		detectedValue := strings.TrimSpace(entity.NameEN)

		switch {
		case dbValue == "":
			if err := resolver.applyFill(context, profile, artist.FieldNameEN, detectedValue, art.ID, entity.ConfidenceScore, sourceReliability); err != nil {
				resolver.logger.Warn("fill failed", slog.String("error", err.Error()))
				continue
			}
			boost(edge)

		case strings.EqualFold(dbValue, detectedValue):
			boost(edge)
			if err := resolver.artists.TouchVerified(context, profile.ID, time.Now().UTC()); err != nil {
				resolver.logger.Warn("verification stamp failed", slog.String("error", err.Error()))
			}

		default:
			resolver.reconcile(context, profile, artist.FieldNameEN, dbValue, detectedValue, art, entity.ConfidenceScore, sourceReliability)
		}
	}
}

func boost(edge *mapping.EntityMapping) {
	edge.ConfidenceScore += confidenceBoost
	if edge.ConfidenceScore > 1.0 {
		edge.ConfidenceScore = 1.0
	}
}

// applyFill writes an empty field, its provenance, and both audit rows in
// one transaction.
func (resolver *Resolver) applyFill(context context.Context, profile *artist.Artist, field, value, articleID string, geminiConfidence, sourceReliability float64) error {
	if !fillWhitelist[field] {
		return fmt.Errorf("resolver: field %q is not whitelisted", field)
	}

	tx, err := resolver.db.Begin(context)
	if err != nil {
		return err
	}
	defer tx.Rollback(context)

	update := fmt.Sprintf(
		`UPDATE core.artist SET %s = $2, %s_source_article_id = $3, updated_at = NOW() WHERE id = $1`,
		field, field)
	if _, err := tx.Exec(context, update, profile.ID, value, articleID); err != nil {
		return err
	}

	recorder := resolver.auditor.WithTx(tx)
	if err := recorder.RecordUpdate(context, &audit.DataUpdateLog{
		EntityType:      audit.EntityArtist,
		EntityID:        profile.ID,
		FieldName:       field,
		OldValue:        nil,
		NewValue:        pointer.To(value),
		UpdatedBy:       audit.UpdatedByPipeline,
		SourceArticleID: pointer.To(articleID),
	}); err != nil {
		return err
	}

	if err := recorder.RecordResolution(context, &audit.AutoResolutionLog{
		ResolutionType:    audit.ResolutionFill,
		EntityType:        pointer.To(audit.EntityArtist),
		EntityID:          pointer.To(profile.ID),
		FieldName:         pointer.To(field),
		OldValue:          nil,
		NewValue:          pointer.To(value),
		GeminiConfidence:  pointer.To(geminiConfidence),
		SourceReliability: pointer.To(sourceReliability),
		SourceArticleID:   pointer.To(articleID),
	}); err != nil {
		return err
	}

	return tx.Commit(context)
}

// # Auto-Reconciliation

type verdict struct {
	Winner string `json:"winner"`
	Reason string `json:"reason"`
}

// reconcile asks the model to arbitrate a field disagreement.
func (resolver *Resolver) reconcile(context context.Context, profile *artist.Artist, field, dbValue, detectedValue string, art *article.Article, geminiConfidence, sourceReliability float64) {
	titlePrefix := art.TitleKO
	if len([]rune(titlePrefix)) > 50 {
		titlePrefix = string([]rune(titlePrefix)[:50])
	}

	prompt := fmt.Sprintf(`두 값 중 어느 것이 올바른지 판단하세요. JSON으로만 응답: {"winner": "article"|"db", "reason": "30자 이내"}
field_name: %s
db_value: %s
detected_value: %s
article_title_prefix: %s`, field, dbValue, detectedValue, titlePrefix)

	raw, _, err := resolver.model.GenerateJSON(context, resolver.modelID, prompt)

	var decision verdict
	if err == nil {
		err = json.Unmarshal([]byte(raw), &decision)
	}

	switch {
	case err == nil && decision.Winner == "article":
		if applyErr := resolver.applyReconcile(context, profile, field, dbValue, detectedValue, art.ID, decision.Reason, geminiConfidence, sourceReliability); applyErr != nil {
			resolver.logger.Warn("reconcile write failed", slog.String("error", applyErr.Error()))
		}

	case err == nil && decision.Winner == "db":
		// The stored value stands; record the decision without a write.
		if logErr := resolver.auditor.RecordResolution(context, &audit.AutoResolutionLog{
			ResolutionType:    audit.ResolutionReconcile,
			EntityType:        pointer.To(audit.EntityArtist),
			EntityID:          pointer.To(profile.ID),
			FieldName:         pointer.To(field),
			OldValue:          pointer.To(dbValue),
			NewValue:          pointer.To(dbValue),
			GeminiReasoning:   pointer.To(decision.Reason),
			GeminiConfidence:  pointer.To(geminiConfidence),
			SourceReliability: pointer.To(sourceReliability),
			SourceArticleID:   pointer.To(art.ID),
		}); logErr != nil {
			resolver.logger.Warn("resolution log failed", slog.String("error", logErr.Error()))
		}

	default:
		reason := undecidableReason
		if err == nil && decision.Reason != "" {
			reason = decision.Reason
		}
		flag := &audit.ConflictFlag{
			EntityType:      audit.EntityArtist,
			EntityID:        profile.ID,
			FieldName:       field,
			DBValue:         pointer.To(dbValue),
			ArticleValue:    pointer.To(detectedValue),
			Reason:          reason,
			ConflictScore:   JaccardDissimilarity(dbValue, detectedValue),
			SourceArticleID: pointer.To(art.ID),
		}
		if flagErr := resolver.auditor.RecordConflict(context, flag); flagErr != nil {
			resolver.logger.Warn("conflict flag write failed", slog.String("error", flagErr.Error()))
		}
	}
}

// applyReconcile overwrites a disagreeing field when the article won.
func (resolver *Resolver) applyReconcile(context context.Context, profile *artist.Artist, field, oldValue, newValue, articleID, reasoning string, geminiConfidence, sourceReliability float64) error {
	if !fillWhitelist[field] {
		return fmt.Errorf("resolver: field %q is not whitelisted", field)
	}

	tx, err := resolver.db.Begin(context)
	if err != nil {
		return err
	}
	defer tx.Rollback(context)

	update := fmt.Sprintf(
		`UPDATE core.artist SET %s = $2, %s_source_article_id = $3, updated_at = NOW() WHERE id = $1`,
		field, field)
	if _, err := tx.Exec(context, update, profile.ID, newValue, articleID); err != nil {
		return err
	}

	recorder := resolver.auditor.WithTx(tx)
	if err := recorder.RecordUpdate(context, &audit.DataUpdateLog{
		EntityType:      audit.EntityArtist,
		EntityID:        profile.ID,
		FieldName:       field,
		OldValue:        pointer.To(oldValue),
		NewValue:        pointer.To(newValue),
		UpdatedBy:       audit.UpdatedByPipeline,
		SourceArticleID: pointer.To(articleID),
	}); err != nil {
		return err
	}
	if err := recorder.RecordResolution(context, &audit.AutoResolutionLog{
		ResolutionType:    audit.ResolutionReconcile,
		EntityType:        pointer.To(audit.EntityArtist),
		EntityID:          pointer.To(profile.ID),
		FieldName:         pointer.To(field),
		OldValue:          pointer.To(oldValue),
		NewValue:          pointer.To(newValue),
		GeminiReasoning:   pointer.To(reasoning),
		GeminiConfidence:  pointer.To(geminiConfidence),
		SourceReliability: pointer.To(sourceReliability),
		SourceArticleID:   pointer.To(articleID),
	}); err != nil {
		return err
	}

	return tx.Commit(context)
}

// # Glossary Auto-Enroll

/*
EnrollUnlinked enrolls detected-but-unlinked entities into the glossary.

Description: Only entities with a non-empty English name qualify. ARTIST
and GROUP types enroll under the ARTIST glossary category, EVENT under
EVENT. Each successful insert logs an ENROLL resolution.

Returns:
  - int: Number of newly enrolled terms (caller invalidates the cache
    when positive)
*/
func (resolver *Resolver) EnrollUnlinked(context context.Context, art *article.Article, detected []engine.DetectedEntity, edges []*mapping.EntityMapping, sourceReliability float64) int {
	enrolled := 0
	for i, edge := range edges {
		if i >= len(detected) || edge.ArtistID != nil || edge.GroupID != nil {
			continue
		}
		entity := detected[i]
		if entity.NameEN == "" {
			continue
		}

		category := glossary.CategoryArtist
		if entity.EntityType == mapping.TypeEvent {
			category = glossary.CategoryEvent
		}

		entry := &glossary.Entry{
			TermKO:          entity.NameKO,
			TermEN:          entity.NameEN,
			Category:        category,
			SourceArticleID: pointer.To(art.ID),
		}
		inserted, err := resolver.glossary.InsertAutoProvisioned(context, entry)
		if err != nil {
			resolver.logger.Warn("glossary enroll failed",
				slog.String("term", entity.NameKO),
				slog.String("error", err.Error()))
			continue
		}
		if !inserted {
			continue
		}

		enrolled++
		// ENROLL rows carry no entity reference: the glossary term exists
		// before any registry entity does.
		if logErr := resolver.auditor.RecordResolution(context, &audit.AutoResolutionLog{
			ResolutionType:    audit.ResolutionEnroll,
			NewValue:          pointer.To(entity.NameKO + " → " + entity.NameEN),
			GeminiConfidence:  pointer.To(entity.ConfidenceScore),
			SourceReliability: pointer.To(sourceReliability),
			SourceArticleID:   pointer.To(art.ID),
		}); logErr != nil {
			resolver.logger.Warn("resolution log failed", slog.String("error", logErr.Error()))
		}
	}
	return enrolled
}

// # Conflict Scoring

/*
JaccardDissimilarity measures how different two strings are by character
set: 1 - |A∩B| / max(|A|,|B|,1), clamped to [0,1].
*/
func JaccardDissimilarity(a, b string) float64 {
	setA := runeSet(a)
	setB := runeSet(b)

	intersection := 0
	for r := range setA {
		if setB[r] {
			intersection++
		}
	}

	denominator := len(setA)
	if len(setB) > denominator {
		denominator = len(setB)
	}
	if denominator < 1 {
		denominator = 1
	}

	score := 1.0 - float64(intersection)/float64(denominator)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func runeSet(s string) map[rune]bool {
	set := map[rune]bool{}
	for _, r := range strings.ToLower(s) {
		set[r] = true
	}
	return set
}
