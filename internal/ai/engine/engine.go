// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package engine implements the article intelligence pipeline.

One pass over a SCRAPED article runs: tier selection from the cached artist
registry, prompt construction with glossary and localization sections, a
single extraction call, entity linking against the registry, the status
decision, and the transactional write-through of fields plus the replaced
mapping set. The self-healing resolver hooks in around the mapping write on
non-dry-run passes.
*/
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyeonlab/kwave/internal/ai/llm"
	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/audit"
	"github.com/hyeonlab/kwave/internal/core/group"
	"github.com/hyeonlab/kwave/internal/core/mapping"
	"github.com/hyeonlab/kwave/pkg/pointer"
)

// ModelCaller is the LLM client surface the engine needs.
type ModelCaller interface {
	GenerateJSON(context context.Context, model, prompt string) (string, *llm.Usage, error)
}

// Healer is the self-healing resolver hook. CrossValidate may mutate edge
// confidence scores in place before they are persisted.
type Healer interface {
	CrossValidate(context context.Context, art *article.Article, detected []DetectedEntity, edges []*mapping.EntityMapping, sourceReliability float64)
	EnrollUnlinked(context context.Context, art *article.Article, detected []DetectedEntity, edges []*mapping.EntityMapping, sourceReliability float64) int
}

// ArticleStore is the article repository slice the engine writes through.
type ArticleStore interface {
	ClaimPending(context context.Context, limit int) ([]*article.Article, error)
	ListByStatus(context context.Context, status article.Status, limit int) ([]*article.Article, error)
	ApplyProcessing(context context.Context, update article.ProcessingUpdate) error
	SetStatus(context context.Context, id string, status article.Status, note *string) error
}

// MappingStore replaces an article's entity edges.
type MappingStore interface {
	ReplaceForArticle(context context.Context, articleID string, edges []*mapping.EntityMapping) error
}

// Config tunes one engine instance.
type Config struct {
	Model       string
	Thresholds  Thresholds
	GlossaryTTL time.Duration // default 10 min
}

// Engine orchestrates the per-article intelligence pipeline.
type Engine struct {
	articles   ArticleStore
	mappings   MappingStore
	registries *registryCache
	glossary   *glossaryCache
	model      ModelCaller
	healer     Healer
	auditor    audit.Recorder
	config     Config
	logger     *slog.Logger
}

// New constructs an [Engine]. healer may be nil to disable self-healing.
func New(
	articles ArticleStore,
	mappings MappingStore,
	artists ArtistRegistry,
	groups GroupRegistry,
	glossarySource GlossarySource,
	model ModelCaller,
	healer Healer,
	auditor audit.Recorder,
	config Config,
	logger *slog.Logger,
) *Engine {
	if config.Thresholds == (Thresholds{}) {
		config.Thresholds = DefaultThresholds()
	}
	if config.GlossaryTTL == 0 {
		config.GlossaryTTL = 10 * time.Minute
	}

	return &Engine{
		articles:   articles,
		mappings:   mappings,
		registries: newRegistryCache(artists, groups),
		glossary:   newGlossaryCache(glossarySource, config.GlossaryTTL),
		model:      model,
		healer:     healer,
		auditor:    auditor,
		config:     config,
		logger:     logger,
	}
}

// InvalidateGlossary drops the cached glossary section. Called after an
// auto-enroll so the next batch sees the new term.
func (engine *Engine) InvalidateGlossary() {
	engine.glossary.invalidate()
}

// Outcome summarizes one batch pass.
type Outcome struct {
	Processed    int             `json:"processed"`
	Verified     int             `json:"verified"`
	ManualReview int             `json:"manual_review"`
	Errors       int             `json:"errors"`
	Previews     json.RawMessage `json:"previews,omitempty"` // dry-run only
}

/*
ProcessPending claims up to batchSize PENDING articles and processes each.

Description: Claiming transitions rows to SCRAPED as an in-progress marker
under row-level locks that skip locked rows, so concurrent engine processes
never collide. Dry-run reads the rows without transitioning and collects
JSON previews instead of writing back. A kill-switch error aborts the batch;
any other per-article error marks that article ERROR and continues.
*/
func (engine *Engine) ProcessPending(context context.Context, batchSize int, jobID *string, dryRun bool) (*Outcome, error) {
	var articles []*article.Article
	var err error
	if dryRun {
		articles, err = engine.articles.ListByStatus(context, article.StatusPending, batchSize)
	} else {
		articles, err = engine.articles.ClaimPending(context, batchSize)
	}
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{}
	var previews []json.RawMessage

	for _, art := range articles {
		status, preview, err := engine.processOne(context, art, jobID, dryRun)
		if err != nil {
			if llm.IsKillSwitch(err) {
				engine.logger.Error("kill switch active, aborting batch")
				return outcome, err
			}

			outcome.Errors++
			engine.logger.Error("article processing failed",
				slog.String("article_id", art.ID),
				slog.String("error", err.Error()))
			if !dryRun {
				note := "처리 오류: " + err.Error()
				if setErr := engine.articles.SetStatus(context, art.ID, article.StatusError, &note); setErr != nil {
					engine.logger.Error("failed to mark article ERROR", slog.String("article_id", art.ID))
				}
			}
			continue
		}

		switch status {
		case article.StatusVerified:
			outcome.Verified++
		case article.StatusManualReview:
			outcome.ManualReview++
		default:
			outcome.Processed++
		}
		if preview != nil {
			previews = append(previews, preview)
		}
	}

	if dryRun && len(previews) > 0 {
		outcome.Previews, _ = json.Marshal(previews)
	}
	return outcome, nil
}

// processOne runs the full pipeline for a single article.
func (engine *Engine) processOne(context context.Context, art *article.Article, jobID *string, dryRun bool) (article.Status, json.RawMessage, error) {
	// ── 1. Tier from the cached registry ──────────────────────────────
	artists, groups, err := engine.registries.get(context)
	if err != nil {
		return "", nil, err
	}
	tier := tierFor(pointer.Val(art.ArtistNameKO), artists)

	// ── 2. Prompt ─────────────────────────────────────────────────────
	glossarySection := ""
	if tier != TierKOOnly {
		if glossarySection, err = engine.glossary.get(context); err != nil {
			return "", nil, err
		}
	}
	prompt := buildPrompt(tier, glossarySection, art.TitleKO, art.ContentKO)

	// ── 3. Extraction call ────────────────────────────────────────────
	raw, usage, err := engine.model.GenerateJSON(context, engine.config.Model, prompt)
	if err != nil {
		return "", nil, err
	}
	extraction, err := ParseExtraction(raw)
	if err != nil {
		return "", nil, err
	}

	// ── 4. Entity linking ─────────────────────────────────────────────
	edges := engine.buildEdges(art.ID, extraction.Detected, artists, groups)

	// ── 5. Status decision ────────────────────────────────────────────
	decision := decide(extraction, tier, engine.config.Thresholds)
	if decision.Status == article.StatusProcessed && extraction.Confidence < engine.config.Thresholds.AutoCommit {
		engine.logger.Info("below auto-commit threshold",
			slog.String("article_id", art.ID),
			slog.Float64("confidence", extraction.Confidence))
	}

	if dryRun {
		preview, _ := json.Marshal(map[string]any{
			"article_id": art.ID,
			"tier":       tier,
			"status":     decision.Status,
			"extraction": extraction,
			"dry_run":    true,
		})
		return decision.Status, preview, nil
	}

	// ── 6. Self-healing (cross-validation may boost edge scores) ──────
	if engine.healer != nil {
		engine.healer.CrossValidate(context, art, extraction.Detected, edges, extraction.Confidence)
	}

	// ── 7. Write-through ──────────────────────────────────────────────
	if err := engine.mappings.ReplaceForArticle(context, art.ID, edges); err != nil {
		return "", nil, err
	}
	if err := engine.writeBack(context, art, extraction, decision); err != nil {
		return "", nil, err
	}

	// ── 8. Glossary auto-enroll for unlinked entities ─────────────────
	if engine.healer != nil {
		if enrolled := engine.healer.EnrollUnlinked(context, art, extraction.Detected, edges, extraction.Confidence); enrolled > 0 {
			engine.glossary.invalidate()
		}
	}

	// ── 9. Operational trace ──────────────────────────────────────────
	engine.recordSystemLog(context, art, extraction, decision, edges, usage, jobID)

	return decision.Status, nil, nil
}

// buildEdges links each detected entity and materializes mapping rows.
func (engine *Engine) buildEdges(articleID string, detected []DetectedEntity, artists []artist.RegistryEntry, groups []group.RegistryEntry) []*mapping.EntityMapping {
	var edges []*mapping.EntityMapping
	for _, entity := range detected {
		link := linkEntity(entity, artists, groups, engine.config.Thresholds.MinMatchScore)

		// Linked rows carry the registry match score; unlinked rows keep
		// the model's detection confidence, which is all they have.
		confidence := entity.ConfidenceScore
		if link.ArtistID != nil || link.GroupID != nil {
			confidence = link.Score
		}

		edge := &mapping.EntityMapping{
			ArticleID:       articleID,
			Type:            entity.EntityType,
			ArtistID:        link.ArtistID,
			GroupID:         link.GroupID,
			NameKO:          entity.NameKO,
			ConfidenceScore: confidence,
			MentionCount:    entity.MentionCount,
			IsPrimary:       entity.IsPrimary,
		}
		if entity.NameEN != "" {
			edge.NameEN = pointer.To(entity.NameEN)
		}
		if len(entity.ContextHints) > 0 {
			edge.ContextSnippet = pointer.To(entity.ContextHints[0])
		}
		edges = append(edges, edge)
	}
	return edges
}

// writeBack persists the extraction into the article row.
func (engine *Engine) writeBack(context context.Context, art *article.Article, extraction *Extraction, decision Decision) error {
	update := article.ProcessingUpdate{
		ArticleID:  art.ID,
		Status:     decision.Status,
		SystemNote: pointer.To(decision.Note()),
	}

	if extraction.TitleEN != "" {
		update.TitleEN = pointer.To(extraction.TitleEN)
	}
	if extraction.TopicSummary != "" {
		update.SummaryKO = pointer.To(extraction.TopicSummary)
	}
	if extraction.TopicSummaryEN != "" {
		update.SummaryEN = pointer.To(extraction.TopicSummaryEN)
	}
	if len(extraction.SEOHashtags) > 0 {
		update.HashtagsEN = extraction.SEOHashtags
		update.SEOHashtags, _ = json.Marshal(map[string]any{
			"tags":       extraction.SEOHashtags,
			"model":      engine.config.Model,
			"confidence": extraction.Confidence,
		})
	}
	if sentiment := article.SentimentFromModel(extraction.Sentiment); sentiment != nil {
		update.Sentiment = sentiment
	}

	return engine.articles.ApplyProcessing(context, update)
}

// recordSystemLog appends the AI_PROCESS trace with token metrics and the
// per-entity confidence map.
func (engine *Engine) recordSystemLog(context context.Context, art *article.Article, extraction *Extraction, decision Decision, edges []*mapping.EntityMapping, usage *llm.Usage, jobID *string) {
	confidences := map[string]float64{}
	var ambiguous, lowConfidence []string
	for _, entity := range extraction.Detected {
		confidences[entity.NameKO] = entity.ConfidenceScore
		if entity.IsAmbiguous {
			ambiguous = append(ambiguous, entity.NameKO)
		}
		if entity.ConfidenceScore < engine.config.Thresholds.EntityConfidence {
			lowConfidence = append(lowConfidence, entity.NameKO)
		}
	}

	var linkedArtists []string
	for _, edge := range edges {
		if edge.ArtistID != nil {
			linkedArtists = append(linkedArtists, *edge.ArtistID)
		}
	}

	metadata, _ := json.Marshal(map[string]any{
		"usage":              usage,
		"entity_confidences": confidences,
		"ambiguous_entities": ambiguous,
		"low_confidence":     lowConfidence,
		"linked_artist_ids":  linkedArtists,
		"status":             decision.Status,
		"relevance_score":    extraction.RelevanceScore,
		"confidence":         extraction.Confidence,
	})

	log := &audit.SystemLog{
		Category: "AI_PROCESS",
		Message:  fmt.Sprintf("article %s → %s", art.ID, decision.Status),
		Metadata: metadata,
		JobID:    jobID,
	}
	if err := engine.auditor.RecordSystem(context, log); err != nil {
		engine.logger.Warn("system log write failed", slog.String("error", err.Error()))
	}
}
