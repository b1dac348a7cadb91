// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package simple is the lightweight post-processor for backlog throughput.

Unlike the intelligence engine it runs one cheap call per article, fills
only empty fields, and never does entity work. SCRAPED rows move to
PROCESSED on success and ERROR on failure.
*/
package simple

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyeonlab/kwave/internal/ai/llm"
	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/pkg/pointer"
)

// bodyPrefixRunes bounds how much article body reaches the prompt.
const bodyPrefixRunes = 800

// interCallDelay spaces consecutive calls.
const interCallDelay = 2 * time.Second

// ModelCaller is the LLM surface the post-processor needs.
type ModelCaller interface {
	GenerateJSON(context context.Context, model, prompt string) (string, *llm.Usage, error)
}

// ArticleStore is the article repository slice the post-processor drives.
type ArticleStore interface {
	ListByStatus(context context.Context, status article.Status, limit int) ([]*article.Article, error)
	ApplyProcessing(context context.Context, update article.ProcessingUpdate) error
	SetStatus(context context.Context, id string, status article.Status, note *string) error
}

// Processor runs the simple post-processing pass.
type Processor struct {
	articles ArticleStore
	model    ModelCaller
	modelID  string
	logger   *slog.Logger

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// New constructs a [Processor].
func New(articles ArticleStore, model ModelCaller, modelID string, logger *slog.Logger) *Processor {
	return &Processor{
		articles: articles,
		model:    model,
		modelID:  modelID,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

type translation struct {
	TitleEN    string   `json:"title_en"`
	SummaryKO  string   `json:"summary_ko"`
	SummaryEN  string   `json:"summary_en"`
	HashtagsEN []string `json:"hashtags_en"`
}

/*
Run processes up to limit SCRAPED articles one at a time.

Description: Each success transitions the row to PROCESSED writing only
fields that were empty, so re-running over the same row is a no-op. A
failure marks the row ERROR and continues. The kill switch aborts the pass.

Returns:
  - int: Number of articles moved to PROCESSED
*/
func (processor *Processor) Run(context context.Context, limit int) (int, error) {
	articles, err := processor.articles.ListByStatus(context, article.StatusScraped, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i, art := range articles {
		if i > 0 {
			processor.sleep(interCallDelay)
		}

		if err := processor.processOne(context, art); err != nil {
			if llm.IsKillSwitch(err) {
				return processed, err
			}
			processor.logger.Error("simple post-process failed",
				slog.String("article_id", art.ID),
				slog.String("error", err.Error()))
			note := "단순 후처리 오류: " + err.Error()
			if setErr := processor.articles.SetStatus(context, art.ID, article.StatusError, &note); setErr != nil {
				processor.logger.Error("failed to mark article ERROR", slog.String("article_id", art.ID))
			}
			continue
		}
		processed++
	}

	return processed, nil
}

func (processor *Processor) processOne(context context.Context, art *article.Article) error {
	body := []rune(art.ContentKO)
	if len(body) > bodyPrefixRunes {
		body = body[:bodyPrefixRunes]
	}

	prompt := fmt.Sprintf(`다음 한국어 기사의 영문 제목, 한/영 요약, 영문 해시태그를 JSON으로만 답하세요.
스키마: {"title_en": string, "summary_ko": string, "summary_en": string, "hashtags_en": [string]}

# 제목
%s

# 본문 (앞부분)
%s`, art.TitleKO, string(body))

	raw, _, err := processor.model.GenerateJSON(context, processor.modelID, prompt)
	if err != nil {
		return err
	}

	var result translation
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return fmt.Errorf("simple: malformed response: %w", err)
	}

	// Only empty fields are written, keeping the pass idempotent.
	update := article.ProcessingUpdate{
		ArticleID: art.ID,
		Status:    article.StatusProcessed,
	}
	if result.TitleEN != "" && pointer.Val(art.TitleEN) == "" {
		update.TitleEN = pointer.To(result.TitleEN)
	}
	if result.SummaryKO != "" && pointer.Val(art.SummaryKO) == "" {
		update.SummaryKO = pointer.To(result.SummaryKO)
	}
	if result.SummaryEN != "" && pointer.Val(art.SummaryEN) == "" {
		update.SummaryEN = pointer.To(result.SummaryEN)
	}
	if len(result.HashtagsEN) > 0 && len(art.HashtagsEN) == 0 {
		update.HashtagsEN = result.HashtagsEN
	}

	return processor.articles.ApplyProcessing(context, update)
}
