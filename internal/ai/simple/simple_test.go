// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package simple

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/kwave/internal/ai/llm"
	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/pkg/pointer"
)

type fakeStore struct {
	scraped []*article.Article
	updates []article.ProcessingUpdate
	errored []string
}

func (s *fakeStore) ListByStatus(_ context.Context, status article.Status, limit int) ([]*article.Article, error) {
	if status != article.StatusScraped {
		return nil, nil
	}
	if len(s.scraped) > limit {
		return s.scraped[:limit], nil
	}
	return s.scraped, nil
}

func (s *fakeStore) ApplyProcessing(_ context.Context, update article.ProcessingUpdate) error {
	s.updates = append(s.updates, update)
	return nil
}

func (s *fakeStore) SetStatus(_ context.Context, id string, status article.Status, _ *string) error {
	if status == article.StatusError {
		s.errored = append(s.errored, id)
	}
	return nil
}

type fakeModel struct {
	responses map[string]string // keyed by article title found in the prompt
	err       error
	calls     int
}

func (m *fakeModel) GenerateJSON(_ context.Context, _, prompt string) (string, *llm.Usage, error) {
	m.calls++
	if m.err != nil {
		return "", nil, m.err
	}
	for title, response := range m.responses {
		if strings.Contains(prompt, title) {
			return response, &llm.Usage{TotalTokens: 100}, nil
		}
	}
	return `{}`, &llm.Usage{}, nil
}

func newTestProcessor(store *fakeStore, model *fakeModel) *Processor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor := New(store, model, "gemini-2.0-flash", logger)
	processor.sleep = func(time.Duration) {}
	return processor
}

func scrapedArticle(id, title string) *article.Article {
	return &article.Article{ID: id, TitleKO: title, ContentKO: "본문", Status: article.StatusScraped}
}

/*
TestRun_FillsEmptyFields verifies the translation lands in the update and
the row moves to PROCESSED.
*/
func TestRun_FillsEmptyFields(t *testing.T) {
	store := &fakeStore{scraped: []*article.Article{scrapedArticle("a1", "아이유 컴백")}}
	model := &fakeModel{responses: map[string]string{
		"아이유 컴백": `{"title_en": "IU Comeback", "summary_ko": "요약", "summary_en": "Summary", "hashtags_en": ["#IU"]}`,
	}}

	processed, err := newTestProcessor(store, model).Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	require.Len(t, store.updates, 1)
	update := store.updates[0]
	assert.Equal(t, article.StatusProcessed, update.Status)
	assert.Equal(t, "IU Comeback", pointer.Val(update.TitleEN))
	assert.Equal(t, "요약", pointer.Val(update.SummaryKO))
	assert.Equal(t, []string{"#IU"}, update.HashtagsEN)
}

/*
TestRun_Idempotent verifies fields the article already carries are never
overwritten: the update leaves them nil.
*/
func TestRun_Idempotent(t *testing.T) {
	art := scrapedArticle("a1", "아이유 컴백")
	art.TitleEN = pointer.To("Existing Title")
	art.HashtagsEN = []string{"#existing"}

	store := &fakeStore{scraped: []*article.Article{art}}
	model := &fakeModel{responses: map[string]string{
		"아이유 컴백": `{"title_en": "New Title", "summary_en": "Summary", "hashtags_en": ["#new"]}`,
	}}

	processed, err := newTestProcessor(store, model).Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	require.Len(t, store.updates, 1)
	update := store.updates[0]
	assert.Nil(t, update.TitleEN, "stored title must not be overwritten")
	assert.Nil(t, update.HashtagsEN)
	assert.Equal(t, "Summary", pointer.Val(update.SummaryEN))
}

/*
TestRun_FailureMarksErrorAndContinues verifies one bad response does not
stop the pass.
*/
func TestRun_FailureMarksErrorAndContinues(t *testing.T) {
	store := &fakeStore{scraped: []*article.Article{
		scrapedArticle("a1", "깨진 기사"),
		scrapedArticle("a2", "정상 기사"),
	}}
	model := &fakeModel{responses: map[string]string{
		"깨진 기사": `not json at all`,
		"정상 기사": `{"title_en": "Fine"}`,
	}}

	processed, err := newTestProcessor(store, model).Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, []string{"a1"}, store.errored)
	require.Len(t, store.updates, 1)
	assert.Equal(t, "a1", store.errored[0])
}

/*
TestRun_KillSwitchAborts verifies the kill switch stops the whole pass
without marking articles ERROR.
*/
func TestRun_KillSwitchAborts(t *testing.T) {
	store := &fakeStore{scraped: []*article.Article{
		scrapedArticle("a1", "기사1"),
		scrapedArticle("a2", "기사2"),
	}}
	model := &fakeModel{err: llm.KillSwitchError{}}

	processed, err := newTestProcessor(store, model).Run(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, llm.IsKillSwitch(err))
	assert.Zero(t, processed)
	assert.Equal(t, 1, model.calls, "the pass must stop at the first kill-switch error")
	assert.Empty(t, store.errored)
}

/*
TestRun_OtherErrors verifies provider errors mark the row ERROR.
*/
func TestRun_OtherErrors(t *testing.T) {
	store := &fakeStore{scraped: []*article.Article{scrapedArticle("a1", "기사")}}
	model := &fakeModel{err: errors.New("provider unavailable")}

	processed, err := newTestProcessor(store, model).Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Equal(t, []string{"a1"}, store.errored)
}

/*
TestRun_RespectsLimit verifies the batch limit bounds the model calls.
*/
func TestRun_RespectsLimit(t *testing.T) {
	store := &fakeStore{scraped: []*article.Article{
		scrapedArticle("a1", "기사1"),
		scrapedArticle("a2", "기사2"),
		scrapedArticle("a3", "기사3"),
	}}
	model := &fakeModel{responses: map[string]string{}}

	processed, err := newTestProcessor(store, model).Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 2, model.calls)
}
