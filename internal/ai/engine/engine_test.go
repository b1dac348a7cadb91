// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/kwave/internal/ai/llm"
	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/audit"
	"github.com/hyeonlab/kwave/internal/core/glossary"
	"github.com/hyeonlab/kwave/internal/core/group"
	"github.com/hyeonlab/kwave/internal/core/mapping"
	"github.com/hyeonlab/kwave/pkg/pointer"
)

// # Fakes

type fakeArticleStore struct {
	pending []*article.Article
	updates []article.ProcessingUpdate
	errored []string
}

func (s *fakeArticleStore) ClaimPending(_ context.Context, limit int) ([]*article.Article, error) {
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *fakeArticleStore) ListByStatus(ctx context.Context, _ article.Status, limit int) ([]*article.Article, error) {
	return s.ClaimPending(ctx, limit)
}

func (s *fakeArticleStore) ApplyProcessing(_ context.Context, update article.ProcessingUpdate) error {
	s.updates = append(s.updates, update)
	return nil
}

func (s *fakeArticleStore) SetStatus(_ context.Context, id string, status article.Status, _ *string) error {
	if status == article.StatusError {
		s.errored = append(s.errored, id)
	}
	return nil
}

type fakeMappings struct {
	replaced map[string][]*mapping.EntityMapping
}

func (m *fakeMappings) ReplaceForArticle(_ context.Context, articleID string, edges []*mapping.EntityMapping) error {
	if m.replaced == nil {
		m.replaced = map[string][]*mapping.EntityMapping{}
	}
	m.replaced[articleID] = edges
	return nil
}

type staticArtists struct{ entries []artist.RegistryEntry }

func (r staticArtists) Registry(context.Context) ([]artist.RegistryEntry, error) {
	return r.entries, nil
}

type staticGroups struct{ entries []group.RegistryEntry }

func (r staticGroups) Registry(context.Context) ([]group.RegistryEntry, error) {
	return r.entries, nil
}

type staticGlossary struct{}

func (staticGlossary) ListActive(context.Context, int) ([]*glossary.Entry, error) {
	return []*glossary.Entry{{TermKO: "컴백", TermEN: "comeback", Category: glossary.CategoryGeneral}}, nil
}

type cannedModel struct {
	response string
	prompts  []string
}

func (m *cannedModel) GenerateJSON(_ context.Context, _, prompt string) (string, *llm.Usage, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, &llm.Usage{TotalTokens: 42}, nil
}

type nullAuditor struct {
	systemLogs int
}

func (a *nullAuditor) RecordUpdate(context.Context, *audit.DataUpdateLog) error         { return nil }
func (a *nullAuditor) RecordResolution(context.Context, *audit.AutoResolutionLog) error { return nil }
func (a *nullAuditor) RecordConflict(context.Context, *audit.ConflictFlag) error        { return nil }
func (a *nullAuditor) RecordSystem(context.Context, *audit.SystemLog) error {
	a.systemLogs++
	return nil
}

// # Helpers

func pendingArticle(id string) *article.Article {
	return &article.Article{
		ID:        id,
		SourceURL: "https://s.kr/article/" + id,
		TitleKO:   "아이유 컴백 발표",
		ContentKO: "아이유가 컴백을 발표했다.",
		Status:    article.StatusPending,
	}
}

const goodResponse = `{
	"title_ko": "아이유 컴백 발표",
	"title_en": "IU Announces Comeback",
	"topic_summary": "아이유 컴백",
	"topic_summary_en": "IU comeback",
	"seo_hashtags": ["IU", "컴백"],
	"sentiment": "positive",
	"relevance_score": 0.9,
	"confidence": 0.97,
	"detected_artists": [
		{"name_ko": "아이유", "name_en": "IU", "entity_type": "ARTIST",
		 "confidence_score": 0.95, "mention_count": 3, "is_primary": true}
	]
}`

func newTestEngine(store *fakeArticleStore, model *cannedModel) (*Engine, *fakeMappings, *nullAuditor) {
	mappings := &fakeMappings{}
	auditor := &nullAuditor{}
	artists := staticArtists{entries: []artist.RegistryEntry{
		{ID: "artist-iu", NameKO: "이지은", StageNameKO: pointer.To("아이유"), NameEN: pointer.To("IU"), GlobalPriority: pointer.To(1)},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := New(store, mappings, artists, staticGroups{}, staticGlossary{},
		model, nil, auditor, Config{Model: "gemini-2.0-flash"}, logger)
	return engine, mappings, auditor
}

// # Tests

/*
TestProcessPending_FullPipeline verifies one article flows through
extraction, linking, decision, and write-back.
*/
func TestProcessPending_FullPipeline(t *testing.T) {
	store := &fakeArticleStore{pending: []*article.Article{pendingArticle("a1")}}
	model := &cannedModel{response: goodResponse}
	engine, mappings, auditor := newTestEngine(store, model)

	outcome, err := engine.ProcessPending(context.Background(), 10, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Verified, "confidence 0.97 clears the auto-commit bar")
	assert.Zero(t, outcome.Errors)

	// Write-back carried the extraction.
	require.Len(t, store.updates, 1)
	update := store.updates[0]
	assert.Equal(t, article.StatusVerified, update.Status)
	assert.Equal(t, "IU Announces Comeback", pointer.Val(update.TitleEN))
	assert.Equal(t, []string{"#IU", "#컴백"}, update.HashtagsEN)

	// The detected artist linked against the registry by stage name.
	edges := mappings.replaced["a1"]
	require.Len(t, edges, 1)
	require.NotNil(t, edges[0].ArtistID)
	assert.Equal(t, "artist-iu", *edges[0].ArtistID)
	assert.True(t, edges[0].IsPrimary)
	// The mapping row carries the registry link score, not the model's
	// detection confidence.
	assert.InDelta(t, 1.0, edges[0].ConfidenceScore, 1e-9)

	assert.Equal(t, 1, auditor.systemLogs)
}

/*
TestProcessPending_GlossaryInPrompt verifies the glossary section reaches
the prompt for translating tiers.
*/
func TestProcessPending_GlossaryInPrompt(t *testing.T) {
	store := &fakeArticleStore{pending: []*article.Article{pendingArticle("a1")}}
	model := &cannedModel{response: goodResponse}
	engine, _, _ := newTestEngine(store, model)

	_, err := engine.ProcessPending(context.Background(), 10, nil, false)
	require.NoError(t, err)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "컴백")
	assert.Contains(t, model.prompts[0], "comeback")
}

/*
TestProcessPending_DryRun verifies dry-run produces previews and performs
no writes.
*/
func TestProcessPending_DryRun(t *testing.T) {
	store := &fakeArticleStore{pending: []*article.Article{pendingArticle("a1")}}
	model := &cannedModel{response: goodResponse}
	engine, mappings, auditor := newTestEngine(store, model)

	outcome, err := engine.ProcessPending(context.Background(), 10, nil, true)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Verified)
	assert.NotEmpty(t, outcome.Previews)
	assert.Empty(t, store.updates)
	assert.Empty(t, mappings.replaced)
	assert.Zero(t, auditor.systemLogs)
}

/*
TestProcessPending_BadResponseMarksError verifies a malformed extraction
marks the article ERROR and the batch continues.
*/
func TestProcessPending_BadResponseMarksError(t *testing.T) {
	store := &fakeArticleStore{pending: []*article.Article{pendingArticle("a1")}}
	model := &cannedModel{response: `definitely not json`}
	engine, _, _ := newTestEngine(store, model)

	outcome, err := engine.ProcessPending(context.Background(), 10, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Errors)
	assert.Equal(t, []string{"a1"}, store.errored)
	assert.Empty(t, store.updates)
}

/*
TestProcessPending_ManualReview verifies low-confidence entities land the
article in MANUAL_REVIEW with the Korean reason note.
*/
func TestProcessPending_ManualReview(t *testing.T) {
	response := `{
		"title_ko": "t", "title_en": "T", "topic_summary": "s", "topic_summary_en": "S",
		"relevance_score": 0.9, "confidence": 0.9,
		"detected_artists": [
			{"name_ko": "신인", "entity_type": "ARTIST", "confidence_score": 0.5, "mention_count": 1}
		]
	}`
	store := &fakeArticleStore{pending: []*article.Article{pendingArticle("a1")}}
	engine, _, _ := newTestEngine(store, &cannedModel{response: response})

	outcome, err := engine.ProcessPending(context.Background(), 10, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.ManualReview)
	require.Len(t, store.updates, 1)
	assert.Equal(t, article.StatusManualReview, store.updates[0].Status)
	assert.Contains(t, pointer.Val(store.updates[0].SystemNote), "MANUAL_REVIEW 사유")
}
