// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package resolver_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/kwave/internal/ai/engine"
	"github.com/hyeonlab/kwave/internal/ai/llm"
	"github.com/hyeonlab/kwave/internal/ai/resolver"
	"github.com/hyeonlab/kwave/internal/core/article"
	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/audit"
	"github.com/hyeonlab/kwave/internal/core/glossary"
	"github.com/hyeonlab/kwave/internal/core/mapping"
	"github.com/hyeonlab/kwave/pkg/pointer"
)

// # Fakes

type fakeTx struct {
	pgx.Tx
	execs      []string
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	tx.execs = append(tx.execs, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	txs []*fakeTx
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	tx := &fakeTx{}
	db.txs = append(db.txs, tx)
	return tx, nil
}

type recordingAuditor struct {
	updates     []*audit.DataUpdateLog
	resolutions []*audit.AutoResolutionLog
	conflicts   []*audit.ConflictFlag
}

func (a *recordingAuditor) RecordUpdate(_ context.Context, log *audit.DataUpdateLog) error {
	a.updates = append(a.updates, log)
	return nil
}

func (a *recordingAuditor) RecordResolution(_ context.Context, log *audit.AutoResolutionLog) error {
	a.resolutions = append(a.resolutions, log)
	return nil
}

func (a *recordingAuditor) RecordConflict(_ context.Context, flag *audit.ConflictFlag) error {
	a.conflicts = append(a.conflicts, flag)
	return nil
}

func (a *recordingAuditor) RecordSystem(context.Context, *audit.SystemLog) error { return nil }

func (a *recordingAuditor) WithTx(pgx.Tx) audit.Recorder { return a }

type fakeArtists struct {
	profile *artist.Artist
	touched []string
}

func (r *fakeArtists) FindByID(_ context.Context, id string) (*artist.Artist, error) {
	if r.profile == nil || r.profile.ID != id {
		return nil, errors.New("not found")
	}
	return r.profile, nil
}

func (r *fakeArtists) TouchVerified(_ context.Context, id string, _ time.Time) error {
	r.touched = append(r.touched, id)
	return nil
}

type verdictModel struct {
	response string
	err      error
	prompts  []string
}

func (m *verdictModel) GenerateJSON(_ context.Context, _, prompt string) (string, *llm.Usage, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, &llm.Usage{TotalTokens: 7}, m.err
}

type fakeGlossary struct {
	glossary.Repository
	inserted []*glossary.Entry
	existing map[string]bool
}

func (g *fakeGlossary) InsertAutoProvisioned(_ context.Context, entry *glossary.Entry) (bool, error) {
	if g.existing[entry.TermKO] {
		return false, nil
	}
	g.inserted = append(g.inserted, entry)
	return true, nil
}

// # Helpers

func testArticle() *article.Article {
	return &article.Article{ID: "art-1", TitleKO: "지수 솔로 앨범 발매 소식"}
}

func linkedArtistEdge(artistID string) *mapping.EntityMapping {
	return &mapping.EntityMapping{
		Type:            mapping.TypeArtist,
		ArtistID:        pointer.To(artistID),
		NameKO:          "지수",
		ConfidenceScore: 0.90,
	}
}

func newTestResolver(profile *artist.Artist, model *verdictModel) (*resolver.Resolver, *fakeDB, *recordingAuditor, *fakeArtists, *fakeGlossary) {
	db := &fakeDB{}
	auditor := &recordingAuditor{}
	artists := &fakeArtists{profile: profile}
	glossaryRepo := &fakeGlossary{existing: map[string]bool{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := resolver.New(db, artists, auditor, glossaryRepo, model, "gemini-2.0-flash", logger)
	return r, db, auditor, artists, glossaryRepo
}

// # Cross-Validation

/*
TestCrossValidate_FillEmptyField verifies an empty profile field gains the
article's value inside one transaction, with both audit rows carrying the
detection confidence and the article's overall reliability.
*/
func TestCrossValidate_FillEmptyField(t *testing.T) {
	profile := &artist.Artist{ID: "artist-1", NameKO: "김지수"}
	r, db, auditor, _, _ := newTestResolver(profile, &verdictModel{})

	edge := linkedArtistEdge("artist-1")
	detected := []engine.DetectedEntity{
		{EntityType: mapping.TypeArtist, NameKO: "지수", NameEN: "Jisoo", ConfidenceScore: 0.92},
	}

	r.CrossValidate(context.Background(), testArticle(), detected, []*mapping.EntityMapping{edge}, 0.88)

	require.Len(t, db.txs, 1)
	assert.True(t, db.txs[0].committed)
	require.Len(t, db.txs[0].execs, 1)
	assert.Contains(t, db.txs[0].execs[0], "name_en = $2")
	assert.Contains(t, db.txs[0].execs[0], "name_en_source_article_id = $3")

	require.Len(t, auditor.updates, 1)
	assert.Equal(t, "name_en", auditor.updates[0].FieldName)
	assert.Equal(t, "Jisoo", pointer.Val(auditor.updates[0].NewValue))

	require.Len(t, auditor.resolutions, 1)
	resolution := auditor.resolutions[0]
	assert.Equal(t, audit.ResolutionFill, resolution.ResolutionType)
	assert.Equal(t, audit.EntityArtist, *resolution.EntityType)
	assert.Equal(t, "artist-1", pointer.Val(resolution.EntityID))
	assert.InDelta(t, 0.92, pointer.Val(resolution.GeminiConfidence), 1e-9)
	assert.InDelta(t, 0.88, pointer.Val(resolution.SourceReliability), 1e-9)

	assert.InDelta(t, 0.95, edge.ConfidenceScore, 1e-9, "fill boosts the edge")
	assert.Empty(t, auditor.conflicts)
}

/*
TestCrossValidate_MatchBoostsAndStamps verifies an agreeing value boosts the
edge and stamps last_verified_at without writing any audit rows.
*/
func TestCrossValidate_MatchBoostsAndStamps(t *testing.T) {
	profile := &artist.Artist{ID: "artist-1", NameKO: "김지수", NameEN: pointer.To("jisoo")}
	r, db, auditor, artists, _ := newTestResolver(profile, &verdictModel{})

	edge := linkedArtistEdge("artist-1")
	detected := []engine.DetectedEntity{
		{EntityType: mapping.TypeArtist, NameKO: "지수", NameEN: "Jisoo", ConfidenceScore: 0.92},
	}

	r.CrossValidate(context.Background(), testArticle(), detected, []*mapping.EntityMapping{edge}, 0.88)

	assert.Empty(t, db.txs)
	assert.Empty(t, auditor.updates)
	assert.Empty(t, auditor.resolutions)
	assert.Equal(t, []string{"artist-1"}, artists.touched)
	assert.InDelta(t, 0.95, edge.ConfidenceScore, 1e-9)
}

/*
TestCrossValidate_ReconcileArticleWins verifies a disagreement the model
awards to the article overwrites the field and records the mutation plus a
RECONCILE resolution, with no conflict flag.
*/
func TestCrossValidate_ReconcileArticleWins(t *testing.T) {
	profile := &artist.Artist{ID: "artist-1", NameKO: "김지수", NameEN: pointer.To("Jissoo")}
	model := &verdictModel{response: `{"winner": "article", "reason": "공식 표기"}`}
	r, db, auditor, _, _ := newTestResolver(profile, model)

	edge := linkedArtistEdge("artist-1")
	detected := []engine.DetectedEntity{
		{EntityType: mapping.TypeArtist, NameKO: "지수", NameEN: "Jisoo", ConfidenceScore: 0.92},
	}

	r.CrossValidate(context.Background(), testArticle(), detected, []*mapping.EntityMapping{edge}, 0.88)

	require.Len(t, db.txs, 1)
	assert.True(t, db.txs[0].committed)

	require.Len(t, auditor.updates, 1)
	assert.Equal(t, "Jissoo", pointer.Val(auditor.updates[0].OldValue))
	assert.Equal(t, "Jisoo", pointer.Val(auditor.updates[0].NewValue))

	require.Len(t, auditor.resolutions, 1)
	resolution := auditor.resolutions[0]
	assert.Equal(t, audit.ResolutionReconcile, resolution.ResolutionType)
	assert.Equal(t, "Jisoo", pointer.Val(resolution.NewValue))
	assert.Equal(t, "공식 표기", pointer.Val(resolution.GeminiReasoning))
	assert.InDelta(t, 0.92, pointer.Val(resolution.GeminiConfidence), 1e-9)
	assert.InDelta(t, 0.88, pointer.Val(resolution.SourceReliability), 1e-9)

	assert.Empty(t, auditor.conflicts)
}

/*
TestCrossValidate_ReconcileDBWins verifies the stored value stands when the
model sides with the database: no entity write, just a RECONCILE resolution
whose old and new values are both the stored one.
*/
func TestCrossValidate_ReconcileDBWins(t *testing.T) {
	profile := &artist.Artist{ID: "artist-1", NameKO: "김지수", NameEN: pointer.To("Jisoo")}
	model := &verdictModel{response: `{"winner": "db", "reason": "기존 표기 유지"}`}
	r, db, auditor, _, _ := newTestResolver(profile, model)

	edge := linkedArtistEdge("artist-1")
	detected := []engine.DetectedEntity{
		{EntityType: mapping.TypeArtist, NameKO: "지수", NameEN: "Gisoo", ConfidenceScore: 0.92},
	}

	r.CrossValidate(context.Background(), testArticle(), detected, []*mapping.EntityMapping{edge}, 0.88)

	assert.Empty(t, db.txs, "the stored value stands without a write")
	assert.Empty(t, auditor.updates)
	assert.Empty(t, auditor.conflicts)

	require.Len(t, auditor.resolutions, 1)
	resolution := auditor.resolutions[0]
	assert.Equal(t, audit.ResolutionReconcile, resolution.ResolutionType)
	assert.Equal(t, "Jisoo", pointer.Val(resolution.OldValue))
	assert.Equal(t, "Jisoo", pointer.Val(resolution.NewValue))
}

/*
TestCrossValidate_MalformedVerdictFlagsConflict verifies an unusable model
verdict parks the disagreement as a conflict flag scored by character-set
distance, with no entity write and no resolution row.
*/
func TestCrossValidate_MalformedVerdictFlagsConflict(t *testing.T) {
	profile := &artist.Artist{ID: "artist-1", NameKO: "김지수", NameEN: pointer.To("Jisoo")}
	model := &verdictModel{response: `확실하지 않습니다`}
	r, db, auditor, _, _ := newTestResolver(profile, model)

	edge := linkedArtistEdge("artist-1")
	detected := []engine.DetectedEntity{
		{EntityType: mapping.TypeArtist, NameKO: "지수", NameEN: "Gisoo", ConfidenceScore: 0.92},
	}

	r.CrossValidate(context.Background(), testArticle(), detected, []*mapping.EntityMapping{edge}, 0.88)

	assert.Empty(t, db.txs)
	assert.Empty(t, auditor.updates)
	assert.Empty(t, auditor.resolutions)

	require.Len(t, auditor.conflicts, 1)
	flag := auditor.conflicts[0]
	assert.Equal(t, audit.EntityArtist, flag.EntityType)
	assert.Equal(t, "artist-1", flag.EntityID)
	assert.Equal(t, "Jisoo", pointer.Val(flag.DBValue))
	assert.Equal(t, "Gisoo", pointer.Val(flag.ArticleValue))
	assert.NotEmpty(t, flag.Reason)
	assert.InDelta(t, resolver.JaccardDissimilarity("Jisoo", "Gisoo"), flag.ConflictScore, 1e-9)
	assert.Equal(t, "art-1", pointer.Val(flag.SourceArticleID))
}

/*
TestCrossValidate_ModelErrorFlagsConflict verifies a failed model call takes
the same conflict path as a malformed verdict.
*/
func TestCrossValidate_ModelErrorFlagsConflict(t *testing.T) {
	profile := &artist.Artist{ID: "artist-1", NameKO: "김지수", NameEN: pointer.To("Jisoo")}
	model := &verdictModel{err: errors.New("quota exhausted")}
	r, _, auditor, _, _ := newTestResolver(profile, model)

	edge := linkedArtistEdge("artist-1")
	detected := []engine.DetectedEntity{
		{EntityType: mapping.TypeArtist, NameKO: "지수", NameEN: "Gisoo", ConfidenceScore: 0.92},
	}

	r.CrossValidate(context.Background(), testArticle(), detected, []*mapping.EntityMapping{edge}, 0.88)

	require.Len(t, auditor.conflicts, 1)
	assert.Empty(t, auditor.resolutions)
}

// # Glossary Auto-Enroll

/*
TestEnrollUnlinked verifies unlinked entities with an English name enroll
into the glossary and log an ENROLL resolution that carries no entity
reference, since no registry entity exists yet.
*/
func TestEnrollUnlinked(t *testing.T) {
	r, _, auditor, _, glossaryRepo := newTestResolver(nil, &verdictModel{})

	detected := []engine.DetectedEntity{
		{EntityType: mapping.TypeArtist, NameKO: "신인가수", NameEN: "Rookie", ConfidenceScore: 0.85},
		{EntityType: mapping.TypeEvent, NameKO: "더팩트 뮤직 어워즈", NameEN: "TMA", ConfidenceScore: 0.80},
		{EntityType: mapping.TypeArtist, NameKO: "무명", NameEN: "", ConfidenceScore: 0.70},
	}
	edges := []*mapping.EntityMapping{
		{Type: mapping.TypeArtist, NameKO: "신인가수"},
		{Type: mapping.TypeEvent, NameKO: "더팩트 뮤직 어워즈"},
		{Type: mapping.TypeArtist, NameKO: "무명"},
	}

	enrolled := r.EnrollUnlinked(context.Background(), testArticle(), detected, edges, 0.88)

	assert.Equal(t, 2, enrolled, "entities without an English name stay out")
	require.Len(t, glossaryRepo.inserted, 2)
	assert.Equal(t, glossary.CategoryArtist, glossaryRepo.inserted[0].Category)
	assert.Equal(t, glossary.CategoryEvent, glossaryRepo.inserted[1].Category)

	require.Len(t, auditor.resolutions, 2)
	for _, resolution := range auditor.resolutions {
		assert.Equal(t, audit.ResolutionEnroll, resolution.ResolutionType)
		assert.Nil(t, resolution.EntityType)
		assert.Nil(t, resolution.EntityID)
		assert.NotNil(t, resolution.GeminiConfidence)
		assert.InDelta(t, 0.88, pointer.Val(resolution.SourceReliability), 1e-9)
	}
	assert.Equal(t, "신인가수 → Rookie", pointer.Val(auditor.resolutions[0].NewValue))
}

/*
TestEnrollUnlinked_Idempotent verifies an already-enrolled term neither
counts nor logs a second resolution.
*/
func TestEnrollUnlinked_Idempotent(t *testing.T) {
	r, _, auditor, _, glossaryRepo := newTestResolver(nil, &verdictModel{})
	glossaryRepo.existing["신인가수"] = true

	detected := []engine.DetectedEntity{
		{EntityType: mapping.TypeArtist, NameKO: "신인가수", NameEN: "Rookie", ConfidenceScore: 0.85},
	}
	edges := []*mapping.EntityMapping{{Type: mapping.TypeArtist, NameKO: "신인가수"}}

	enrolled := r.EnrollUnlinked(context.Background(), testArticle(), detected, edges, 0.88)

	assert.Zero(t, enrolled)
	assert.Empty(t, auditor.resolutions)
}

// # Conflict Scoring

/*
TestJaccardDissimilarity checks the character-set distance used for
conflict scoring.
*/
func TestJaccardDissimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "SM엔터테인먼트", "SM엔터테인먼트", 0.0},
		{"case_folded", "HYBE", "hybe", 0.0},
		{"disjoint", "abc", "xyz", 1.0},
		{"both_empty", "", "", 1.0},
		{"one_empty", "JYP", "", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, resolver.JaccardDissimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

/*
TestJaccardDissimilarity_Partial verifies partial overlap lands strictly
between the extremes and is symmetric.
*/
func TestJaccardDissimilarity_Partial(t *testing.T) {
	score := resolver.JaccardDissimilarity("abcd", "abxy")
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)
	assert.InDelta(t, 0.5, score, 1e-9) // 2 shared of max set size 4

	assert.Equal(t,
		resolver.JaccardDissimilarity("어도어", "쏘스뮤직"),
		resolver.JaccardDissimilarity("쏘스뮤직", "어도어"))
}
