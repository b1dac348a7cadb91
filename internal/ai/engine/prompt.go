// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hyeonlab/kwave/internal/core/glossary"
)

// glossaryTermCap bounds the prompt section size.
const glossaryTermCap = 300

// GlossarySource supplies active glossary entries for prompt injection.
type GlossarySource interface {
	ListActive(context context.Context, limit int) ([]*glossary.Entry, error)
}

// glossaryCache holds the rendered glossary prompt section behind a TTL.
type glossaryCache struct {
	mu        sync.Mutex
	source    GlossarySource
	ttl       time.Duration
	fetchedAt time.Time
	section   string

	now func() time.Time
}

func newGlossaryCache(source GlossarySource, ttl time.Duration) *glossaryCache {
	return &glossaryCache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (cache *glossaryCache) get(context context.Context) (string, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.fetchedAt.IsZero() || cache.now().Sub(cache.fetchedAt) > cache.ttl {
		entries, err := cache.source.ListActive(context, glossaryTermCap)
		if err != nil {
			return "", err
		}
		cache.section = renderGlossary(entries)
		cache.fetchedAt = cache.now()
	}

	return cache.section, nil
}

func (cache *glossaryCache) invalidate() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.fetchedAt = time.Time{}
}

func renderGlossary(entries []*glossary.Entry) string {
	if len(entries) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("## 용어집 (반드시 아래 표기를 따를 것)\n")
	currentCategory := glossary.Category("")
	for _, entry := range entries {
		if entry.Category != currentCategory {
			currentCategory = entry.Category
			builder.WriteString("[" + string(currentCategory) + "]\n")
		}
		builder.WriteString(entry.TermKO + " → " + entry.TermEN + "\n")
	}
	return builder.String()
}

// localizationGuide lists idiomatic K-pop terms and their expected English
// renderings. Injected for every tier except KO_ONLY.
var localizationGuide = strings.Join([]string{
	"## 현지화 가이드 (직역 금지, 아래 관용 표현 사용)",
	"역주행 → viral comeback",
	"대세돌 → trending it-idol",
	"컴백 → comeback",
	"음원차트 올킬 → all-kill on music charts",
	"팬덤 → fandom",
	"입덕 → becoming a fan",
	"소속사 → agency",
	"월드투어 → world tour",
	"완판 → sold out instantly",
	"음방 1위 → music show win",
}, "\n")

// buildPrompt assembles the extraction prompt for one article.
func buildPrompt(tier Tier, glossarySection, titleKO, contentKO string) string {
	var builder strings.Builder

	builder.WriteString("당신은 K-엔터테인먼트 뉴스 전문 분석가입니다.\n")
	builder.WriteString("아래 한국어 기사를 분석하여 JSON으로만 응답하세요. 마크다운 코드 펜스를 사용하지 마세요.\n\n")

	switch tier {
	case TierFull:
		builder.WriteString("요청: 한/영 제목, 한/영 주제 요약, SEO 해시태그 5~10개, 등장 아티스트 탐지.\n")
	case TierTitleOnly:
		builder.WriteString("요청: 한/영 제목, 3문장 이내 한/영 요약, 해시태그 5~7개, 등장 아티스트 탐지.\n")
	case TierKOOnly:
		builder.WriteString("요청: 등장 아티스트 탐지만 수행. 번역과 해시태그는 생성하지 마세요 (해당 필드는 빈 값).\n")
	}

	builder.WriteString(`
응답 스키마:
{"title_ko": string, "title_en": string, "detected_artists": [{"name_ko": string, "name_en": string?, "context_hints": [string] (≤10), "mention_count": int (≥1), "is_primary": bool, "entity_type": "ARTIST"|"GROUP"|"EVENT", "confidence_score": 0..1, "is_ambiguous": bool, "ambiguity_reason": string?}], "topic_summary": string, "topic_summary_en": string, "seo_hashtags": [string], "sentiment": "positive"|"negative"|"neutral"|"mixed", "relevance_score": 0..1, "main_category": "music"|"drama"|"film"|"fashion"|"entertainment"|"award"|"other", "confidence": 0..1}
`)

	if tier != TierKOOnly {
		if glossarySection != "" {
			builder.WriteString("\n" + glossarySection)
		}
		builder.WriteString("\n" + localizationGuide + "\n")
	}

	fmt.Fprintf(&builder, "\n# 기사 제목\n%s\n\n# 기사 본문\n%s\n", titleKO, contentKO)
	return builder.String()
}
