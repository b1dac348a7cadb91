// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package parse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/kwave/internal/scrape/parse"
)

const articleURL = "https://news.example.co.kr/article/12345"

/*
TestParse_JSONLD verifies layer 1: structured data wins over every other
source when present.
*/
func TestParse_JSONLD(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{
			"@type": "NewsArticle",
			"headline": "아이유 신곡 발표",
			"articleBody": "아이유가 새 싱글을 공개했다.",
			"author": {"name": "김기자"},
			"datePublished": "2026-08-20T10:30:00+09:00"
		}</script>
		<meta property="og:title" content="should not win"/>
		<title>also should not win | Site</title>
	</head><body></body></html>`

	parser := parse.New(nil)
	fields, err := parser.Parse(articleURL, html)
	require.NoError(t, err)

	assert.Equal(t, "아이유 신곡 발표", fields.Title)
	assert.Equal(t, "아이유가 새 싱글을 공개했다.", fields.Content)
	assert.Equal(t, "김기자", fields.Author)
	require.NotNil(t, fields.PublishedAt)
	assert.Equal(t, time.Date(2026, 8, 20, 1, 30, 0, 0, time.UTC), *fields.PublishedAt)
}

/*
TestParse_JSONLD_AuthorShapes verifies the three author encodings seen in
the wild: string, object, and list.
*/
func TestParse_JSONLD_AuthorShapes(t *testing.T) {
	tests := []struct {
		name   string
		author string
		want   string
	}{
		{"string", `"박기자"`, "박기자"},
		{"object", `{"name": "이기자"}`, "이기자"},
		{"list", `[{"name": "최기자"}, {"name": "정기자"}]`, "최기자"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<script type="application/ld+json">{
				"@type": "Article", "headline": "t", "author": ` + tt.author + `}</script>`

			fields, err := parse.New(nil).Parse(articleURL, html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fields.Author)
		})
	}
}

/*
TestParse_MetaFallback verifies layer 2 fills what JSON-LD left empty.
*/
func TestParse_MetaFallback(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="르세라핌 컴백 확정"/>
		<meta property="og:image" content="https://cdn.example.com/thumb.jpg"/>
		<meta property="og:description" content="9월 컴백"/>
		<meta property="article:published_time" content="2026-08-21T00:00:00Z"/>
		<meta name="author" content="연예부"/>
	</head><body></body></html>`

	fields, err := parse.New(nil).Parse(articleURL, html)
	require.NoError(t, err)

	assert.Equal(t, "르세라핌 컴백 확정", fields.Title)
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", fields.ThumbnailURL)
	assert.Equal(t, "9월 컴백", fields.Description)
	assert.Equal(t, "연예부", fields.Author)
	require.NotNil(t, fields.PublishedAt)
}

/*
TestParse_ThumbnailRequiresAbsoluteURL verifies relative og:image values are
ignored and twitter:image is the fallback.
*/
func TestParse_ThumbnailRequiresAbsoluteURL(t *testing.T) {
	html := `<head>
		<meta property="og:title" content="t"/>
		<meta property="og:image" content="/relative/thumb.jpg"/>
		<meta name="twitter:image" content="https://cdn.example.com/tw.jpg"/>
	</head>`

	fields, err := parse.New(nil).Parse(articleURL, html)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/tw.jpg", fields.ThumbnailURL)
}

/*
TestParse_SiteSelectors verifies layer 3 selector lookup, including suffix
matching on the hostname.
*/
func TestParse_SiteSelectors(t *testing.T) {
	selectors := map[string]parse.SelectorSet{
		"example.co.kr": {
			Title:  []string{"h1.article-title"},
			Body:   []string{"div.article-body"},
			Author: []string{"span.byline"},
			Date:   []string{"span.date"},
		},
	}
	html := `<html><body>
		<h1 class="article-title">뉴진스 월드투어 발표</h1>
		<div class="article-body">투어 일정이 공개됐다.<script>junk()</script></div>
		<span class="byline">한기자</span>
		<span class="date">2026.08.22 09:00</span>
	</body></html>`

	fields, err := parse.New(selectors).Parse(articleURL, html)
	require.NoError(t, err)

	assert.Equal(t, "뉴진스 월드투어 발표", fields.Title)
	assert.Equal(t, "투어 일정이 공개됐다.", fields.Content)
	assert.Equal(t, "한기자", fields.Author)
	require.NotNil(t, fields.PublishedAt)
	assert.Equal(t, time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC), *fields.PublishedAt)
}

/*
TestParse_GenericFallbacks verifies layer 4: <title> split on separators,
first <article> body, and <time datetime>.
*/
func TestParse_GenericFallbacks(t *testing.T) {
	html := `<html><head><title>에스파 단독 콘서트 | 연예뉴스</title></head><body>
		<article>서울 공연이 매진됐다.<nav>메뉴</nav></article>
		<time datetime="2026-08-23T12:00:00Z">어제</time>
	</body></html>`

	fields, err := parse.New(nil).Parse(articleURL, html)
	require.NoError(t, err)

	assert.Equal(t, "에스파 단독 콘서트", fields.Title)
	assert.Equal(t, "서울 공연이 매진됐다.", fields.Content)
	require.NotNil(t, fields.PublishedAt)
}

/*
TestParse_NoTitle verifies ParseError when no layer recovers a title.
*/
func TestParse_NoTitle(t *testing.T) {
	fields, err := parse.New(nil).Parse(articleURL, `<html><body><p>본문만 있음</p></body></html>`)
	assert.Nil(t, fields)
	var pe *parse.ParseError
	require.ErrorAs(t, err, &pe)
}

/*
TestParse_BoilerplateStripped verifies Korean copyright boilerplate is
removed from the body.
*/
func TestParse_BoilerplateStripped(t *testing.T) {
	html := `<head><title>t</title></head><body>
		<article>기사 본문입니다. 무단 전재 및 재배포 금지.</article>
	</body>`

	fields, err := parse.New(nil).Parse(articleURL, html)
	require.NoError(t, err)
	assert.Equal(t, "기사 본문입니다.", fields.Content)
}

/*
TestParse_InlineImages verifies lazy-load attribute preference, relative
URL rejection, and deduplication.
*/
func TestParse_InlineImages(t *testing.T) {
	html := `<head><title>t</title></head><body><article>
		<img src="https://cdn.example.com/a.jpg" alt="첫번째"/>
		<img src="placeholder.gif" data-src="https://cdn.example.com/b.jpg"/>
		<img src="https://cdn.example.com/a.jpg"/>
		<img src="/relative/only.jpg"/>
	</article></body>`

	fields, err := parse.New(nil).Parse(articleURL, html)
	require.NoError(t, err)

	require.Len(t, fields.Images, 2)
	assert.Equal(t, "https://cdn.example.com/a.jpg", fields.Images[0].URL)
	assert.Equal(t, "첫번째", fields.Images[0].Alt)
	assert.Equal(t, "https://cdn.example.com/b.jpg", fields.Images[1].URL)
}

/*
TestParseDate covers the accepted date formats, Korean forms included.
*/
func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *time.Time
	}{
		{"rfc3339_kst", "2026-08-24T09:00:00+09:00", timePtr(2026, 8, 24, 0, 0, 0)},
		{"dotted_minutes", "2026.08.24 09:30", timePtr(2026, 8, 24, 9, 30, 0)},
		{"korean_form", "2026년 8월 4일", timePtr(2026, 8, 4, 0, 0, 0)},
		{"date_only", "2026-08-24", timePtr(2026, 8, 24, 0, 0, 0)},
		{"trailing_noise", "2026-08-24 발행", timePtr(2026, 8, 24, 0, 0, 0)},
		{"empty", "", nil},
		{"garbage", "곧 공개", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse.ParseDate(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func timePtr(year int, month time.Month, day, hour, minute, second int) *time.Time {
	at := time.Date(year, month, day, hour, minute, second, 0, time.UTC)
	return &at
}
