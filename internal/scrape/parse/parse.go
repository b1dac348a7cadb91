// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package parse extracts structured article fields from raw news HTML.

Extraction is layered; each later source fills only fields the earlier
sources left empty:

 1. JSON-LD blocks with @type Article/NewsArticle.
 2. OpenGraph and Twitter Card meta tags.
 3. Site-specific CSS selector lists.
 4. Generic fallbacks (document title, first <article>, <time datetime>).

The representative thumbnail comes only from OG/Twitter meta. Inline images
are enumerated separately for the image pipeline and never promoted.
*/
package parse

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// # Errors

// ParseError reports HTML from which no title could be recovered.
type ParseError struct {
	URL string
}

func (e *ParseError) Error() string {
	return "parse: no title recovered from " + e.URL
}

// # Result

// InlineImage is one body image candidate.
type InlineImage struct {
	URL string
	Alt string
}

// Fields is the parser output for one article page.
type Fields struct {
	Title        string
	Content      string
	Author       string
	PublishedAt  *time.Time
	ThumbnailURL string
	Description  string
	Images       []InlineImage
}

// SelectorSet is a site-specific ordered list of CSS selectors per field.
type SelectorSet struct {
	Title  []string
	Body   []string
	Author []string
	Date   []string
}

// Parser extracts article fields, optionally using per-site selectors.
type Parser struct {
	selectors map[string]SelectorSet // keyed by hostname suffix
}

// New constructs a [Parser]. The selector map may be nil.
func New(selectors map[string]SelectorSet) *Parser {
	if selectors == nil {
		selectors = map[string]SelectorSet{}
	}
	return &Parser{selectors: selectors}
}

/*
Parse extracts structured fields from the page.

Parameters:
  - url: string (used for selector lookup and error reporting)
  - rawHTML: string

Returns:
  - *Fields: Extracted fields, title guaranteed non-empty
  - error: ParseError when no layer recovers a title
*/
func (parser *Parser) Parse(url, rawHTML string) (*Fields, error) {
	document, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, &ParseError{URL: url}
	}

	fields := &Fields{}

	// ── 1. Structured data ────────────────────────────────────────────
	parser.applyJSONLD(document, fields)

	// ── 2. OG / Twitter Card meta ─────────────────────────────────────
	parser.applyMeta(document, fields)

	// ── 3. Site-specific selectors ────────────────────────────────────
	parser.applySelectors(document, url, fields)

	// Inline images and body cleanup mutate the DOM, so collect first.
	fields.Images = collectImages(document)

	// ── 4. Generic fallbacks ──────────────────────────────────────────
	parser.applyGeneric(document, fields)

	if strings.TrimSpace(fields.Title) == "" {
		return nil, &ParseError{URL: url}
	}

	fields.Title = collapseWhitespace(fields.Title)
	fields.Content = stripBoilerplate(collapseWhitespace(fields.Content))
	fields.Author = collapseWhitespace(fields.Author)
	return fields, nil
}

// # Layer 1: JSON-LD

type jsonLDDocument struct {
	Type          any             `json:"@type"`
	Headline      string          `json:"headline"`
	Name          string          `json:"name"`
	ArticleBody   string          `json:"articleBody"`
	Author        json.RawMessage `json:"author"`
	DatePublished string          `json:"datePublished"`
	DateCreated   string          `json:"dateCreated"`
}

func (parser *Parser) applyJSONLD(document *goquery.Document, fields *Fields) {
	document.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, node *goquery.Selection) bool {
		var ld jsonLDDocument
		if err := json.Unmarshal([]byte(node.Text()), &ld); err != nil {
			return true
		}
		if !isArticleType(ld.Type) {
			return true
		}

		if fields.Title == "" {
			if ld.Headline != "" {
				fields.Title = ld.Headline
			} else {
				fields.Title = ld.Name
			}
		}
		if fields.Content == "" {
			fields.Content = ld.ArticleBody
		}
		if fields.Author == "" {
			fields.Author = jsonLDAuthor(ld.Author)
		}
		if fields.PublishedAt == nil {
			if at := ParseDate(ld.DatePublished); at != nil {
				fields.PublishedAt = at
			} else {
				fields.PublishedAt = ParseDate(ld.DateCreated)
			}
		}
		return false
	})
}

func isArticleType(raw any) bool {
	switch value := raw.(type) {
	case string:
		lowered := strings.ToLower(value)
		return lowered == "article" || lowered == "newsarticle"
	case []any:
		for _, entry := range value {
			if isArticleType(entry) {
				return true
			}
		}
	}
	return false
}

// jsonLDAuthor handles author as an object, a list of objects, or a string.
func jsonLDAuthor(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if json.Unmarshal(raw, &asString) == nil {
		return asString
	}

	var asObject struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &asObject) == nil && asObject.Name != "" {
		return asObject.Name
	}

	var asList []struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &asList) == nil && len(asList) > 0 {
		return asList[0].Name
	}
	return ""
}

// # Layer 2: Meta Tags

func (parser *Parser) applyMeta(document *goquery.Document, fields *Fields) {
	meta := func(attribute, name string) string {
		value, _ := document.Find(`meta[` + attribute + `="` + name + `"]`).First().Attr("content")
		return strings.TrimSpace(value)
	}

	if fields.Title == "" {
		fields.Title = meta("property", "og:title")
	}
	if fields.ThumbnailURL == "" {
		if image := meta("property", "og:image"); isAbsoluteHTTP(image) {
			fields.ThumbnailURL = image
		} else if image := meta("name", "twitter:image"); isAbsoluteHTTP(image) {
			fields.ThumbnailURL = image
		}
	}
	if fields.Description == "" {
		fields.Description = meta("property", "og:description")
	}
	if fields.PublishedAt == nil {
		fields.PublishedAt = ParseDate(meta("property", "article:published_time"))
	}
	if fields.Author == "" {
		fields.Author = meta("name", "author")
	}
}

// # Layer 3: Site Selectors

func (parser *Parser) applySelectors(document *goquery.Document, url string, fields *Fields) {
	selectorSet, ok := parser.selectorsFor(url)
	if !ok {
		return
	}

	firstText := func(selectors []string) string {
		for _, selector := range selectors {
			if text := strings.TrimSpace(document.Find(selector).First().Text()); text != "" {
				return text
			}
		}
		return ""
	}

	if fields.Title == "" {
		fields.Title = firstText(selectorSet.Title)
	}
	if fields.Content == "" {
		for _, selector := range selectorSet.Body {
			node := document.Find(selector).First()
			if node.Length() == 0 {
				continue
			}
			if text := cleanBodyText(node); text != "" {
				fields.Content = text
				break
			}
		}
	}
	if fields.Author == "" {
		fields.Author = firstText(selectorSet.Author)
	}
	if fields.PublishedAt == nil {
		fields.PublishedAt = ParseDate(firstText(selectorSet.Date))
	}
}

func (parser *Parser) selectorsFor(rawURL string) (SelectorSet, bool) {
	host := hostnameOf(rawURL)
	if selectorSet, ok := parser.selectors[host]; ok {
		return selectorSet, true
	}
	for suffix, selectorSet := range parser.selectors {
		if strings.HasSuffix(host, "."+suffix) {
			return selectorSet, true
		}
	}
	return SelectorSet{}, false
}

// # Layer 4: Generic Fallbacks

var titleSplitter = regexp.MustCompile(`[|·—]`)

func (parser *Parser) applyGeneric(document *goquery.Document, fields *Fields) {
	if fields.Title == "" {
		raw := strings.TrimSpace(document.Find("title").First().Text())
		if raw != "" {
			fields.Title = strings.TrimSpace(titleSplitter.Split(raw, 2)[0])
		}
	}
	if fields.Content == "" {
		if node := document.Find("article").First(); node.Length() > 0 {
			fields.Content = cleanBodyText(node)
		}
	}
	if fields.PublishedAt == nil {
		if datetime, ok := document.Find("time[datetime]").First().Attr("datetime"); ok {
			fields.PublishedAt = ParseDate(datetime)
		}
	}
}

// # Body Cleaning

// mediaTags and noiseTags are removed from body candidates after meta and
// image collection already happened.
var (
	mediaTags = []string{"img", "figure", "picture", "video", "audio", "source", "iframe", "embed", "canvas", "svg"}
	noiseTags = []string{"script", "style", "nav", "header", "footer", "aside", "form", "button", "input", "noscript", "ins"}
)

func cleanBodyText(node *goquery.Selection) string {
	clone := node.Clone()
	clone.Find(strings.Join(append(mediaTags, noiseTags...), ", ")).Remove()
	return strings.TrimSpace(clone.Text())
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// boilerplatePatterns are Korean news-wire suffixes stripped from bodies.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`무단\s*전재\s*및\s*재배포\s*금지\.?`),
	regexp.MustCompile(`(?i)copyrights?\s*[ⓒ©(c)].*?(reserved\.?|금지\.?)`),
	regexp.MustCompile(`저작권자\s*[ⓒ©].*?(무단전재.*?금지|reserved)\.?`),
	regexp.MustCompile(`\[\S+\s*기자\]\s*$`),
}

func stripBoilerplate(text string) string {
	for _, pattern := range boilerplatePatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// # Inline Images

// imageAttributes in preference order. Lazy-loading sites park the real URL
// in a data attribute and leave src pointing at a placeholder.
var imageAttributes = []string{"src", "data-src", "data-lazy-src", "data-original"}

func collectImages(document *goquery.Document) []InlineImage {
	var images []InlineImage
	seen := map[string]bool{}

	document.Find("img").Each(func(_ int, node *goquery.Selection) {
		var url string
		for _, attribute := range imageAttributes {
			if value, ok := node.Attr(attribute); ok && isAbsoluteHTTP(value) {
				url = strings.TrimSpace(value)
				break
			}
		}
		if url == "" || seen[url] {
			return
		}
		seen[url] = true

		alt, _ := node.Attr("alt")
		images = append(images, InlineImage{URL: url, Alt: strings.TrimSpace(alt)})
	})

	return images
}

func isAbsoluteHTTP(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func hostnameOf(rawURL string) string {
	trimmed := rawURL
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	if idx := strings.IndexAny(trimmed, "/?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if idx := strings.Index(trimmed, ":"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.ToLower(trimmed)
}
