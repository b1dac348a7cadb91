// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package enrich fills never-enriched entity profiles from a public
reference corpus plus model knowledge.

The model must return a verified_match boolean; when false, every other
field is required to be null. This guards against cross-identity
contamination between similarly named performers, which matters a lot in
a namespace as crowded as K-pop stage names.
*/
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/hyeonlab/kwave/internal/ai/llm"
	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/group"
)

// ModelCaller is the LLM surface for extraction prompts.
type ModelCaller interface {
	GenerateJSON(context context.Context, model, prompt string) (string, *llm.Usage, error)
}

// ReferenceFetcher retrieves a short introduction for a name from a public
// corpus. Failures are non-fatal; the enricher falls back to model
// knowledge.
type ReferenceFetcher interface {
	Summary(context context.Context, title string) (string, error)
}

// ArtistStore is the artist repository slice the enricher drives.
type ArtistStore interface {
	ListUnenriched(context context.Context, limit int) ([]*artist.Artist, error)
	ApplyEnrichment(context context.Context, id string, patch artist.EnrichmentPatch, overwriteBio bool) error
	ResetSparseEnrichment(context context.Context, limit int) (int, error)
}

// GroupStore is the group repository slice the enricher drives.
type GroupStore interface {
	ListUnenriched(context context.Context, limit int) ([]*group.Group, error)
	ApplyEnrichment(context context.Context, id string, patch group.EnrichmentPatch, overwriteBio bool) error
	ResetSparseEnrichment(context context.Context, limit int) (int, error)
}

// Enricher runs profile enrichment over both entity registries.
type Enricher struct {
	artists   ArtistStore
	groups    GroupStore
	reference ReferenceFetcher
	model     ModelCaller
	modelID   string
	logger    *slog.Logger
}

// New constructs an [Enricher]. reference may be nil to rely on model
// knowledge alone.
func New(artists ArtistStore, groups GroupStore, reference ReferenceFetcher, model ModelCaller, modelID string, logger *slog.Logger) *Enricher {
	return &Enricher{
		artists:   artists,
		groups:    groups,
		reference: reference,
		model:     model,
		modelID:   modelID,
		logger:    logger,
	}
}

// # Artist Enrichment

type artistFacts struct {
	VerifiedMatch bool     `json:"verified_match"`
	NameEN        *string  `json:"name_en"`
	StageNameEN   *string  `json:"stage_name_en"`
	Gender        *string  `json:"gender"`
	BirthDate     *string  `json:"birth_date"` // YYYY-MM-DD
	NationalityKO *string  `json:"nationality_ko"`
	NationalityEN *string  `json:"nationality_en"`
	MBTI          *string  `json:"mbti"`
	BloodType     *string  `json:"blood_type"`
	HeightCM      *float64 `json:"height_cm"`
	WeightKG      *float64 `json:"weight_kg"`
	BioKO         *string  `json:"bio_ko"`
	BioEN         *string  `json:"bio_en"`
}

/*
EnrichArtists processes up to limit never-enriched artists in priority
order. Per-artist failures are logged and skipped.

Returns:
  - int: Number of artists stamped enriched
*/
func (enricher *Enricher) EnrichArtists(context context.Context, limit int) (int, error) {
	return enricher.enrichArtists(context, limit, false)
}

// enrichArtistsOverwriting is the sparse-sweep variant; only bio fields may
// be overwritten.
func (enricher *Enricher) enrichArtistsOverwriting(context context.Context, limit int) (int, error) {
	return enricher.enrichArtists(context, limit, true)
}

func (enricher *Enricher) enrichArtists(context context.Context, limit int, overwriteBio bool) (int, error) {
	artists, err := enricher.artists.ListUnenriched(context, limit)
	if err != nil {
		return 0, err
	}

	enriched := 0
	for _, profile := range artists {
		names := []string{profile.NameKO}
		if profile.StageNameKO != nil && *profile.StageNameKO != profile.NameKO {
			names = append(names, *profile.StageNameKO)
		}
		reference := enricher.lookupReference(context, names)

		prompt := artistPrompt(profile.NameKO, reference)
		raw, _, err := enricher.model.GenerateJSON(context, enricher.modelID, prompt)
		if err != nil {
			if llm.IsKillSwitch(err) {
				return enriched, err
			}
			enricher.logger.Warn("artist enrichment call failed",
				slog.String("artist_id", profile.ID),
				slog.String("error", err.Error()))
			continue
		}

		var facts artistFacts
		if err := json.Unmarshal([]byte(raw), &facts); err != nil {
			enricher.logger.Warn("artist enrichment JSON malformed", slog.String("artist_id", profile.ID))
			continue
		}

		patch := artist.EnrichmentPatch{}
		if facts.VerifiedMatch {
			patch = artist.EnrichmentPatch{
				NameEN:        facts.NameEN,
				StageNameEN:   facts.StageNameEN,
				Gender:        parseGender(facts.Gender),
				BirthDate:     parseISODate(facts.BirthDate),
				NationalityKO: facts.NationalityKO,
				NationalityEN: facts.NationalityEN,
				MBTI:          normalizeMBTI(facts.MBTI),
				BloodType:     facts.BloodType,
				HeightCM:      facts.HeightCM,
				WeightKG:      facts.WeightKG,
				BioKO:         facts.BioKO,
				BioEN:         facts.BioEN,
			}
		}

		// enriched_at is stamped even for an empty patch so the same
		// profile is not retried every sweep.
		if err := enricher.artists.ApplyEnrichment(context, profile.ID, patch, overwriteBio); err != nil {
			enricher.logger.Warn("artist enrichment write failed",
				slog.String("artist_id", profile.ID),
				slog.String("error", err.Error()))
			continue
		}
		enriched++
	}

	return enriched, nil
}

// # Group Enrichment

type groupFacts struct {
	VerifiedMatch bool    `json:"verified_match"`
	NameEN        *string `json:"name_en"`
	DebutDate     *string `json:"debut_date"`
	AgencyKO      *string `json:"agency_ko"`
	AgencyEN      *string `json:"agency_en"`
	FandomNameKO  *string `json:"fandom_name_ko"`
	FandomNameEN  *string `json:"fandom_name_en"`
	BioKO         *string `json:"bio_ko"`
	BioEN         *string `json:"bio_en"`
}

/*
EnrichGroups processes up to limit never-enriched groups in priority order.
*/
func (enricher *Enricher) EnrichGroups(context context.Context, limit int) (int, error) {
	return enricher.enrichGroups(context, limit, false)
}

// enrichGroupsOverwriting is the sparse-sweep variant; only bio fields may
// be overwritten.
func (enricher *Enricher) enrichGroupsOverwriting(context context.Context, limit int) (int, error) {
	return enricher.enrichGroups(context, limit, true)
}

func (enricher *Enricher) enrichGroups(context context.Context, limit int, overwriteBio bool) (int, error) {
	groups, err := enricher.groups.ListUnenriched(context, limit)
	if err != nil {
		return 0, err
	}

	enriched := 0
	for _, profile := range groups {
		names := []string{profile.NameKO}
		if profile.NameEN != nil && *profile.NameEN != "" {
			names = append(names, *profile.NameEN)
		}
		reference := enricher.lookupReference(context, names)

		prompt := groupPrompt(profile.NameKO, reference)
		raw, _, err := enricher.model.GenerateJSON(context, enricher.modelID, prompt)
		if err != nil {
			if llm.IsKillSwitch(err) {
				return enriched, err
			}
			enricher.logger.Warn("group enrichment call failed",
				slog.String("group_id", profile.ID),
				slog.String("error", err.Error()))
			continue
		}

		var facts groupFacts
		if err := json.Unmarshal([]byte(raw), &facts); err != nil {
			enricher.logger.Warn("group enrichment JSON malformed", slog.String("group_id", profile.ID))
			continue
		}

		patch := group.EnrichmentPatch{}
		if facts.VerifiedMatch {
			patch = group.EnrichmentPatch{
				NameEN:       facts.NameEN,
				DebutDate:    parseISODate(facts.DebutDate),
				AgencyKO:     facts.AgencyKO,
				AgencyEN:     facts.AgencyEN,
				FandomNameKO: facts.FandomNameKO,
				FandomNameEN: facts.FandomNameEN,
				BioKO:        facts.BioKO,
				BioEN:        facts.BioEN,
			}
		}

		if err := enricher.groups.ApplyEnrichment(context, profile.ID, patch, overwriteBio); err != nil {
			enricher.logger.Warn("group enrichment write failed",
				slog.String("group_id", profile.ID),
				slog.String("error", err.Error()))
			continue
		}
		enriched++
	}

	return enriched, nil
}

// # Sparse Re-Enrichment

/*
ReEnrichSparse resets enriched_at on entities whose critical fields stayed
empty, then re-runs enrichment with bio overwriting enabled.

Returns:
  - int: Number of entities re-enriched
*/
func (enricher *Enricher) ReEnrichSparse(context context.Context, limit int) (int, error) {
	resetArtists, err := enricher.artists.ResetSparseEnrichment(context, limit)
	if err != nil {
		return 0, err
	}
	resetGroups, err := enricher.groups.ResetSparseEnrichment(context, limit)
	if err != nil {
		return 0, err
	}
	enricher.logger.Info("sparse enrichment reset",
		slog.Int("artists", resetArtists),
		slog.Int("groups", resetGroups))

	total := 0
	if resetArtists > 0 {
		count, err := enricher.enrichArtistsOverwriting(context, resetArtists)
		if err != nil {
			return total, err
		}
		total += count
	}
	if resetGroups > 0 {
		count, err := enricher.enrichGroupsOverwriting(context, resetGroups)
		if err != nil {
			return total, err
		}
		total += count
	}
	return total, nil
}

// lookupReference tries each name against the reference corpus and returns
// the first non-empty summary. All failures degrade to "".
func (enricher *Enricher) lookupReference(context context.Context, names []string) string {
	if enricher.reference == nil {
		return ""
	}
	for _, name := range names {
		summary, err := enricher.reference.Summary(context, name)
		if err == nil && summary != "" {
			return summary
		}
	}
	return ""
}

// # Prompts

func artistPrompt(nameKO, reference string) string {
	return entityPrompt("K-pop 솔로 아티스트", nameKO, reference, `{"verified_match": bool, "name_en": string?, "stage_name_en": string?, "gender": "MALE"|"FEMALE"|"MIXED"?, "birth_date": "YYYY-MM-DD"?, "nationality_ko": string?, "nationality_en": string?, "mbti": string?, "blood_type": string?, "height_cm": number?, "weight_kg": number?, "bio_ko": string?, "bio_en": string?}`)
}

func groupPrompt(nameKO, reference string) string {
	return entityPrompt("K-pop 그룹", nameKO, reference, `{"verified_match": bool, "name_en": string?, "debut_date": "YYYY-MM-DD"?, "agency_ko": string?, "agency_en": string?, "fandom_name_ko": string?, "fandom_name_en": string?, "bio_ko": string?, "bio_en": string?}`)
}

func entityPrompt(kind, nameKO, reference, schema string) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "'%s'라는 이름의 %s 프로필 정보를 JSON으로만 답하세요.\n", nameKO, kind)
	builder.WriteString("반드시 동일 인물/그룹임이 확실할 때만 verified_match를 true로 하세요.\n")
	builder.WriteString("verified_match가 false이면 다른 모든 필드는 null이어야 합니다. 동명이인의 정보를 섞지 마세요.\n")
	builder.WriteString("스키마: " + schema + "\n")
	if reference != "" {
		builder.WriteString("\n# 참고 자료\n" + reference + "\n")
	}
	return builder.String()
}

// # Field Normalization

func parseGender(raw *string) *artist.Gender {
	if raw == nil {
		return nil
	}
	switch strings.ToUpper(strings.TrimSpace(*raw)) {
	case "MALE":
		gender := artist.GenderMale
		return &gender
	case "FEMALE":
		gender := artist.GenderFemale
		return &gender
	case "MIXED":
		gender := artist.GenderMixed
		return &gender
	}
	return nil
}

func parseISODate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	at, err := time.Parse("2006-01-02", strings.TrimSpace(*raw))
	if err != nil {
		return nil
	}
	utc := at.UTC()
	return &utc
}

// normalizeMBTI keeps only well-formed four-letter codes.
func normalizeMBTI(raw *string) *string {
	if raw == nil {
		return nil
	}
	code := strings.ToUpper(strings.TrimSpace(*raw))
	if len(code) != 4 {
		return nil
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return nil
		}
	}
	return &code
}

// # Reference Corpus Client

// WikipediaFetcher reads page summaries from the Korean Wikipedia REST API.
type WikipediaFetcher struct {
	fetch func(url string) ([]byte, error)
}

// NewWikipediaFetcher constructs a [WikipediaFetcher] over the polite
// HTTP client so reference lookups obey the same throttling as scraping.
func NewWikipediaFetcher(fetch func(url string) ([]byte, error)) *WikipediaFetcher {
	return &WikipediaFetcher{fetch: fetch}
}

func (fetcher *WikipediaFetcher) Summary(_ context.Context, title string) (string, error) {
	body, err := fetcher.fetch("https://ko.wikipedia.org/api/rest_v1/page/summary/" + url.PathEscape(title))
	if err != nil {
		return "", err
	}

	var payload struct {
		Extract string `json:"extract"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.Extract), nil
}
