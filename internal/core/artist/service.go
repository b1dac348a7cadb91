// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package artist

import (
	"context"
	"log/slog"

	"github.com/hyeonlab/kwave/internal/platform/apperr"
	"github.com/hyeonlab/kwave/internal/platform/validate"
	"github.com/hyeonlab/kwave/pkg/pointer"
	"github.com/hyeonlab/kwave/pkg/slug"
	"github.com/hyeonlab/kwave/pkg/uuidv7"
)

// ThumbnailSource supplies a representative photo for an artist from the
// article archive. Satisfied by the article repository.
type ThumbnailSource interface {
	LatestThumbnailForArtistName(context context.Context, nameKO, artistID string) (*string, error)
}

// Detail is the public projection of an artist, augmented with a photo
// composed from the newest thumbnail among the artist's articles.
type Detail struct {
	*Artist
	PhotoURL   *string      `json:"photo_url,omitempty"`
	SNS        []*SNS       `json:"sns,omitempty"`
	Educations []*Education `json:"educations,omitempty"`
}

// # Service Layer

// Service orchestrates read-side business rules for artist profiles.
type Service struct {
	repo       Repository
	thumbnails ThumbnailSource
	logger     *slog.Logger
}

// NewService constructs a new artist [Service].
func NewService(repo Repository, thumbnails ThumbnailSource, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		thumbnails: thumbnails,
		logger:     logger,
	}
}

/*
ListArtists retrieves a paginated, filtered list of artists.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit, offset: int

Returns:
  - []*Artist: Matching artists
  - int: Total matching count
  - error: Retrieval errors
*/
func (service *Service) ListArtists(context context.Context, filter Filter, limit, offset int) ([]*Artist, int, error) {
	return service.repo.List(context, filter, limit, offset)
}

/*
GetArtist retrieves one artist by UUID or slug, with side tables and a
best-effort photo URL.

Description: The identifier is tried as a slug first (human URLs dominate
public traffic), then as a UUID. Photo lookup failures degrade to a nil
photo rather than failing the profile.

Returns:
  - *Detail: Hydrated profile
  - error: ErrNotFound when neither lookup matches
*/
func (service *Service) GetArtist(context context.Context, identifier string) (*Detail, error) {
	foundArtist, err := service.repo.FindBySlug(context, identifier)
	if err != nil {
		if !apperr.IsNotFound(err) {
			return nil, err
		}
		foundArtist, err = service.repo.FindByID(context, identifier)
		if err != nil {
			return nil, err
		}
	}

	detail := &Detail{Artist: foundArtist}

	if photo, err := service.thumbnails.LatestThumbnailForArtistName(context, foundArtist.NameKO, foundArtist.ID); err != nil {
		service.logger.Warn("artist photo lookup failed",
			slog.String("artist_id", foundArtist.ID),
			slog.String("error", err.Error()))
	} else {
		detail.PhotoURL = photo
	}

	if detail.SNS, err = service.repo.ListSNS(context, foundArtist.ID); err != nil {
		return nil, err
	}
	if detail.Educations, err = service.repo.ListEducations(context, foundArtist.ID); err != nil {
		return nil, err
	}

	return detail, nil
}

// CreateInput carries the operator-supplied fields for a new artist.
type CreateInput struct {
	Slug           string  `json:"slug"` // optional; derived from names when empty
	NameKO         string  `json:"name_ko"`
	NameEN         *string `json:"name_en"`
	StageNameKO    *string `json:"stage_name_ko"`
	StageNameEN    *string `json:"stage_name_en"`
	Gender         Gender  `json:"gender"`
	GlobalPriority *int    `json:"global_priority"`
}

/*
CreateArtist registers a new artist in the entity registry.

Description: The slug is taken from the input when provided, otherwise
derived from the English stage name or name. Korean-only profiles with no
derivable slug fall back to the generated UUID.

Returns:
  - *Artist: The persisted entity
  - error: ErrValidation on bad input, ErrConflict on a duplicate slug
*/
func (service *Service) CreateArtist(context context.Context, input CreateInput) (*Artist, error) {
	v := &validate.Validator{}
	v.Required("name_ko", input.NameKO)
	v.MaxLen("name_ko", input.NameKO, 100)
	if input.Slug != "" {
		v.Slug("slug", input.Slug)
	}
	if input.Gender == "" {
		input.Gender = GenderUnknown
	}
	v.OneOf("gender", string(input.Gender),
		string(GenderMale), string(GenderFemale), string(GenderMixed), string(GenderUnknown))
	if input.GlobalPriority != nil {
		v.Range("global_priority", *input.GlobalPriority, 1, 3)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	newArtist := &Artist{
		ID:             uuidv7.New(),
		Slug:           input.Slug,
		NameKO:         input.NameKO,
		NameEN:         input.NameEN,
		StageNameKO:    input.StageNameKO,
		StageNameEN:    input.StageNameEN,
		Gender:         input.Gender,
		GlobalPriority: input.GlobalPriority,
	}
	if newArtist.Slug == "" {
		newArtist.Slug = slug.From(pointer.Val(input.StageNameEN))
	}
	if newArtist.Slug == "" {
		newArtist.Slug = slug.From(pointer.Val(input.NameEN))
	}
	if newArtist.Slug == "" {
		newArtist.Slug = newArtist.ID
	}

	if err := service.repo.Create(context, newArtist); err != nil {
		return nil, err
	}

	service.logger.Info("artist created",
		slog.String("artist_id", newArtist.ID),
		slog.String("slug", newArtist.Slug))
	return newArtist, nil
}
