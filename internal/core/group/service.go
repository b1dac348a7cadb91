// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package group

import (
	"context"
	"log/slog"

	"github.com/hyeonlab/kwave/internal/platform/apperr"
	"github.com/hyeonlab/kwave/internal/platform/validate"
	"github.com/hyeonlab/kwave/pkg/pointer"
	"github.com/hyeonlab/kwave/pkg/slug"
	"github.com/hyeonlab/kwave/pkg/uuidv7"
)

// Detail is the public projection of a group, including the sorted member
// list and social accounts.
type Detail struct {
	*Group
	Members []*Member `json:"members"`
	SNS     []*SNS    `json:"sns,omitempty"`
}

// # Service Layer

// Service orchestrates read-side business rules for group profiles.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a new group [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

/*
ListGroups retrieves a paginated, filtered list of groups.

Returns:
  - []*Group: Matching groups
  - int: Total matching count
  - error: Retrieval errors
*/
func (service *Service) ListGroups(context context.Context, filter Filter, limit, offset int) ([]*Group, int, error) {
	return service.repo.List(context, filter, limit, offset)
}

/*
GetGroup retrieves one group by UUID or slug, with its member roster.

Description: The identifier is tried as a slug first, then as a UUID. The
member list arrives pre-sorted: active members first, then by join date.

Returns:
  - *Detail: Hydrated profile with members
  - error: ErrNotFound when neither lookup matches
*/
func (service *Service) GetGroup(context context.Context, identifier string) (*Detail, error) {
	foundGroup, err := service.repo.FindBySlug(context, identifier)
	if err != nil {
		if !apperr.IsNotFound(err) {
			return nil, err
		}
		foundGroup, err = service.repo.FindByID(context, identifier)
		if err != nil {
			return nil, err
		}
	}

	detail := &Detail{Group: foundGroup}

	if detail.Members, err = service.repo.ListMembers(context, foundGroup.ID); err != nil {
		return nil, err
	}
	if detail.SNS, err = service.repo.ListSNS(context, foundGroup.ID); err != nil {
		return nil, err
	}

	return detail, nil
}

// CreateInput carries the operator-supplied fields for a new group.
type CreateInput struct {
	Slug           string         `json:"slug"` // optional; derived from name_en when empty
	NameKO         string         `json:"name_ko"`
	NameEN         *string        `json:"name_en"`
	AgencyKO       *string        `json:"agency_ko"`
	FandomNameKO   *string        `json:"fandom_name_ko"`
	ActivityStatus ActivityStatus `json:"activity_status"`
	GlobalPriority *int           `json:"global_priority"`
}

/*
CreateGroup registers a new group in the entity registry.

Description: The slug is taken from the input when provided, otherwise
derived from the English name; Korean-only names fall back to the
generated UUID.

Returns:
  - *Group: The persisted entity
  - error: ErrValidation on bad input, ErrConflict on a duplicate slug
*/
func (service *Service) CreateGroup(context context.Context, input CreateInput) (*Group, error) {
	v := &validate.Validator{}
	v.Required("name_ko", input.NameKO)
	v.MaxLen("name_ko", input.NameKO, 100)
	if input.Slug != "" {
		v.Slug("slug", input.Slug)
	}
	if input.ActivityStatus == "" {
		input.ActivityStatus = StatusActive
	}
	v.OneOf("activity_status", string(input.ActivityStatus),
		string(StatusActive), string(StatusHiatus), string(StatusDisbanded), string(StatusSoloOnly))
	if input.GlobalPriority != nil {
		v.Range("global_priority", *input.GlobalPriority, 1, 3)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	newGroup := &Group{
		ID:             uuidv7.New(),
		Slug:           input.Slug,
		NameKO:         input.NameKO,
		NameEN:         input.NameEN,
		AgencyKO:       input.AgencyKO,
		FandomNameKO:   input.FandomNameKO,
		ActivityStatus: input.ActivityStatus,
		GlobalPriority: input.GlobalPriority,
	}
	if newGroup.Slug == "" {
		newGroup.Slug = slug.From(pointer.Val(input.NameEN))
	}
	if newGroup.Slug == "" {
		newGroup.Slug = newGroup.ID
	}

	if err := service.repo.Create(context, newGroup); err != nil {
		return nil, err
	}

	service.logger.Info("group created",
		slog.String("group_id", newGroup.ID),
		slog.String("slug", newGroup.Slug))
	return newGroup, nil
}
