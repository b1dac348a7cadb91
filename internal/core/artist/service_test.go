// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package artist

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/kwave/pkg/pointer"
)

type fakeRepo struct {
	Repository
	created *Artist
}

func (r *fakeRepo) Create(_ context.Context, artist *Artist) error {
	r.created = artist
	return nil
}

func newTestService(repo *fakeRepo) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, nil, logger)
}

/*
TestCreateArtist_SlugDerivation verifies the slug preference order: explicit
input, then English stage name, then English name, then the generated UUID.
*/
func TestCreateArtist_SlugDerivation(t *testing.T) {
	tests := []struct {
		name     string
		input    CreateInput
		wantSlug string
		wantUUID bool
	}{
		{
			name:     "explicit slug wins",
			input:    CreateInput{NameKO: "이지은", Slug: "iu-official", StageNameEN: pointer.To("IU")},
			wantSlug: "iu-official",
		},
		{
			name:     "stage name english",
			input:    CreateInput{NameKO: "이지은", StageNameEN: pointer.To("IU")},
			wantSlug: "iu",
		},
		{
			name:     "name english fallback",
			input:    CreateInput{NameKO: "김채원", NameEN: pointer.To("Kim Chae-won")},
			wantSlug: "kim-chae-won",
		},
		{
			name:     "korean only falls back to id",
			input:    CreateInput{NameKO: "신인"},
			wantUUID: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			created, err := newTestService(repo).CreateArtist(context.Background(), tt.input)
			require.NoError(t, err)
			require.NotNil(t, repo.created)

			if tt.wantUUID {
				assert.Equal(t, created.ID, created.Slug)
			} else {
				assert.Equal(t, tt.wantSlug, created.Slug)
			}
			assert.NotEmpty(t, created.ID)
		})
	}
}

/*
TestCreateArtist_Validation verifies bad input never reaches the repository.
*/
func TestCreateArtist_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateInput
	}{
		{name: "missing name_ko", input: CreateInput{}},
		{name: "malformed slug", input: CreateInput{NameKO: "이지은", Slug: "Not A Slug!"}},
		{name: "unknown gender", input: CreateInput{NameKO: "이지은", Gender: "OTHER"}},
		{name: "priority out of range", input: CreateInput{NameKO: "이지은", GlobalPriority: pointer.To(4)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			_, err := newTestService(repo).CreateArtist(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, repo.created)
		})
	}
}

/*
TestCreateArtist_GenderDefault verifies an empty gender lands as UNKNOWN.
*/
func TestCreateArtist_GenderDefault(t *testing.T) {
	repo := &fakeRepo{}
	created, err := newTestService(repo).CreateArtist(context.Background(), CreateInput{NameKO: "이지은"})
	require.NoError(t, err)
	assert.Equal(t, GenderUnknown, created.Gender)
}
