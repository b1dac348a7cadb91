// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/group"
	"github.com/hyeonlab/kwave/pkg/pointer"
)

/*
TestTierFor maps artist priorities to translation tiers, including the
unknown-artist and NULL-priority defaults.
*/
func TestTierFor(t *testing.T) {
	entries := []artist.RegistryEntry{
		{ID: "a1", NameKO: "아이유", GlobalPriority: pointer.To(1)},
		{ID: "a2", NameKO: "김세정", GlobalPriority: pointer.To(2)},
		{ID: "a3", NameKO: "무명가수", GlobalPriority: pointer.To(3)},
		{ID: "a4", NameKO: "박보검", StageNameKO: pointer.To("보검")},
	}

	tests := []struct {
		name       string
		artistName string
		want       Tier
	}{
		{"priority_one", "아이유", TierFull},
		{"priority_two", "김세정", TierTitleOnly},
		{"priority_three", "무명가수", TierKOOnly},
		{"null_priority_counts_as_one", "박보검", TierFull},
		{"stage_name_matches", "보검", TierFull},
		{"containment_match", "김세정 근황", TierTitleOnly},
		{"unknown_artist", "완전 무명", TierFull},
		{"empty_name", "", TierFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tierFor(tt.artistName, entries))
		})
	}
}

/*
TestTierFor_BestPriorityWins verifies overlapping matches take the smallest
priority.
*/
func TestTierFor_BestPriorityWins(t *testing.T) {
	entries := []artist.RegistryEntry{
		{ID: "a1", NameKO: "지수", GlobalPriority: pointer.To(3)},
		{ID: "a2", NameKO: "김지수", GlobalPriority: pointer.To(1)},
	}

	// "김지수" contains "지수", so both entries match; priority 1 wins.
	assert.Equal(t, TierFull, tierFor("김지수", entries))
}

// # Registry Cache

type countingArtistRegistry struct {
	entries []artist.RegistryEntry
	err     error
	calls   int
}

func (r *countingArtistRegistry) Registry(context.Context) ([]artist.RegistryEntry, error) {
	r.calls++
	return r.entries, r.err
}

type countingGroupRegistry struct {
	entries []group.RegistryEntry
	calls   int
}

func (r *countingGroupRegistry) Registry(context.Context) ([]group.RegistryEntry, error) {
	r.calls++
	return r.entries, nil
}

/*
TestRegistryCache verifies both registries are fetched once inside the TTL
and refetched after invalidation or expiry.
*/
func TestRegistryCache(t *testing.T) {
	artists := &countingArtistRegistry{entries: []artist.RegistryEntry{{ID: "a1", NameKO: "아이유"}}}
	groups := &countingGroupRegistry{entries: []group.RegistryEntry{{ID: "g1", NameKO: "뉴진스"}}}

	cache := newRegistryCache(artists, groups)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	for range 3 {
		artistEntries, groupEntries, err := cache.get(context.Background())
		require.NoError(t, err)
		assert.Len(t, artistEntries, 1)
		assert.Len(t, groupEntries, 1)
	}
	assert.Equal(t, 1, artists.calls)
	assert.Equal(t, 1, groups.calls)

	// Expiry forces a refetch.
	current = current.Add(cache.ttl + time.Second)
	_, _, err := cache.get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, artists.calls)

	// Invalidation forces a refetch regardless of age.
	cache.invalidate()
	_, _, err = cache.get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, artists.calls)
}

/*
TestRegistryCache_FetchError verifies errors propagate without caching.
*/
func TestRegistryCache_FetchError(t *testing.T) {
	artists := &countingArtistRegistry{err: errors.New("db down")}
	cache := newRegistryCache(artists, &countingGroupRegistry{})

	_, _, err := cache.get(context.Background())
	require.Error(t, err)

	artists.err = nil
	_, _, err = cache.get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, artists.calls)
}
