// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hyeonlab/kwave/internal/core/artist"
	"github.com/hyeonlab/kwave/internal/core/group"
	"github.com/hyeonlab/kwave/internal/platform/constants"
)

// Tier selects how much translation work a prompt requests.
type Tier string

const (
	// TierFull asks for bilingual title, bilingual summary, 5-10 SEO
	// hashtags, and entity detection.
	TierFull Tier = "FULL"
	// TierTitleOnly asks for a bilingual title, a 3-sentence bilingual
	// summary, 5-7 hashtags, and entity detection.
	TierTitleOnly Tier = "TITLE_ONLY"
	// TierKOOnly asks for entity detection only.
	TierKOOnly Tier = "KO_ONLY"
)

// ArtistRegistry supplies the artist projection for tiering and linking.
type ArtistRegistry interface {
	Registry(context context.Context) ([]artist.RegistryEntry, error)
}

// GroupRegistry supplies the group projection for linking.
type GroupRegistry interface {
	Registry(context context.Context) ([]group.RegistryEntry, error)
}

// registryCache holds both entity registries behind one TTL.
type registryCache struct {
	mu        sync.Mutex
	artists   ArtistRegistry
	groups    GroupRegistry
	ttl       time.Duration
	fetchedAt time.Time

	artistEntries []artist.RegistryEntry
	groupEntries  []group.RegistryEntry

	now func() time.Time
}

func newRegistryCache(artists ArtistRegistry, groups GroupRegistry) *registryCache {
	return &registryCache{
		artists: artists,
		groups:  groups,
		ttl:     constants.ArtistCacheTTL,
		now:     time.Now,
	}
}

func (cache *registryCache) get(context context.Context) ([]artist.RegistryEntry, []group.RegistryEntry, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.fetchedAt.IsZero() || cache.now().Sub(cache.fetchedAt) > cache.ttl {
		artistEntries, err := cache.artists.Registry(context)
		if err != nil {
			return nil, nil, err
		}
		groupEntries, err := cache.groups.Registry(context)
		if err != nil {
			return nil, nil, err
		}
		cache.artistEntries = artistEntries
		cache.groupEntries = groupEntries
		cache.fetchedAt = cache.now()
	}

	return cache.artistEntries, cache.groupEntries, nil
}

// invalidate forces a refetch on the next get.
func (cache *registryCache) invalidate() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.fetchedAt = time.Time{}
}

/*
tierFor maps an article's denormalized artist name to a translation tier.

Description: Scans the cached artist registry for entries whose name or
stage name matches (either containment direction) and takes the best
(smallest) global priority among matches. NULL priority counts as 1.
*/
func tierFor(artistNameKO string, entries []artist.RegistryEntry) Tier {
	artistNameKO = strings.TrimSpace(artistNameKO)
	if artistNameKO == "" {
		return TierFull
	}

	best := 0 // 0 means no match yet
	for _, entry := range entries {
		if !nameMatches(artistNameKO, entry) {
			continue
		}
		priority := 1
		if entry.GlobalPriority != nil {
			priority = *entry.GlobalPriority
		}
		if best == 0 || priority < best {
			best = priority
		}
	}

	switch {
	case best <= 1:
		return TierFull
	case best == 2:
		return TierTitleOnly
	default:
		return TierKOOnly
	}
}

func nameMatches(name string, entry artist.RegistryEntry) bool {
	candidates := []string{entry.NameKO}
	if entry.StageNameKO != nil {
		candidates = append(candidates, *entry.StageNameKO)
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if strings.Contains(name, candidate) || strings.Contains(candidate, name) {
			return true
		}
	}
	return false
}
