package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/albapepper/footiq/internal/cache"
	"github.com/albapepper/footiq/internal/diag"
)

// Cached wraps a Source with a TTL cache. Hits carry a USED_CACHED_DATA
// diagnostic. In cache-only mode a miss returns ErrCacheOnly and the inner
// source is never called.
type Cached struct {
	inner     Source
	cache     *cache.Cache
	ttl       time.Duration
	cacheOnly bool
}

// NewCached wraps inner. A nil or disabled cache passes every call through.
func NewCached(inner Source, c *cache.Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = cache.TTLProvider
	}
	return &Cached{inner: inner, cache: c, ttl: ttl}
}

// CacheOnly returns a view of c that never calls the inner source.
func (c *Cached) CacheOnly() *Cached {
	cp := *c
	cp.cacheOnly = true
	return &cp
}

func (c *Cached) Search(ctx context.Context, query string) ([]Candidate, Meta, error) {
	key := "search_entity:" + strings.TrimSpace(strings.ToLower(query))
	var out []Candidate
	meta, err := c.fetch(key, &out, func() (any, Meta, error) {
		return c.inner.Search(ctx, query)
	})
	return out, meta, err
}

func (c *Cached) Games(ctx context.Context, athleteID, lastN int) ([]Game, Meta, error) {
	key := fmt.Sprintf("athlete_games:%d:last%d", athleteID, lastN)
	var out []Game
	meta, err := c.fetch(key, &out, func() (any, Meta, error) {
		return c.inner.Games(ctx, athleteID, lastN)
	})
	return out, meta, err
}

func (c *Cached) Lineup(ctx context.Context, athleteID, gameID int) (*Lineup, Meta, error) {
	key := fmt.Sprintf("lineup:%d:%d", athleteID, gameID)
	var out Lineup
	meta, err := c.fetch(key, &out, func() (any, Meta, error) {
		return c.inner.Lineup(ctx, athleteID, gameID)
	})
	if err != nil {
		return nil, meta, err
	}
	return &out, meta, nil
}

// fetch serves key from the cache into dst, or calls load and stores its
// result.
func (c *Cached) fetch(key string, dst any, load func() (any, Meta, error)) (Meta, error) {
	if c.cache != nil {
		if data, _, ttl, ok := c.cache.GetTTL(key); ok {
			if err := json.Unmarshal(data, dst); err == nil {
				secs := int(ttl / time.Second)
				return Meta{
					CacheHit: true,
					TTLLeft:  ttl,
					Diagnostics: []diag.Diagnostic{diag.New(diag.UsedCachedData,
						map[string]any{"ttl_remaining_s": secs, "cache_key": key},
						"Using cached data for %s.", key)},
				}, nil
			}
		}
	}

	if c.cacheOnly {
		return Meta{}, ErrCacheOnly
	}

	v, meta, err := load()
	if err != nil {
		return meta, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return meta, fmt.Errorf("encode %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return meta, fmt.Errorf("decode %s: %w", key, err)
	}
	if c.cache != nil {
		c.cache.Set(key, data, c.ttl)
	}
	return meta, nil
}
