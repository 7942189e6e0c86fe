// Package cache holds encoded provider payloads and the metric catalogue
// in memory. Entries carry a weak ETag so /metrics/definitions can answer
// conditional requests without re-encoding.
package cache

import (
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// TTLDefinitions covers the metric catalogue, which is fixed at build time.
	TTLDefinitions = 24 * time.Hour
	// TTLProvider covers athlete_games, lineup and search_entity payloads.
	TTLProvider = 30 * time.Minute

	sweepInterval = 5 * time.Minute
)

type entry struct {
	data      []byte
	etag      string
	expiresAt time.Time
}

func (e entry) live(now time.Time) bool { return now.Before(e.expiresAt) }

// Cache maps keys such as "athlete_games:934235:last10" to encoded payloads.
// A disabled Cache still computes ETags but never stores.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool
	now     func() time.Time
}

// New returns a Cache and, when enabled, starts its expiry sweep.
func New(enabled bool) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		enabled: enabled,
		now:     time.Now,
	}
	if enabled {
		go c.sweepLoop()
	}
	return c
}

func (c *Cache) Enabled() bool { return c.enabled }

func (c *Cache) Get(key string) (data []byte, etag string, ok bool) {
	data, etag, _, ok = c.GetTTL(key)
	return data, etag, ok
}

// GetTTL also reports the remaining lifetime, which cached provider reads
// surface as USED_CACHED_DATA{ttl_remaining_s}.
func (c *Cache) GetTTL(key string) (data []byte, etag string, ttlLeft time.Duration, ok bool) {
	if !c.enabled {
		return nil, "", 0, false
	}
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()
	now := c.now()
	if !exists || !e.live(now) {
		return nil, "", 0, false
	}
	return e.data, e.etag, e.expiresAt.Sub(now), true
}

// Set stores data under key for ttl and returns its ETag.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	c.entries[key] = entry{data: data, etag: etag, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return etag
}

// Stats is the cache section of GET /health.
type Stats struct {
	Enabled bool `json:"enabled"`
	Total   int  `json:"total_keys"`
	Active  int  `json:"active_keys"`
	Expired int  `json:"expired_keys"`
	// ByFamily counts live keys per prefix, e.g. athlete_games or lineup.
	ByFamily map[string]int `json:"by_family,omitempty"`
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	s := Stats{Enabled: c.enabled, Total: len(c.entries), ByFamily: map[string]int{}}
	for key, e := range c.entries {
		if !e.live(now) {
			continue
		}
		s.Active++
		s.ByFamily[family(key)]++
	}
	s.Expired = s.Total - s.Active
	return s
}

// family is the key up to its first colon.
func family(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		c.evict()
	}
}

func (c *Cache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, key)
		}
	}
}

// ComputeETag is a weak ETag over the first 8 bytes of the MD5 digest.
func ComputeETag(data []byte) string {
	sum := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, sum[:8])
}

// CheckETagMatch reports whether an If-None-Match value selects etag.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	switch ifNoneMatch {
	case "":
		return false
	case "*":
		return true
	}
	return ifNoneMatch == etag
}
