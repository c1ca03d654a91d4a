// Package cache memoizes bot responses per session, keyed by the normalized
// utterance and a cheap signature of the attached image.
package cache

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/types"
)

// NoImageSignature marks text-only turns in cache keys.
const NoImageSignature = "no_img"

// DefaultSignatureWindow is how many trailing image bytes form the signature.
const DefaultSignatureWindow = 100

// Config holds cache configuration.
type Config struct {
	SignatureWindow int // trailing bytes hashed into the key (default: 100)
	MaxEntries      int // 0 = unbounded for the life of the session
}

// Stats represents cache statistics.
type Stats struct {
	Items     int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// ResponseCache is a session-scoped response memo. It is safe for concurrent
// use. A nil *ResponseCache behaves as an always-missing cache.
type ResponseCache struct {
	window int

	mu      sync.Mutex
	entries map[string]*types.BotResponse
	bounded *lru.Cache[string, *types.BotResponse]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a response cache.
func New(cfg Config) (*ResponseCache, error) {
	if cfg.SignatureWindow <= 0 {
		cfg.SignatureWindow = DefaultSignatureWindow
	}
	if cfg.MaxEntries < 0 {
		return nil, fmt.Errorf("MaxEntries must not be negative, got %d", cfg.MaxEntries)
	}

	c := &ResponseCache{window: cfg.SignatureWindow}
	if cfg.MaxEntries == 0 {
		c.entries = make(map[string]*types.BotResponse)
		return c, nil
	}

	bounded, err := lru.NewWithEvict[string, *types.BotResponse](cfg.MaxEntries, func(key string, _ *types.BotResponse) {
		c.evictions.Add(1)
		logging.CacheDebug("evicted %q", key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	c.bounded = bounded
	return c, nil
}

// Signature derives the image part of a cache key from the last window bytes
// of the payload. Two images that share those bytes share a signature.
func Signature(image *types.Media, window int) string {
	if image == nil || len(image.Data) == 0 {
		return NoImageSignature
	}
	if window <= 0 {
		window = DefaultSignatureWindow
	}
	data := image.Data
	if len(data) > window {
		data = data[len(data)-window:]
	}
	return hex.EncodeToString(data)
}

// Key builds the cache key for a turn.
func Key(text string, image *types.Media, window int) string {
	return strings.ToLower(strings.TrimSpace(text)) + "|" + Signature(image, window)
}

// Key returns the cache key this cache uses for (text, image).
func (c *ResponseCache) Key(text string, image *types.Media) string {
	window := DefaultSignatureWindow
	if c != nil {
		window = c.window
	}
	return Key(text, image, window)
}

// Lookup returns the response stored for (text, image), if any. The stored
// pointer is returned as is; callers must not mutate it.
func (c *ResponseCache) Lookup(text string, image *types.Media) (*types.BotResponse, bool) {
	if c == nil {
		return nil, false
	}
	key := Key(text, image, c.window)

	var (
		resp *types.BotResponse
		ok   bool
	)
	if c.bounded != nil {
		resp, ok = c.bounded.Get(key)
	} else {
		c.mu.Lock()
		resp, ok = c.entries[key]
		c.mu.Unlock()
	}

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	logging.Cache("cache hit for %q", truncateKey(key))
	return resp, true
}

// Peek is Lookup without touching the hit/miss counters or LRU recency.
func (c *ResponseCache) Peek(text string, image *types.Media) (*types.BotResponse, bool) {
	if c == nil {
		return nil, false
	}
	key := Key(text, image, c.window)
	if c.bounded != nil {
		return c.bounded.Peek(key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.entries[key]
	return resp, ok
}

// Store records resp for (text, image), replacing any previous entry.
func (c *ResponseCache) Store(text string, image *types.Media, resp *types.BotResponse) {
	if c == nil || resp == nil {
		return
	}
	key := Key(text, image, c.window)
	if c.bounded != nil {
		c.bounded.Add(key, resp)
	} else {
		c.mu.Lock()
		c.entries[key] = resp
		c.mu.Unlock()
	}
	logging.CacheDebug("stored %s response under %q", resp.Type, truncateKey(key))
}

// Len returns the number of cached responses.
func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}
	if c.bounded != nil {
		return c.bounded.Len()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache counters.
func (c *ResponseCache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	s := Stats{
		Items:     c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Clear drops every entry. Counters are kept.
func (c *ResponseCache) Clear() {
	if c == nil {
		return
	}
	if c.bounded != nil {
		// Purge fires the eviction callback; those are not capacity evictions.
		before := c.evictions.Load()
		c.bounded.Purge()
		c.evictions.Store(before)
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]*types.BotResponse)
	c.mu.Unlock()
}

func truncateKey(key string) string {
	if len(key) > 48 {
		return key[:48] + "..."
	}
	return key
}
