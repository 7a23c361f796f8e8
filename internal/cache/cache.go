// Package cache implements the short-lived response cache.
//
// Entries are keyed by (kind, prompt text) only — conversation history is
// deliberately not part of the key, so two chats issuing the same literal
// prompt share a result. Expired entries are treated as misses on read but
// are never removed; memory is reclaimed only at process exit.
package cache

import (
	"sync"
	"time"

	"github.com/vadym312/AI-Chatbot/internal/domain"
	"github.com/vadym312/AI-Chatbot/internal/metrics"
)

// DefaultTTL is how long a stored response stays valid.
const DefaultTTL = 5 * time.Minute

type key struct {
	kind   string
	prompt string
}

type entry struct {
	payload  domain.Envelope
	storedAt time.Time
}

// ResponseCache is a process-lifetime cache of provider responses.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[key]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a response cache with the given TTL. A non-positive TTL
// falls back to DefaultTTL.
func New(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{
		entries: make(map[key]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Lookup returns the cached payload for (kind, prompt) if present and not
// older than the TTL. Stale entries count as misses and stay resident.
func (c *ResponseCache) Lookup(kind, prompt string) (domain.Envelope, bool) {
	c.mu.RLock()
	e, ok := c.entries[key{kind, prompt}]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.storedAt) > c.ttl {
		metrics.CacheMisses.Inc()
		return domain.Envelope{}, false
	}
	metrics.CacheHits.Inc()
	return e.payload, true
}

// Store records a payload for (kind, prompt), resetting its TTL window.
func (c *ResponseCache) Store(kind, prompt string, payload domain.Envelope) {
	c.mu.Lock()
	c.entries[key{kind, prompt}] = entry{payload: payload, storedAt: c.now()}
	metrics.CacheEntries.Set(float64(len(c.entries)))
	c.mu.Unlock()
}

// Len reports the number of resident entries, expired included.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
