// Package cache provides the in-process response cache that lets the
// assistant answer repeated prompts without calling the completion service.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is how long a stored response stays servable.
const DefaultTTL = time.Hour

// entry is a cached response with its expiry instant.
type entry struct {
	text      string
	expiresAt time.Time
}

// Cache maps exact prompt text to previously completed responses. Entries
// expire lazily: nothing sweeps the map, an entry past its TTL is simply
// treated as absent (and dropped) the next time it is looked up. Keys are
// the raw prompt as received - "Привет" and "привет!" are separate entries.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty cache. A zero or negative ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewWithClock creates a cache that reads time through now. Tests use it
// to step expiry deterministically.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	c := New(ttl)
	c.now = now
	return c
}

// Lookup returns the cached response for the prompt, if present and fresh.
// An expired entry is dropped and reported as a miss.
func (c *Cache) Lookup(prompt string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[prompt]
	if !ok {
		return "", false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, prompt)
		return "", false
	}
	return e.text, true
}

// Store caches a response under the prompt, overwriting any previous entry
// and restarting its TTL.
func (c *Cache) Store(prompt, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[prompt] = entry{text: text, expiresAt: c.now().Add(c.ttl)}
}

// Len reports the number of entries currently held, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
