package echo

import (
	"strings"
	"sync"
	"time"
)

// Cache remembers the normalized text of messages this bot recently sent.
// When a sent message reappears in the inbound log (the Messages database
// records our own replies too, and a correspondent may be the operator's own
// device), the cache lets the relay skip it instead of replying to itself.
//
// Entries expire after a fixed TTL: an identical message retyped by a human
// after the window must be answered again.
type Cache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]time.Time

	now func() time.Time // swapped in tests
}

// New creates a cache with the given expiry window.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Record marks text as sent by us at the current time.
func (c *Cache) Record(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[normalize(text)] = c.now()
}

// RecentlySent reports whether text matches a non-expired sent entry.
// Expired entries are purged before the lookup.
func (c *Cache) RecentlySent(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purge()
	_, ok := c.entries[normalize(text)]
	return ok
}

// Len returns the number of live entries (after purging expired ones).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purge()
	return len(c.entries)
}

func (c *Cache) purge() {
	cutoff := c.now().Add(-c.ttl)
	for key, sentAt := range c.entries {
		if sentAt.Before(cutoff) || sentAt.Equal(cutoff) {
			delete(c.entries, key)
		}
	}
}

// normalize makes the membership test tolerant of whitespace and case noise.
// The normalized string itself is the map key; no hashing, so lookups are
// exact by construction.
func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
