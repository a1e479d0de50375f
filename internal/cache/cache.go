package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// Entry is one cached upstream response: the raw payload, the status it
// arrived with, and when it was fetched.
type Entry struct {
	Payload   json.RawMessage
	Status    int
	FetchedAt time.Time
}

// Cache holds upstream responses keyed by full request identity. Entries go
// stale after the TTL; stale lookups behave as misses and the entry is simply
// overwritten on the next put. The key space is bounded by users x years x
// endpoints, so there is no size limit or eviction.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]Entry
	now     func() time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get returns the entry for key if it exists and has not expired.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.FetchedAt) > c.ttl {
		return Entry{}, false
	}
	return e, true
}

// Put stores a response for key, replacing any previous entry.
func (c *Cache) Put(key string, payload json.RawMessage, status int) {
	c.mu.Lock()
	c.entries[key] = Entry{
		Payload:   payload,
		Status:    status,
		FetchedAt: c.now(),
	}
	c.mu.Unlock()
}
