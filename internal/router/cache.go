package router

import (
	"sync"
	"time"

	"github.com/vikflow/vikflow/internal/vikunja"
)

// ListCacheTTL is how long a per-profile list snapshot stays valid.
const ListCacheTTL = 60 * time.Second

type cacheEntry struct {
	lists     []vikunja.List
	fetchedAt time.Time
}

// listCache holds one list-of-lists snapshot per profile. Entries expire
// after ListCacheTTL and are dropped eagerly on profile switch so one
// profile's data can never surface under another.
type listCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func newListCache(ttl time.Duration) *listCache {
	return &listCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached snapshot for a profile, or false when absent or
// expired.
func (c *listCache) Get(profileName string) ([]vikunja.List, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[profileName]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		delete(c.entries, profileName)
		return nil, false
	}
	return entry.lists, true
}

// Set stores a fresh snapshot for a profile.
func (c *listCache) Set(profileName string, lists []vikunja.List) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[profileName] = cacheEntry{lists: lists, fetchedAt: c.now()}
}

// Invalidate drops a profile's snapshot.
func (c *listCache) Invalidate(profileName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, profileName)
}

// Clear drops every snapshot.
func (c *listCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
