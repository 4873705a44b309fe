// Package dedup remembers which provider message IDs have already been
// processed so webhook redeliveries are absorbed.
package dedup

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMaxEntries = 10000
	DefaultRetention  = time.Hour
)

// Cache records a message ID on first observation.
// Seen reports whether id was observed before within the retention window.
type Cache interface {
	Seen(ctx context.Context, id string) bool
}

// Key builds the cache key for a message on a channel.
func Key(channel, providerMessageID string) string {
	return channel + ":" + providerMessageID
}

// MemoryCache is a bounded in-process Cache.
type MemoryCache struct {
	mu         sync.Mutex
	seen       map[string]time.Time
	maxEntries int
	retention  time.Duration
	now        func() time.Time
}

func NewMemoryCache(maxEntries int, retention time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryCache{
		seen:       make(map[string]time.Time),
		maxEntries: maxEntries,
		retention:  retention,
		now:        time.Now,
	}
}

func (c *MemoryCache) Seen(_ context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if at, ok := c.seen[id]; ok {
		if now.Sub(at) < c.retention {
			return true
		}
		delete(c.seen, id)
	}

	if len(c.seen) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.seen[id] = now
	return false
}

// Len returns the number of remembered IDs.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func (c *MemoryCache) evictLocked(now time.Time) {
	cutoff := now.Add(-c.retention)
	for id, at := range c.seen {
		if at.Before(cutoff) {
			delete(c.seen, id)
		}
	}

	for len(c.seen) >= c.maxEntries {
		var oldestID string
		var oldestAt time.Time
		for id, at := range c.seen {
			if oldestID == "" || at.Before(oldestAt) {
				oldestID, oldestAt = id, at
			}
		}
		delete(c.seen, oldestID)
	}
}
