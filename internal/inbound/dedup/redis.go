package dedup

import (
	"context"
	"time"

	"realestate_ai_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "inbound:dedup:"

// RedisCache shares seen IDs across processes. On Redis errors it falls
// back to a local MemoryCache so inbound processing never stalls.
type RedisCache struct {
	client    redis.UniversalClient
	retention time.Duration
	fallback  *MemoryCache
	log       *logger.Logger
}

func NewRedisCache(client redis.UniversalClient, retention time.Duration, fallback *MemoryCache, log *logger.Logger) *RedisCache {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if fallback == nil {
		fallback = NewMemoryCache(DefaultMaxEntries, retention)
	}
	return &RedisCache{client: client, retention: retention, fallback: fallback, log: log}
}

func (c *RedisCache) Seen(ctx context.Context, id string) bool {
	inserted, err := c.client.SetNX(ctx, keyPrefix+id, time.Now().UTC().Unix(), c.retention).Result()
	if err != nil {
		if c.log != nil {
			c.log.Warn("dedup: redis unavailable, using local cache", "error", err)
		}
		return c.fallback.Seen(ctx, id)
	}
	// keep the local view warm so a later outage still catches recent replays
	c.fallback.Seen(ctx, id)
	return !inserted
}
