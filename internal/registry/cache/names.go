// Package cache provides a redis read-through cache for name resolution.
// Purely an optimization for the hot lookup path: correctness never depends
// on it, entries carry a TTL capped at the reservation's remaining life, and
// every mutation of a binding invalidates its entry.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"folio/internal/registry/models"
)

const nameKeyPrefix = "folio:name:"

// NameCache caches name→pageID resolutions.
type NameCache struct {
	client *redis.Client
	logger *slog.Logger
	maxTTL time.Duration
}

// NewNameCache wraps a redis client. maxTTL bounds how long an entry may
// live regardless of the reservation's remaining time.
func NewNameCache(client *redis.Client, maxTTL time.Duration, logger *slog.Logger) *NameCache {
	return &NameCache{client: client, logger: logger, maxTTL: maxTTL}
}

// Lookup returns the cached page ID for a name. The second return reports a
// cache hit; a miss (or any redis failure) sends the caller to the store.
func (c *NameCache) Lookup(ctx context.Context, name string) (models.PageID, bool) {
	val, err := c.client.Get(ctx, nameKeyPrefix+name).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "name cache lookup failed", "name", name, "error", err)
		}
		return "", false
	}
	return models.PageID(val), true
}

// Store caches an active resolution. The TTL never outlives the
// reservation, so an entry can't report a lapsed name as reserved.
func (c *NameCache) Store(ctx context.Context, name string, pageID models.PageID, expiry, now time.Time) {
	ttl := expiry.Sub(now)
	if ttl <= 0 {
		return
	}
	if ttl > c.maxTTL {
		ttl = c.maxTTL
	}
	if err := c.client.Set(ctx, nameKeyPrefix+name, string(pageID), ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "name cache store failed", "name", name, "error", err)
	}
}

// Invalidate drops a name's entry after a mutation touched its binding.
func (c *NameCache) Invalidate(ctx context.Context, name string) {
	if err := c.client.Del(ctx, nameKeyPrefix+name).Err(); err != nil {
		c.logger.WarnContext(ctx, "name cache invalidate failed", "name", name, "error", err)
	}
}
