//go:build integration

package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/registry/models"
	"folio/pkg/testutil/containers"
)

func TestNameCache(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := NewNameCache(rc.Client, time.Minute, log)

	now := time.Now()
	pageID := models.PageID("page-1")

	t.Run("miss then hit", func(t *testing.T) {
		_, hit := cache.Lookup(ctx, "alpha")
		assert.False(t, hit)

		cache.Store(ctx, "alpha", pageID, now.Add(time.Hour), now)
		got, hit := cache.Lookup(ctx, "alpha")
		require.True(t, hit)
		assert.Equal(t, pageID, got)
	})

	t.Run("invalidate drops entry", func(t *testing.T) {
		cache.Store(ctx, "beta", pageID, now.Add(time.Hour), now)
		cache.Invalidate(ctx, "beta")
		_, hit := cache.Lookup(ctx, "beta")
		assert.False(t, hit)
	})

	t.Run("ttl capped at maxTTL", func(t *testing.T) {
		cache.Store(ctx, "gamma", pageID, now.Add(24*time.Hour), now)
		ttl, err := rc.Client.TTL(ctx, nameKeyPrefix+"gamma").Result()
		require.NoError(t, err)
		assert.LessOrEqual(t, ttl, time.Minute)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("ttl bounded by reservation remaining", func(t *testing.T) {
		cache.Store(ctx, "delta", pageID, now.Add(10*time.Second), now)
		ttl, err := rc.Client.TTL(ctx, nameKeyPrefix+"delta").Result()
		require.NoError(t, err)
		assert.LessOrEqual(t, ttl, 10*time.Second)
	})

	t.Run("lapsed reservation never cached", func(t *testing.T) {
		cache.Store(ctx, "epsilon", pageID, now.Add(-time.Second), now)
		_, hit := cache.Lookup(ctx, "epsilon")
		assert.False(t, hit)
	})
}
