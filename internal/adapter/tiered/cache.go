// Package tiered combines the in-process cache with the shared remote cache.
package tiered

import (
	"context"
	"log/slog"
	"time"

	"github.com/windevexpert/windevexpert/internal/port/cache"
)

// Cache checks the local level first, then the shared level, copying shared
// hits into the local level for localTTL. A failing shared level degrades to
// a miss on reads; only writes and deletes report its errors.
type Cache struct {
	local    cache.Cache
	shared   cache.Cache
	localTTL time.Duration
}

// New creates a tiered cache.
func New(local, shared cache.Cache, localTTL time.Duration) *Cache {
	return &Cache{local: local, shared: shared, localTTL: localTTL}
}

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.local.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		return val, true, nil
	}

	val, found, err = c.shared.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "shared cache read failed", "key", key, "error", err)
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}
	_ = c.local.Set(ctx, key, val, c.localTTL)
	return val, true, nil
}

// Set writes the shared level with ttl and the local level with the shorter
// of ttl and localTTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	local := ttl
	if c.localTTL > 0 && (local <= 0 || c.localTTL < local) {
		local = c.localTTL
	}
	if err := c.local.Set(ctx, key, value, local); err != nil {
		return err
	}
	return c.shared.Set(ctx, key, value, ttl)
}

// Delete removes the key from both levels.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.local.Delete(ctx, key); err != nil {
		return err
	}
	return c.shared.Delete(ctx, key)
}
