// Package cache defines the port interface for caching serialized entities.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key builds the cache key of one entity, e.g. "course:42".
func Key(kind, id string) string {
	return kind + ":" + id
}
