// Package cachedstore decorates a repository backend with a read-through
// cache on course and product lookups by id.
package cachedstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/windevexpert/windevexpert/internal/domain/course"
	"github.com/windevexpert/windevexpert/internal/domain/product"
	"github.com/windevexpert/windevexpert/internal/port/cache"
	"github.com/windevexpert/windevexpert/internal/port/database"
)

const (
	kindCourse  = "course"
	kindProduct = "product"
)

// Store wraps a database.Store. Every method it does not override goes
// straight to the wrapped backend.
type Store struct {
	database.Store
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

// New returns a caching decorator around inner.
func New(inner database.Store, c cache.Cache, ttl time.Duration) *Store {
	return &Store{Store: inner, cache: c, ttl: ttl}
}

func (s *Store) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	return getThrough(ctx, s, cache.Key(kindCourse, id), func(ctx context.Context) (any, error) {
		return s.Store.GetCourse(ctx, id)
	}, new(course.Course))
}

func (s *Store) UpdateCourse(ctx context.Context, id string, req course.UpdateRequest) (*course.Course, error) {
	c, err := s.Store.UpdateCourse(ctx, id, req)
	s.invalidate(ctx, kindCourse, id)
	return c, err
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	err := s.Store.DeleteCourse(ctx, id)
	s.invalidate(ctx, kindCourse, id)
	return err
}

func (s *Store) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return getThrough(ctx, s, cache.Key(kindProduct, id), func(ctx context.Context) (any, error) {
		return s.Store.GetProduct(ctx, id)
	}, new(product.Product))
}

func (s *Store) UpdateProduct(ctx context.Context, id string, req product.UpdateRequest) (*product.Product, error) {
	p, err := s.Store.UpdateProduct(ctx, id, req)
	s.invalidate(ctx, kindProduct, id)
	return p, err
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	err := s.Store.DeleteProduct(ctx, id)
	s.invalidate(ctx, kindProduct, id)
	return err
}

// getThrough serves key from the cache or loads it once for all concurrent
// callers. Each caller decodes its own copy into out.
func getThrough[T any](ctx context.Context, s *Store, key string, load func(context.Context) (any, error), out *T) (*T, error) {
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		if err := json.Unmarshal(data, out); err == nil {
			return out, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		item, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			slog.Warn("cache set failed", "key", key, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(v.([]byte), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) invalidate(ctx context.Context, kind, id string) {
	if err := s.cache.Delete(ctx, cache.Key(kind, id)); err != nil {
		slog.Warn("cache invalidation failed", "kind", kind, "id", id, "error", err)
	}
}
