package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/windevexpert/windevexpert/internal/adapter/tiered"
)

type memCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func TestSharedHitFillsLocal(t *testing.T) {
	local, shared := newMemCache(), newMemCache()
	c := tiered.New(local, shared, 30*time.Second)
	shared.data["course:1"] = []byte(`{"id":"1"}`)

	val, found, err := c.Get(context.Background(), "course:1")
	if err != nil || !found || string(val) != `{"id":"1"}` {
		t.Fatalf("Get = %q, %v, %v", val, found, err)
	}
	if string(local.data["course:1"]) != `{"id":"1"}` || local.ttls["course:1"] != 30*time.Second {
		t.Errorf("local not filled: %q ttl %v", local.data["course:1"], local.ttls["course:1"])
	}
}

func TestSetCapsLocalTTL(t *testing.T) {
	local, shared := newMemCache(), newMemCache()
	c := tiered.New(local, shared, 30*time.Second)

	if err := c.Set(context.Background(), "product:2", []byte("p"), 5*time.Minute); err != nil {
		t.Fatal(err)
	}
	if local.ttls["product:2"] != 30*time.Second {
		t.Errorf("local ttl = %v, want 30s", local.ttls["product:2"])
	}
	if shared.ttls["product:2"] != 5*time.Minute {
		t.Errorf("shared ttl = %v, want 5m", shared.ttls["product:2"])
	}
}

func TestSharedOutageIsAMiss(t *testing.T) {
	local, shared := newMemCache(), newMemCache()
	shared.err = errors.New("nats: timeout")
	c := tiered.New(local, shared, time.Second)

	_, found, err := c.Get(context.Background(), "course:3")
	if err != nil || found {
		t.Fatalf("Get = found %v, err %v; want a plain miss", found, err)
	}
	if err := c.Delete(context.Background(), "course:3"); err == nil {
		t.Error("Delete should report the shared failure")
	}
}

func TestDeleteBothLevels(t *testing.T) {
	local, shared := newMemCache(), newMemCache()
	c := tiered.New(local, shared, time.Second)
	local.data["k"], shared.data["k"] = []byte("a"), []byte("a")

	if err := c.Delete(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	if len(local.data)+len(shared.data) != 0 {
		t.Errorf("entries left: local %v shared %v", local.data, shared.data)
	}
}
