// Package sharedcache provides the process-wide cache for expensive shared
// resources such as API clients and connection pools.
//
// Unlike per-run memoization, entries survive across runs and are removed only
// by explicit invalidation. There is no eviction and no TTL.
package sharedcache

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/vk/flowgrid/internal/ctxlog"
	"golang.org/x/sync/singleflight"
)

type missType struct{}

func (missType) String() string { return "<miss>" }

// Miss is returned by Get for keys that were never set. It is distinct from
// every storable value, including nil.
var Miss any = missType{}

// IsMiss reports whether v is the Miss sentinel.
func IsMiss(v any) bool {
	_, ok := v.(missType)
	return ok
}

// Cache is a concurrency-safe, caller-managed key/value cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
	group   singleflight.Group
}

// New creates an empty cache. One instance is created per process by the
// application and passed to every run.
func New() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Get returns the value stored under key, or Miss.
func (c *Cache) Get(key string) any {
	if v, ok := c.Lookup(key); ok {
		return v
	}
	return Miss
}

// Lookup is the comma-ok form of Get.
func (c *Cache) Lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set unconditionally stores value under key. A nil value is a valid entry.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// GetOrCreate returns the value under key, calling create to produce it on a
// miss. Concurrent callers for the same key share a single create call; a
// failed create stores nothing.
//
// create runs detached from the caller's cancellation because other callers
// may be waiting on it; it must bound its own blocking work. A caller whose
// ctx ends stops waiting and gets ctx.Err() while the creation carries on.
func (c *Cache) GetOrCreate(ctx context.Context, key string, create func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := c.Lookup(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.Lookup(key); ok {
			return v, nil
		}
		ctxlog.FromContext(ctx).Debug("Creating shared resource.", "key", key)
		v, err := create(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	select {
	case res := <-ch:
		if res.Shared {
			ctxlog.FromContext(ctx).Debug("Shared resource creation was deduplicated.", "key", key)
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate removes the given keys. The next Get for each returns Miss.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// InvalidateIf removes key only while it still holds old, and reports
// whether it did. old must be comparable, typically a pointer.
func (c *Cache) InvalidateIf(key string, old any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok || v != old {
		return false
	}
	delete(c.entries, key)
	return true
}

// InvalidateAll removes every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
}

// Keys returns the cached keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close releases every cached value that implements io.Closer, in reverse
// key order, and empties the cache. Close errors are logged, not returned.
func (c *Cache) Close(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]any)
	c.mu.Unlock()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	for _, k := range keys {
		closer, ok := entries[k].(io.Closer)
		if !ok {
			continue
		}
		logger.Debug("Closing shared resource.", "key", k)
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close shared resource.", "key", k, "error", err)
		}
	}
}
