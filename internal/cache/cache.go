// Package cache holds the client-side view of server state. Collections are
// keyed by the query that produced them and are refetched whole once a
// mutation marks them stale; entries are never patched in place.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Kind names a collection query
type Kind string

const (
	KindProjects       Kind = "projects"
	KindTasksByUser    Kind = "tasks-by-user"
	KindTasksByProject Kind = "tasks-by-project"
	KindCommentsByTask Kind = "comments-by-task"
)

// Key is a query signature: the collection kind plus its parameter
type Key struct {
	Kind Kind
	ID   int64
}

func (k Key) String() string {
	if k.Kind == KindProjects {
		return string(k.Kind)
	}
	return fmt.Sprintf("%s/%d", k.Kind, k.ID)
}

type entry struct {
	value     any
	stale     bool
	fetchedAt time.Time
}

// Stats counts cache activity
type Stats struct {
	Hits          int
	Misses        int
	Invalidations int
}

// Cache maps query signatures to fetched collections
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	stats   Stats
	epoch   uint64 // bumped by every invalidation
	group   singleflight.Group
	log     *slog.Logger
	now     func() time.Time
}

// New creates an empty cache
func New(log *slog.Logger) *Cache {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		entries: make(map[Key]*entry),
		log:     log,
		now:     time.Now,
	}
}

// Get serves the cached collection for key when it is fresh and calls fetch
// otherwise. Concurrent misses on one key share a single fetch. A failed fetch
// leaves whatever was cached before untouched.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !e.stale {
		c.stats.Hits++
		v := e.value.(T)
		c.mu.Unlock()
		return v, nil
	}
	c.stats.Misses++
	epoch := c.epoch
	c.mu.Unlock()

	// A fetch that started before an invalidation must not be joined or
	// trusted after it, so the epoch is part of the flight key.
	flight := fmt.Sprintf("%s@%d", key, epoch)
	v, err, _ := c.group.Do(flight, func() (any, error) {
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = &entry{value: value, stale: c.epoch != epoch, fetchedAt: c.now()}
		c.mu.Unlock()
		c.log.Debug("cache fill", "key", key.String())
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("fetch %s: %w", key, err)
	}
	return v.(T), nil
}

// Invalidate marks every cached collection matching pred stale and returns
// how many were marked
func (c *Cache) Invalidate(pred func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	n := 0
	for k, e := range c.entries {
		if !e.stale && pred(k) {
			e.stale = true
			n++
		}
	}
	c.stats.Invalidations += n
	return n
}

// Stale reports whether key must be refetched before its next read.
// Keys never fetched count as stale.
func (c *Cache) Stale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return !ok || e.stale
}

// Keys returns the signatures currently held
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Stats returns a snapshot of the counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
