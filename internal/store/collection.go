// Package store provides in-memory caches of backend collections with
// time-based staleness tracking.
//
// Stores never touch auth headers or durable storage; they own exactly
// one collection each and keep it consistent with the last known-good
// server state. Overlapping fetches are not de-duplicated: the lock
// below guards field access only and is never held across a network
// call, so when two fetches overlap the last response to resolve wins.
package store

import (
	"sync"
	"time"

	"github.com/taskboard/client-go/internal/api"
)

// DefaultTTL is the staleness window applied when none is configured.
const DefaultTTL = 10 * time.Second

// Identifiable is satisfied by any record carrying a canonical id.
type Identifiable interface {
	GetID() string
}

// collection holds the cached records and fetch metadata for one store.
// The zero lastFetchedAt means "never fetched", which is always stale.
type collection[T Identifiable] struct {
	mu            sync.Mutex
	items         []T
	metadata      api.Pagination
	loading       bool
	initialized   bool
	lastFetchedAt time.Time
	ttl           time.Duration
	now           func() time.Time
}

func newCollection[T Identifiable](ttl time.Duration, now func() time.Time) collection[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return collection[T]{ttl: ttl, now: now}
}

// stale is recomputed on every read, never cached.
func (c *collection[T]) stale() bool {
	return c.now().Sub(c.lastFetchedAt) > c.ttl
}

// shouldFetch decides whether a fetch goes to the backend. Explicit
// filter params always bypass the cache because the cached page may
// have been produced by different parameters.
func (c *collection[T]) shouldFetch(force, hasParams bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return force || !c.initialized || c.stale() || hasParams
}

func (c *collection[T]) setLoading(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = v
}

// replaceAll swaps in a freshly fetched page.
func (c *collection[T]) replaceAll(items []T, metadata api.Pagination) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.metadata = metadata
	c.initialized = true
	c.lastFetchedAt = c.now()
}

// insert adds a record at the head or the tail of the collection.
func (c *collection[T]) insert(item T, prepend bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prepend {
		c.items = append([]T{item}, c.items...)
	} else {
		c.items = append(c.items, item)
	}
}

// replaceByID swaps the record with the matching id in place, keeping
// its position. A miss leaves the collection unmodified and reports
// false; nothing is inserted.
func (c *collection[T]) replaceByID(id string, item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].GetID() == id {
			c.items[i] = item
			return true
		}
	}
	return false
}

// removeByID drops the record with the matching id.
func (c *collection[T]) removeByID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	for _, item := range c.items {
		if item.GetID() != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

// reset returns the collection to its initial state.
func (c *collection[T]) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.metadata = api.Pagination{}
	c.loading = false
	c.initialized = false
	c.lastFetchedAt = time.Time{}
}

func (c *collection[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T]) isLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *collection[T]) isInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

func (c *collection[T]) isStale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale()
}

func (c *collection[T]) lastFetched() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFetchedAt
}

func (c *collection[T]) pagination() api.Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metadata
}
