package cache

import (
	"context"
	"math"
	"sync"
	"time"
)

// Cacher defines the byte-level response cache used by the request client.
type Cacher interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

type entry[V any] struct {
	val     V
	expires time.Time
}

// TTL is a typed in-memory cache whose entries expire after a fixed lifetime.
// Concurrent check-then-set races are benign: the worst case is a duplicate computation.
type TTL[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// NewTTL creates a cache whose entries live for ttl. A non-positive ttl never expires entries.
func NewTTL[K comparable, V any](ttl time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *TTL[K, V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached value for key if present and not expired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.ttl > 0 && !now.Before(e.expires) {
		c.evictExpired(key)
		return zero, false
	}
	return e.val, true
}

// evictExpired deletes key only if the stored entry is still expired, so a
// Set that landed after the caller's read survives.
func (c *TTL[K, V]) evictExpired(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && !c.now().Before(e.expires) {
		delete(c.entries, key)
	}
}

// Set stores val under key, replacing any previous entry.
func (c *TTL[K, V]) Set(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{val: val, expires: c.now().Add(c.ttl)}
}

// Evict removes key from the cache.
func (c *TTL[K, V]) Evict(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge drops every expired entry and returns how many were removed.
func (c *TTL[K, V]) Purge() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Clear removes every entry.
func (c *TTL[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]entry[V])
}

// Len returns the number of stored entries, expired or not.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Memory implements Cacher on top of a TTL cache.
type Memory struct {
	store *TTL[string, []byte]
}

// NewMemory creates a response cache whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{store: NewTTL[string, []byte](ttl)}
}

func (m *Memory) GetCache(_ context.Context, key string) ([]byte, bool) {
	return m.store.Get(key)
}

func (m *Memory) SetCache(_ context.Context, key string, val []byte) error {
	m.store.Set(key, val)
	return nil
}

// Purge drops expired responses.
func (m *Memory) Purge() int {
	return m.store.Purge()
}

// Round rounds v to the given number of decimal places. Cache keys use it so that
// nearby coordinates share an entry.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
