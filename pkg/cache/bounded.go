package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// BoundedTTLCache is a generic bounded key-value store combining per-entry
// TTL expiration with least-recently-used eviction.
//
// LRU ordering is delegated to hashicorp's simplelru, which is not safe for
// concurrent use; all access goes through a single mutex per cache. Critical
// sections are O(1), so the lock is never a bottleneck relative to the
// multi-hundred-millisecond computations the cache shields.
//
// Expired entries are removed lazily on read. Untouched expired entries may
// linger until the next read, eviction, or sweep, but are never returned as
// valid to callers.
type BoundedTTLCache[K comparable, V any] struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[K, *Entry[V]]
	capacity int
	ttl      time.Duration

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// NewBoundedTTLCache creates a cache holding at most capacity entries, each
// expiring ttl after insertion unless overridden per entry.
// Invalid capacity or ttl is a configuration error and fails construction.
func NewBoundedTTLCache[K comparable, V any](capacity int, ttl time.Duration) (*BoundedTTLCache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}

	lru, err := simplelru.NewLRU[K, *Entry[V]](capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("init lru: %w", err)
	}

	return &BoundedTTLCache[K, V]{
		lru:       lru,
		capacity:  capacity,
		ttl:       ttl,
		sweepStop: make(chan struct{}),
	}, nil
}

// Get retrieves the value stored under key.
// It returns found=false if the key is absent or the entry has expired;
// expired entries are removed on the spot. A hit marks the entry as most
// recently used.
func (c *BoundedTTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}

	if entry.IsExpired() {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}

	return entry.Value, true
}

// Set inserts or replaces the value under key with the default TTL.
func (c *BoundedTTLCache[K, V]) Set(key K, value V) {
	c.SetTTL(key, value, c.ttl)
}

// SetTTL inserts or replaces the value under key with an explicit TTL.
// The entry becomes most recently used. If inserting a new key would exceed
// capacity, the least recently used entry is evicted as part of the insert.
func (c *BoundedTTLCache[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	now := time.Now()
	entry := &Entry[V]{
		Value:     value,
		ExpiresAt: now.Add(ttl),
		StoredAt:  now,
	}

	c.mu.Lock()
	c.lru.Add(key, entry)
	c.mu.Unlock()
}

// Delete removes the entry under key. It returns true if an entry existed.
func (c *BoundedTTLCache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// Clear removes all entries and returns how many were removed.
func (c *BoundedTTLCache[K, V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.lru.Len()
	c.lru.Purge()
	return removed
}

// Len returns the number of resident entries, including entries that have
// expired but not yet been purged.
func (c *BoundedTTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Capacity returns the maximum number of resident entries.
func (c *BoundedTTLCache[K, V]) Capacity() int {
	return c.capacity
}

// Oldest returns the least recently used entry without disturbing recency
// order. It returns found=false when the cache is empty.
func (c *BoundedTTLCache[K, V]) Oldest() (K, V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, entry, ok := c.lru.GetOldest()
	if !ok {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	return key, entry.Value, true
}

// StartSweep launches a background goroutine that periodically removes
// expired entries. onSweep, when non-nil, runs after each pass with the
// number of entries removed. Stop the sweep with Close.
func (c *BoundedTTLCache[K, V]) StartSweep(interval time.Duration, onSweep func(removed int)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				removed := c.removeExpired()
				if onSweep != nil {
					onSweep(removed)
				}
			case <-c.sweepStop:
				return
			}
		}
	}()
}

// Close stops the background sweep, if one was started.
func (c *BoundedTTLCache[K, V]) Close() {
	c.sweepOnce.Do(func() { close(c.sweepStop) })
}

// removeExpired purges all entries past their expiration time and returns
// how many were removed.
func (c *BoundedTTLCache[K, V]) removeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	// Peek does not disturb recency order.
	for _, key := range c.lru.Keys() {
		if entry, ok := c.lru.Peek(key); ok && entry.IsExpired() {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}
