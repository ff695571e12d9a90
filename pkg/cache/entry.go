package cache

import "time"

// Entry is a single cached value together with its absolute expiration time.
// Recency bookkeeping lives in the LRU structure that owns the entry; the
// value itself is treated as immutable once stored.
type Entry[V any] struct {
	// Value is the caller-defined payload. The cache never inspects it.
	Value V

	// ExpiresAt is the absolute time after which the entry is stale.
	ExpiresAt time.Time

	// StoredAt is when the entry was inserted or last replaced.
	StoredAt time.Time
}

// IsExpired returns true once the expiration time has been reached.
// An entry read exactly at its expiration time is already expired.
func (e *Entry[V]) IsExpired() bool {
	return !time.Now().Before(e.ExpiresAt)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry[V]) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
