package cache

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCache(t *testing.T, capacity int, ttl time.Duration) *BoundedTTLCache[string, int] {
	t.Helper()
	c, err := NewBoundedTTLCache[string, int](capacity, ttl)
	if err != nil {
		t.Fatalf("NewBoundedTTLCache failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNewBoundedTTLCache_InvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		ttl      time.Duration
	}{
		{"zero capacity", 0, time.Minute},
		{"negative capacity", -1, time.Minute},
		{"zero ttl", 10, 0},
		{"negative ttl", 10, -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBoundedTTLCache[string, int](tt.capacity, tt.ttl); err == nil {
				t.Errorf("NewBoundedTTLCache(%d, %v) succeeded, want error", tt.capacity, tt.ttl)
			}
		})
	}
}

func TestBoundedTTLCache_SetAndGet(t *testing.T) {
	c := newTestCache(t, 10, time.Minute)

	c.Set("a", 1)

	got, ok := c.Get("a")
	if !ok {
		t.Fatal("Get(a) reported miss after Set")
	}
	if got != 1 {
		t.Errorf("Get(a) = %d, want 1", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) reported hit")
	}
}

func TestBoundedTTLCache_ReplaceRefreshes(t *testing.T) {
	c := newTestCache(t, 10, time.Minute)

	c.Set("a", 1)
	c.Set("a", 2)

	if got, _ := c.Get("a"); got != 2 {
		t.Errorf("Get(a) = %d, want 2 after replace", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (replace must not duplicate)", c.Len())
	}
}

func TestBoundedTTLCache_CapacityInvariant(t *testing.T) {
	const capacity = 10
	c := newTestCache(t, capacity, time.Minute)

	for i := 0; i < capacity*3; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
		if c.Len() > capacity {
			t.Fatalf("Len() = %d exceeds capacity %d after insert %d", c.Len(), capacity, i)
		}
	}
	if c.Len() != capacity {
		t.Errorf("Len() = %d, want %d", c.Len(), capacity)
	}
}

func TestBoundedTTLCache_LRUEviction(t *testing.T) {
	// capacity=2: set A, set B, read A, set C -> B (least recently used)
	// is evicted while A survives.
	c := newTestCache(t, 2, 1000*time.Second)

	c.Set("A", 1)
	c.Set("B", 2)

	if got, ok := c.Get("A"); !ok || got != 1 {
		t.Fatalf("Get(A) = %d, %v; want 1, true", got, ok)
	}

	c.Set("C", 3)

	if _, ok := c.Get("B"); ok {
		t.Error("B survived eviction, want it evicted as least recently used")
	}
	if got, ok := c.Get("A"); !ok || got != 1 {
		t.Errorf("Get(A) = %d, %v; want 1, true", got, ok)
	}
	if got, ok := c.Get("C"); !ok || got != 3 {
		t.Errorf("Get(C) = %d, %v; want 3, true", got, ok)
	}
}

func TestBoundedTTLCache_EvictsOldestWithoutReads(t *testing.T) {
	c := newTestCache(t, 3, time.Minute)

	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}

	if _, ok := c.Get("key-0"); ok {
		t.Error("key-0 survived, want first-inserted key evicted")
	}
	for i := 1; i < 4; i++ {
		if _, ok := c.Get(fmt.Sprintf("key-%d", i)); !ok {
			t.Errorf("key-%d missing, want it resident", i)
		}
	}
}

func TestBoundedTTLCache_TTLExpiry(t *testing.T) {
	c := newTestCache(t, 100, 50*time.Millisecond)

	c.Set("x", 7)

	if _, ok := c.Get("x"); !ok {
		t.Fatal("Get(x) missed before expiry")
	}

	time.Sleep(80 * time.Millisecond)

	if _, ok := c.Get("x"); ok {
		t.Error("Get(x) hit after expiry, want miss")
	}
	// Lazy removal: the expired read purged the entry.
	if c.Len() != 0 {
		t.Errorf("Len() = %d after expired read, want 0", c.Len())
	}
}

func TestBoundedTTLCache_SetTTLOverride(t *testing.T) {
	c := newTestCache(t, 100, time.Minute)

	c.SetTTL("short", 1, 30*time.Millisecond)
	c.Set("long", 2)

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("short-TTL entry survived its override")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("default-TTL entry expired prematurely")
	}
}

func TestBoundedTTLCache_Delete(t *testing.T) {
	c := newTestCache(t, 10, time.Minute)

	c.Set("a", 1)

	if !c.Delete("a") {
		t.Error("Delete(a) = false, want true")
	}
	if c.Delete("a") {
		t.Error("second Delete(a) = true, want false")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) hit after delete")
	}
}

func TestBoundedTTLCache_Clear(t *testing.T) {
	c := newTestCache(t, 10, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if removed := c.Clear(); removed != 3 {
		t.Errorf("Clear() = %d, want 3", removed)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after clear, want 0", c.Len())
	}
	for _, key := range []string{"a", "b", "c"} {
		if _, ok := c.Get(key); ok {
			t.Errorf("Get(%s) hit after clear", key)
		}
	}
	// Idempotent
	if removed := c.Clear(); removed != 0 {
		t.Errorf("second Clear() = %d, want 0", removed)
	}
}

func TestBoundedTTLCache_Sweep(t *testing.T) {
	c := newTestCache(t, 100, 20*time.Millisecond)

	var swept atomic.Int64
	c.StartSweep(10*time.Millisecond, func(removed int) {
		swept.Add(int64(removed))
	})

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}

	time.Sleep(80 * time.Millisecond)

	// The sweep reclaims expired entries without any reads.
	if c.Len() != 0 {
		t.Errorf("Len() = %d after sweep, want 0", c.Len())
	}
	if swept.Load() != 5 {
		t.Errorf("sweep hook saw %d removals, want 5", swept.Load())
	}
}

func TestBoundedTTLCache_Oldest(t *testing.T) {
	c := newTestCache(t, 10, time.Minute)

	if _, _, ok := c.Oldest(); ok {
		t.Error("Oldest() on empty cache reported an entry")
	}

	c.Set("a", 1)
	c.Set("b", 2)

	key, value, ok := c.Oldest()
	if !ok || key != "a" || value != 1 {
		t.Errorf("Oldest() = %q, %d, %v; want a, 1, true", key, value, ok)
	}

	// Reading a promotes it; b becomes the least recently used.
	c.Get("a")
	if key, _, _ := c.Oldest(); key != "b" {
		t.Errorf("Oldest() = %q after reading a, want b", key)
	}
}

func TestBoundedTTLCache_Capacity(t *testing.T) {
	c := newTestCache(t, 42, time.Minute)
	if c.Capacity() != 42 {
		t.Errorf("Capacity() = %d, want 42", c.Capacity())
	}
}
