package cache

import (
	"testing"
	"time"
)

func TestEntry_IsExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"an hour past", now.Add(-time.Hour), true},
		{"just past", now.Add(-time.Millisecond), true},
		{"exactly at expiration", now, true},
		{"a moment ahead", now.Add(time.Hour), false},
		{"far ahead", now.Add(24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry[int]{Value: 1, ExpiresAt: tt.expiresAt, StoredAt: now}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_CarriesArbitraryPayloads(t *testing.T) {
	expires := time.Now().Add(time.Hour)

	price := &Entry[float64]{Value: 142.37, ExpiresAt: expires}
	if price.Value != 142.37 {
		t.Errorf("float payload = %v, want 142.37", price.Value)
	}

	type reportRows struct {
		Wallets []string
	}
	rows := &Entry[*reportRows]{
		Value:     &reportRows{Wallets: []string{"w1", "w2"}},
		ExpiresAt: expires,
	}
	if len(rows.Value.Wallets) != 2 {
		t.Errorf("struct payload wallets = %d, want 2", len(rows.Value.Wallets))
	}
	if rows.IsExpired() {
		t.Error("IsExpired() = true for a live entry")
	}
}

func TestEntry_TTL(t *testing.T) {
	fresh := &Entry[string]{ExpiresAt: time.Now().Add(30 * time.Minute)}
	if ttl := fresh.TTL(); ttl <= 29*time.Minute || ttl > 30*time.Minute {
		t.Errorf("TTL() = %v, want close to 30m", ttl)
	}

	// Never negative, even long past expiration.
	stale := &Entry[string]{ExpiresAt: time.Now().Add(-time.Hour)}
	if ttl := stale.TTL(); ttl != 0 {
		t.Errorf("TTL() = %v for expired entry, want 0", ttl)
	}
}
