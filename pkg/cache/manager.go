package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Domain names one cache instance with its own capacity, TTL and metrics.
type Domain string

const (
	// DomainToken caches token price lookups.
	DomainToken Domain = "token"

	// DomainReport caches materialized analytical reports.
	DomainReport Domain = "report"
)

// Selector values accepted by Clear.
const (
	ClearAll = "all"
)

var (
	// ErrUnknownDomain indicates a domain name the manager does not serve.
	ErrUnknownDomain = errors.New("unknown cache domain")
)

// healthProbeKey is reserved for Health round-trips.
const healthProbeKey = "__health_probe__"

// domainCache bundles the store, flight group and counters of one domain.
type domainCache struct {
	store    *BoundedTTLCache[string, any]
	group    *Group[any]
	recorder *Recorder
	ttl      time.Duration
}

// syncGauge mirrors the resident entry count into Prometheus.
func (dc *domainCache) syncGauge(domain Domain) {
	cacheEntries.WithLabelValues(string(domain)).Set(float64(dc.store.Len()))
}

// Manager is the cache subsystem façade. It composes one BoundedTTLCache and
// one single-flight Group per domain and aggregates their metrics.
//
// A Manager is constructed once at startup with injected configuration and
// shared by all request handlers; all methods are safe for concurrent use.
type Manager struct {
	cfg    Config
	token  *domainCache
	report *domainCache
	logger zerolog.Logger
}

// NewManager creates a manager from the given configuration.
// Invalid configuration fails construction.
func NewManager(cfg Config, logger zerolog.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}

	token, err := newDomainCache(cfg.TokenSize, cfg.TokenTTL, string(DomainToken), cfg)
	if err != nil {
		return nil, err
	}
	report, err := newDomainCache(cfg.ReportSize, cfg.ReportTTL, string(DomainReport), cfg)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:    cfg,
		token:  token,
		report: report,
		logger: logger,
	}

	logger.Info().
		Int("token_size", cfg.TokenSize).
		Dur("token_ttl", cfg.TokenTTL).
		Int("report_size", cfg.ReportSize).
		Dur("report_ttl", cfg.ReportTTL).
		Bool("metrics", cfg.EnableMetrics).
		Msg("cache manager initialized")

	return m, nil
}

func newDomainCache(capacity int, ttl time.Duration, domain string, cfg Config) (*domainCache, error) {
	store, err := NewBoundedTTLCache[string, any](capacity, ttl)
	if err != nil {
		return nil, fmt.Errorf("%s cache: %w", domain, err)
	}
	dc := &domainCache{
		store:    store,
		group:    &Group[any]{},
		recorder: NewRecorder(domain, cfg.EnableMetrics),
		ttl:      ttl,
	}
	if cfg.SweepInterval > 0 {
		store.StartSweep(cfg.SweepInterval, func(int) {
			dc.syncGauge(Domain(domain))
		})
	}
	return dc, nil
}

// Close stops the background sweepers of both domains.
func (m *Manager) Close() {
	m.token.store.Close()
	m.report.store.Close()
}

// domain resolves a domain name to its cache bundle.
func (m *Manager) domain(d Domain) (*domainCache, error) {
	switch d {
	case DomainToken:
		return m.token, nil
	case DomainReport:
		return m.report, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}
}

// GetOrCompute returns the cached value under key, or computes it.
//
// A hit returns immediately without invoking fn. A miss routes through the
// domain's single-flight group, so concurrent misses for the same key share
// one fn invocation; the successful result is stored with the domain TTL.
// A failed fn is propagated unchanged to every waiter and nothing is cached,
// so the next call retries. The cache lock is never held across fn.
func (m *Manager) GetOrCompute(ctx context.Context, domain Domain, key string, fn ComputeFunc[any]) (any, error) {
	dc, err := m.domain(domain)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	if value, ok := dc.store.Get(key); ok {
		dc.recorder.Hit(time.Since(start))
		m.logger.Debug().
			Str("domain", string(domain)).
			Str("key", key).
			Msg("cache hit")
		return value, nil
	}
	// The missed Get may have lazily removed an expired entry.
	dc.syncGauge(domain)

	value, err := dc.group.Do(ctx, key, func(ctx context.Context) (any, error) {
		// Re-check under the flight: a sibling may have stored the value
		// between our miss and the flight starting.
		if value, ok := dc.store.Get(key); ok {
			return value, nil
		}
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		dc.store.Set(key, value)
		return value, nil
	})

	elapsed := time.Since(start)
	dc.recorder.Miss(elapsed)

	if err != nil {
		dc.recorder.Error()
		m.logger.Warn().
			Err(err).
			Str("domain", string(domain)).
			Str("key", key).
			Dur("duration", elapsed).
			Msg("cache compute failed")
		return nil, err
	}

	dc.syncGauge(domain)
	m.logger.Debug().
		Str("domain", string(domain)).
		Str("key", key).
		Dur("duration", elapsed).
		Msg("cache miss computed")

	return value, nil
}

// Invalidate removes a single entry, for when an upstream event makes a
// cached value known-stale before its TTL. Any in-flight computation record
// for the key is dropped as well, so the next lookup starts fresh instead of
// attaching to a computation begun before the invalidation. It returns true
// if a stored entry existed.
func (m *Manager) Invalidate(domain Domain, key string) (bool, error) {
	dc, err := m.domain(domain)
	if err != nil {
		return false, err
	}
	dc.group.Forget(key)
	existed := dc.store.Delete(key)
	dc.syncGauge(domain)
	return existed, nil
}

// Clear empties the selected domain ("token", "report") or both ("all") and
// returns the number of entries removed. Metrics counters are not reset.
func (m *Manager) Clear(selector string) (int, error) {
	var removed int

	switch selector {
	case string(DomainToken):
		removed = m.token.store.Clear()
		m.token.syncGauge(DomainToken)
	case string(DomainReport):
		removed = m.report.store.Clear()
		m.report.syncGauge(DomainReport)
	case ClearAll:
		removed = m.token.store.Clear() + m.report.store.Clear()
		m.token.syncGauge(DomainToken)
		m.report.syncGauge(DomainReport)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDomain, selector)
	}

	m.logger.Info().
		Str("selector", selector).
		Int("entries_removed", removed).
		Msg("cache cleared")

	return removed, nil
}

// ResetMetrics zeroes the counters of both domains. This is the explicit
// administrative reset; Clear never touches metrics.
func (m *Manager) ResetMetrics() {
	m.token.recorder.Reset()
	m.report.recorder.Reset()
}

// Snapshot returns a read-only copy of the current counters and sizes of
// both domains.
func (m *Manager) Snapshot() Snapshot {
	return Snapshot{
		Token:  m.token.recorder.stats(m.token.store.Len(), m.token.store.Capacity(), m.token.ttl),
		Report: m.report.recorder.stats(m.report.store.Len(), m.report.store.Capacity(), m.report.ttl),
	}
}

// HealthStatus reports the outcome of a cache health check.
type HealthStatus struct {
	Status string          `json:"status"` // "healthy" or "degraded"
	Checks map[string]bool `json:"checks"`
}

// Healthy reports whether every check passed.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// Health performs a set/get/delete round-trip on both domains and compares
// each domain's error rate against the configured threshold.
func (m *Manager) Health() HealthStatus {
	checks := map[string]bool{
		"token_cache_operational":  roundTrip(m.token.store),
		"report_cache_operational": roundTrip(m.report.store),
		"token_error_rate_ok":      m.token.recorder.ErrorRate() <= m.cfg.ErrorRateThreshold,
		"report_error_rate_ok":     m.report.recorder.ErrorRate() <= m.cfg.ErrorRateThreshold,
	}

	status := "healthy"
	for _, ok := range checks {
		if !ok {
			status = "degraded"
			break
		}
	}

	return HealthStatus{Status: status, Checks: checks}
}

// roundTrip verifies basic store operation with a reserved probe key.
// At capacity inserting the probe would evict a live entry, so the check
// then reads the oldest resident entry instead.
func roundTrip(store *BoundedTTLCache[string, any]) bool {
	if store.Len() >= store.Capacity() {
		_, _, ok := store.Oldest()
		return ok
	}

	probe := time.Now().UnixNano()
	store.SetTTL(healthProbeKey, probe, time.Minute)
	value, ok := store.Get(healthProbeKey)
	store.Delete(healthProbeKey)
	return ok && value == probe
}
