package cache

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks cache hits by domain (token, report)
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_hits_total",
			Help: "Total number of cache hits by domain",
		},
		[]string{"domain"},
	)

	// cacheMisses tracks cache misses by domain
	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_misses_total",
			Help: "Total number of cache misses by domain",
		},
		[]string{"domain"},
	)

	// cacheErrors tracks failed computations by domain
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_errors_total",
			Help: "Total number of failed cache computations by domain",
		},
		[]string{"domain"},
	)

	// cacheRequestDuration tracks lookup latency by domain and outcome
	cacheRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_cache_request_duration_seconds",
			Help:    "Cache request duration by domain and outcome",
			Buckets: []float64{.0001, .001, .01, .1, .5, 1, 2.5, 5, 10},
		},
		[]string{"domain", "outcome"}, // outcome: "hit", "miss"
	)

	// cacheEntries tracks resident entries by domain
	cacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portfolio_cache_entries",
			Help: "Current number of resident cache entries by domain",
		},
		[]string{"domain"},
	)
)

// Recorder accumulates per-domain cache counters with atomic operations.
// Counters are process-lifetime scoped and reset only by an explicit
// administrative Reset. The same observations are mirrored into the
// package's Prometheus collectors.
type Recorder struct {
	domain  string
	enabled bool

	hits          atomic.Int64
	misses        atomic.Int64
	errors        atomic.Int64
	hitLatencyNs  atomic.Int64
	missLatencyNs atomic.Int64
}

// NewRecorder creates a recorder for the named domain. When enabled is
// false every observation is a no-op and all counters read zero.
func NewRecorder(domain string, enabled bool) *Recorder {
	return &Recorder{domain: domain, enabled: enabled}
}

// Hit records a cache hit and its lookup latency.
func (r *Recorder) Hit(elapsed time.Duration) {
	if !r.enabled {
		return
	}
	r.hits.Add(1)
	r.hitLatencyNs.Add(elapsed.Nanoseconds())
	cacheHits.WithLabelValues(r.domain).Inc()
	cacheRequestDuration.WithLabelValues(r.domain, "hit").Observe(elapsed.Seconds())
}

// Miss records a cache miss and the latency of serving it, compute included.
func (r *Recorder) Miss(elapsed time.Duration) {
	if !r.enabled {
		return
	}
	r.misses.Add(1)
	r.missLatencyNs.Add(elapsed.Nanoseconds())
	cacheMisses.WithLabelValues(r.domain).Inc()
	cacheRequestDuration.WithLabelValues(r.domain, "miss").Observe(elapsed.Seconds())
}

// Error records a failed computation.
func (r *Recorder) Error() {
	if !r.enabled {
		return
	}
	r.errors.Add(1)
	cacheErrors.WithLabelValues(r.domain).Inc()
}

// Reset zeroes all counters. Prometheus counters are monotonic and are
// left untouched.
func (r *Recorder) Reset() {
	r.hits.Store(0)
	r.misses.Store(0)
	r.errors.Store(0)
	r.hitLatencyNs.Store(0)
	r.missLatencyNs.Store(0)
}

// ErrorRate returns errors relative to total requests, in [0, 1].
func (r *Recorder) ErrorRate() float64 {
	total := r.hits.Load() + r.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(r.errors.Load()) / float64(total)
}

// DomainStats is a read-only snapshot of one domain's counters and sizing,
// shaped for the monitoring surface.
type DomainStats struct {
	Hits             int64   `json:"hits"`
	Misses           int64   `json:"misses"`
	Errors           int64   `json:"errors"`
	HitRatePercent   float64 `json:"hit_rate_percent"`
	AvgHitLatencyMs  float64 `json:"avg_hit_latency_ms"`
	AvgMissLatencyMs float64 `json:"avg_miss_latency_ms"`
	CurrentSize      int     `json:"current_size"`
	Capacity         int     `json:"capacity"`
	TTLSeconds       int64   `json:"ttl_seconds"`
}

// Snapshot holds the stats of both cache domains.
type Snapshot struct {
	Token  DomainStats `json:"token_cache"`
	Report DomainStats `json:"report_cache"`
}

// stats materializes the current counters alongside the cache sizing.
func (r *Recorder) stats(size, capacity int, ttl time.Duration) DomainStats {
	hits := r.hits.Load()
	misses := r.misses.Load()

	s := DomainStats{
		Hits:        hits,
		Misses:      misses,
		Errors:      r.errors.Load(),
		CurrentSize: size,
		Capacity:    capacity,
		TTLSeconds:  int64(ttl.Seconds()),
	}
	if total := hits + misses; total > 0 {
		s.HitRatePercent = float64(hits) / float64(total) * 100
	}
	if hits > 0 {
		s.AvgHitLatencyMs = float64(r.hitLatencyNs.Load()) / float64(hits) / 1e6
	}
	if misses > 0 {
		s.AvgMissLatencyMs = float64(r.missLatencyNs.Load()) / float64(misses) / 1e6
	}
	return s
}
