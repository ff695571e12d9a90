// Package cache provides the in-process cache subsystem fronting the
// portfolio-analytics backend's two expensive computations: token price
// lookups and materialized analytical reports.
//
// The package combines three pieces:
//
// - BoundedTTLCache: a generic bounded store with TTL expiration and LRU
// eviction (O(1) get/set, lazy expiry, optional background sweep)
// - Group: single-flight de-duplication so a burst of concurrent misses for
// one key performs the expensive computation exactly once
// - Manager: the façade composing one cache and one flight group per domain
// (token, report) with atomic counters and Prometheus collectors
//
// # Basic Usage
//
//	cfg := cache.ConfigFromEnv()
//	manager, err := cache.NewManager(cfg, logger)
//	if err != nil {
//		return err
//	}
//	defer manager.Close()
//
//	key := cache.TokenKey(mint)
//	value, err := manager.GetOrCompute(ctx, cache.DomainToken, key,
//		func(ctx context.Context) (any, error) {
//			return priceClient.TokenPrice(ctx, mint)
//		})
//
// The compute function is supplied per call and is the only place external
// I/O happens; the cache imposes no schema on the value. Failed computations
// are never cached, so a transient upstream outage self-heals on the next
// request.
//
// # Management
//
//	manager.Invalidate(cache.DomainToken, key)   // drop one known-stale entry
//	manager.Clear(cache.ClearAll)                // empty both domains
//	snap := manager.Snapshot()                   // counters for the dashboard
//	health := manager.Health()                   // healthy | degraded
//
// # Metrics
//
// Besides the JSON snapshot, the package exports Prometheus metrics:
//
//   - portfolio_cache_hits_total{domain} - Cache hits
//   - portfolio_cache_misses_total{domain} - Cache misses
//   - portfolio_cache_errors_total{domain} - Failed computations
//   - portfolio_cache_request_duration_seconds{domain,outcome} - Latency
//   - portfolio_cache_entries{domain} - Resident entries
//
// # Concurrency
//
// A single Manager instance is shared by all request handlers. Each domain
// guards its map and recency order with one mutex held only for O(1) work;
// the flight group keeps its own bookkeeping, so no cache lock is ever held
// across a compute call. Within a key, visibility is linearizable: once a
// Set completes, every subsequent Get observes the new value or a later
// eviction or expiry.
package cache
