package pricing

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	pricingRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_pricing_retries_total",
		Help: "Total number of pricing API retry attempts",
	})

	pricingRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_pricing_retry_exhausted_total",
		Help: "Total number of pricing requests that exhausted retries",
	})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// WithRetry decorates fn with exponential backoff and jitter. Retry policy
// lives here, around the compute function, so the cache layer stays free of
// it: a request the cache coalesces still performs at most one retrying
// computation.
//
// Client errors (4xx other than 429) are not retried. Context cancellation
// stops retrying immediately.
func WithRetry[V any](cfg RetryConfig, logger zerolog.Logger, fn func(ctx context.Context) (V, error)) func(ctx context.Context) (V, error) {
	return func(ctx context.Context) (V, error) {
		var zero V
		var lastErr error
		backoff := cfg.InitialBackoff

		for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
			value, err := fn(ctx)
			if err == nil {
				return value, nil
			}
			lastErr = err

			if !shouldRetry(err) || attempt == cfg.MaxAttempts {
				break
			}

			// Add up to 25% jitter to avoid synchronized retries.
			sleep := backoff + time.Duration(rand.Int63n(int64(backoff)/4+1))
			if sleep > cfg.MaxBackoff {
				sleep = cfg.MaxBackoff
			}

			pricingRetriesTotal.Inc()
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("backoff", sleep).
				Msg("pricing request failed, retrying")

			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return zero, ctx.Err()
			}

			backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}

		if shouldRetry(lastErr) {
			pricingRetryExhaustedTotal.Inc()
		}
		return zero, lastErr
	}
}

// shouldRetry classifies an error as transient or permanent.
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrInvalidMint) || errors.Is(err, ErrNoPairData) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// Network-level failures are transient.
	return true
}
