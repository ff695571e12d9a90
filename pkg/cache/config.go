package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default sizing per domain. Token prices are many and small; reports are
// few and large.
const (
	DefaultTokenSize  = 10000
	DefaultTokenTTL   = time.Hour
	DefaultReportSize = 1000
	DefaultReportTTL  = time.Hour

	DefaultSweepInterval      = time.Minute
	DefaultErrorRateThreshold = 0.10
)

// Config holds cache subsystem configuration.
type Config struct {
	// TokenSize is the token cache capacity in entries.
	TokenSize int

	// TokenTTL is the default time-to-live of token price entries.
	TokenTTL time.Duration

	// ReportSize is the report cache capacity in entries.
	ReportSize int

	// ReportTTL is the default time-to-live of report entries.
	ReportTTL time.Duration

	// EnableMetrics toggles counter recording (default: true).
	EnableMetrics bool

	// SweepInterval is how often expired entries are purged in the
	// background. Zero disables the sweep; expiry is then lazy only.
	SweepInterval time.Duration

	// ErrorRateThreshold is the error rate above which a domain reports
	// degraded health, in [0, 1].
	ErrorRateThreshold float64
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		TokenSize:          DefaultTokenSize,
		TokenTTL:           DefaultTokenTTL,
		ReportSize:         DefaultReportSize,
		ReportTTL:          DefaultReportTTL,
		EnableMetrics:      true,
		SweepInterval:      DefaultSweepInterval,
		ErrorRateThreshold: DefaultErrorRateThreshold,
	}
}

// ConfigFromEnv loads configuration from environment variables, falling back
// to defaults for unset or unparseable values.
//
// Recognized variables: CACHE_TOKEN_SIZE, CACHE_TOKEN_TTL (seconds),
// CACHE_REPORT_SIZE, CACHE_REPORT_TTL (seconds), CACHE_ENABLE_METRICS,
// CACHE_SWEEP_SECONDS, CACHE_ERROR_RATE_THRESHOLD.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.TokenSize = envInt("CACHE_TOKEN_SIZE", cfg.TokenSize)
	cfg.TokenTTL = envSeconds("CACHE_TOKEN_TTL", cfg.TokenTTL)
	cfg.ReportSize = envInt("CACHE_REPORT_SIZE", cfg.ReportSize)
	cfg.ReportTTL = envSeconds("CACHE_REPORT_TTL", cfg.ReportTTL)
	cfg.EnableMetrics = envBool("CACHE_ENABLE_METRICS", cfg.EnableMetrics)
	cfg.SweepInterval = envSeconds("CACHE_SWEEP_SECONDS", cfg.SweepInterval)
	cfg.ErrorRateThreshold = envFloat("CACHE_ERROR_RATE_THRESHOLD", cfg.ErrorRateThreshold)

	return cfg
}

// Validate checks the configuration for values that would make the cache
// unusable. Invalid configuration is a fatal startup error, not a runtime
// one.
func (c Config) Validate() error {
	if c.TokenSize <= 0 {
		return fmt.Errorf("token cache size must be positive, got %d", c.TokenSize)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token cache ttl must be positive, got %s", c.TokenTTL)
	}
	if c.ReportSize <= 0 {
		return fmt.Errorf("report cache size must be positive, got %d", c.ReportSize)
	}
	if c.ReportTTL <= 0 {
		return fmt.Errorf("report cache ttl must be positive, got %s", c.ReportTTL)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("sweep interval must not be negative, got %s", c.SweepInterval)
	}
	if c.ErrorRateThreshold < 0 || c.ErrorRateThreshold > 1 {
		return fmt.Errorf("error rate threshold must be in [0, 1], got %g", c.ErrorRateThreshold)
	}
	return nil
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Second
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
