package cache

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TokenSize != DefaultTokenSize {
		t.Errorf("TokenSize = %d, want %d", cfg.TokenSize, DefaultTokenSize)
	}
	if cfg.TokenTTL != DefaultTokenTTL {
		t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, DefaultTokenTTL)
	}
	if cfg.ReportSize != DefaultReportSize {
		t.Errorf("ReportSize = %d, want %d", cfg.ReportSize, DefaultReportSize)
	}
	if !cfg.EnableMetrics {
		t.Error("EnableMetrics = false, want true by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CACHE_TOKEN_SIZE", "500")
	t.Setenv("CACHE_TOKEN_TTL", "120")
	t.Setenv("CACHE_REPORT_SIZE", "25")
	t.Setenv("CACHE_REPORT_TTL", "600")
	t.Setenv("CACHE_ENABLE_METRICS", "false")
	t.Setenv("CACHE_SWEEP_SECONDS", "0")

	cfg := ConfigFromEnv()

	if cfg.TokenSize != 500 {
		t.Errorf("TokenSize = %d, want 500", cfg.TokenSize)
	}
	if cfg.TokenTTL != 120*time.Second {
		t.Errorf("TokenTTL = %v, want 2m", cfg.TokenTTL)
	}
	if cfg.ReportSize != 25 {
		t.Errorf("ReportSize = %d, want 25", cfg.ReportSize)
	}
	if cfg.ReportTTL != 600*time.Second {
		t.Errorf("ReportTTL = %v, want 10m", cfg.ReportTTL)
	}
	if cfg.EnableMetrics {
		t.Error("EnableMetrics = true, want false")
	}
	if cfg.SweepInterval != 0 {
		t.Errorf("SweepInterval = %v, want 0", cfg.SweepInterval)
	}
}

func TestConfigFromEnv_UnparseableFallsBack(t *testing.T) {
	t.Setenv("CACHE_TOKEN_SIZE", "not-a-number")

	cfg := ConfigFromEnv()
	if cfg.TokenSize != DefaultTokenSize {
		t.Errorf("TokenSize = %d, want default %d", cfg.TokenSize, DefaultTokenSize)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero token size", func(c *Config) { c.TokenSize = 0 }, true},
		{"negative report size", func(c *Config) { c.ReportSize = -5 }, true},
		{"zero token ttl", func(c *Config) { c.TokenTTL = 0 }, true},
		{"zero report ttl", func(c *Config) { c.ReportTTL = 0 }, true},
		{"negative sweep", func(c *Config) { c.SweepInterval = -time.Second }, true},
		{"threshold above one", func(c *Config) { c.ErrorRateThreshold = 1.5 }, true},
		{"threshold negative", func(c *Config) { c.ErrorRateThreshold = -0.1 }, true},
		{"sweep disabled is valid", func(c *Config) { c.SweepInterval = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
