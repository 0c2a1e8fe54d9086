package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("EXEMPTION_POLICY", "")
	t.Setenv("RELIEF_MODE", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "current", cfg.ExemptionPolicy)
	assert.Equal(t, "record", cfg.ReliefMode)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EXEMPTION_POLICY", "contract-exempt")
	t.Setenv("RELIEF_MODE", "apply")
	t.Setenv("RULES_FILE", "rules.yaml")
	t.Setenv("RULES_RELOAD_INTERVAL", "5m")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := Load()
	assert.Equal(t, "contract-exempt", cfg.ExemptionPolicy)
	assert.Equal(t, 5*time.Minute, cfg.RulesReloadEvery)
	assert.False(t, cfg.MetricsEnabled)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{
		ExemptionPolicy:    "current",
		ReliefMode:         "record",
		LogLevel:           "info",
		MaxBodyBytes:       4096,
		RateLimitPerMinute: 10,
		RegisterWorkers:    2,
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown policy", mutate: func(c *Config) { c.ExemptionPolicy = "everyone-exempt" }, wantErr: "EXEMPTION_POLICY"},
		{name: "unknown relief mode", mutate: func(c *Config) { c.ReliefMode = "maybe" }, wantErr: "RELIEF_MODE"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "LOG_LEVEL"},
		{name: "tiny body", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, wantErr: "MAX_BODY_BYTES"},
		{name: "no rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }, wantErr: "RATE_LIMIT_PER_MINUTE"},
		{name: "no workers", mutate: func(c *Config) { c.RegisterWorkers = 0 }, wantErr: "REGISTER_WORKERS"},
		{name: "reload without source", mutate: func(c *Config) { c.RulesReloadEvery = time.Minute }, wantErr: "RULES_RELOAD_INTERVAL"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
