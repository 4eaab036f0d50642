package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/wearable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "store", cfg.Bridge.Kind)
	assert.Equal(t, "ios", cfg.Bridge.Platform)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Sync.Interval())
	assert.Equal(t, 10*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Sync.IdleReset)
	assert.Equal(t, "wearable:sync_events", cfg.Redis.Stream)
	assert.Equal(t, "wearable-snapshots", cfg.Azure.Storage.ArchiveContainer)
	assert.False(t, cfg.Azure.Storage.Enabled())
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/wearable")
	t.Setenv("PORT", "9090")
	t.Setenv("HEALTH_BRIDGE", "remote")
	t.Setenv("HEALTH_PLATFORM", "android")
	t.Setenv("HEALTH_AGENT_URL", "http://agent:7070")
	t.Setenv("AUTO_SYNC_ENABLED", "false")
	t.Setenv("AUTO_SYNC_INTERVAL_MINUTES", "15")
	t.Setenv("SYNC_TIMEOUT", "5s")
	t.Setenv("SYNC_TIMEZONE", "UTC")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "remote", cfg.Bridge.Kind)
	assert.Equal(t, "android", cfg.Bridge.Platform)
	assert.Equal(t, "http://agent:7070", cfg.Bridge.RemoteURL)
	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval())
	assert.Equal(t, 5*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)

	loc, err := cfg.Sync.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{URL: "postgres://localhost/wearable"},
			Bridge:   BridgeConfig{Kind: "store"},
			Sync:     SyncConfig{IntervalMinutes: 30, Timeout: 10 * time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing database", func(c *Config) { c.Database.URL = "" }, "database.url is required"},
		{"unknown bridge", func(c *Config) { c.Bridge.Kind = "bluetooth" }, "bridge.kind must be store or remote"},
		{"remote without url", func(c *Config) { c.Bridge.Kind = "remote" }, "bridge.remoteurl is required"},
		{"zero interval", func(c *Config) { c.Sync.IntervalMinutes = 0 }, "sync.intervalminutes must be positive"},
		{"zero timeout", func(c *Config) { c.Sync.Timeout = 0 }, "sync.timeout must be positive"},
		{"half azure credentials", func(c *Config) { c.Azure.Storage.AccountName = "acct" }, "azure storage needs both"},
		{"short encryption key", func(c *Config) { c.Azure.Storage.EncryptionKey = "c2hvcnQ=" }, "invalid snapshot encryption key"},
		{"bad timezone", func(c *Config) { c.Sync.Timezone = "Mars/Olympus" }, "failed to load timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
