package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, config.BackendSample, cfg.OrderBackend)
	assert.Equal(t, config.CacheMemory, cfg.CacheBackend)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ORDER_BACKEND", "http")
	t.Setenv("ORDER_API_URL", "http://orders:8000")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_DB", "2")

	cfg := config.Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, config.BackendHTTP, cfg.OrderBackend)
	assert.Equal(t, "http://orders:8000", cfg.OrderAPIURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, config.CacheRedis, cfg.CacheBackend)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"unknown backend", func(c *config.Config) { c.OrderBackend = "mongo" }},
		{"http without url", func(c *config.Config) { c.OrderBackend = config.BackendHTTP; c.OrderAPIURL = "" }},
		{"supabase without key", func(c *config.Config) {
			c.OrderBackend = config.BackendSupabase
			c.SupabaseURL = "https://x.supabase.co"
		}},
		{"unknown cache", func(c *config.Config) { c.CacheBackend = "memcached" }},
		{"bad port", func(c *config.Config) { c.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nREDIS_ADDR=\"cache:6379\"\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("REDIS_ADDR", "")
	os.Unsetenv("REDIS_ADDR")

	require.NoError(t, config.LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("REDIS_ADDR") })

	cfg := config.Load()
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.Error(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
