package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arunika-studio/backend-arunika/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/arunika",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, 8*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, "60-M", cfg.QuoteRateLimit)
	require.False(t, cfg.StrictRateKeys)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["CATALOG_STRICT_RATE_KEYS"] = "true"
	env["CATALOG_CACHE_TTL"] = "30s"
	env["CORS_ALLOWED_ORIGINS"] = "https://studio.example, https://admin.example"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.True(t, cfg.StrictRateKeys)
	require.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
	require.Equal(t, []string{"https://studio.example", "https://admin.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadRequiresCoreKeys(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	_, err := config.LoadForTests(env)
	require.Error(t, err)

	env = baseEnv()
	env["JWT_SECRET"] = ""
	_, err = config.LoadForTests(env)
	require.Error(t, err)
}
