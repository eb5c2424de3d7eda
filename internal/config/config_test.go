package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SUPABASE_URL", "https://demo.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envKeys {
		t.Setenv(env, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.True(t, cfg.Server.CookieSecure)
		assert.Equal(t, 12*time.Hour, cfg.Server.SessionTTL)
		assert.Equal(t, 10, cfg.Server.LoginRatePerMinute)
		assert.Empty(t, cfg.Server.AllowedOrigins)
		assert.Equal(t, DriverREST, cfg.Backend.Driver)
		assert.Equal(t, "https://demo.supabase.co", cfg.Backend.URL, "trailing slash trimmed")
		assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, 25, cfg.Backend.RecentLimit)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.False(t, cfg.AIEnabled())
	})

	t.Run("environment overrides", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
		t.Setenv("COOKIE_SECURE", "false")
		t.Setenv("SESSION_TTL", "30m")
		t.Setenv("BACKEND_DRIVER", "Postgres")
		t.Setenv("DATABASE_URL", "postgres://localhost/erp")
		t.Setenv("BACKEND_TIMEOUT", "5s")
		t.Setenv("RECENT_LIMIT", "50")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("REDIS_DB", "2")
		t.Setenv("OPENAI_API_KEY", "sk-test")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.Server.Port)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
		assert.False(t, cfg.Server.CookieSecure)
		assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
		assert.Equal(t, DriverPostgres, cfg.Backend.Driver)
		assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, 50, cfg.Backend.RecentLimit)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, 2, cfg.Redis.DB)
		assert.True(t, cfg.AIEnabled())
	})

	t.Run("missing backend settings", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SUPABASE_URL is required")
		assert.Contains(t, err.Error(), "SUPABASE_ANON_KEY is required")
	})

	t.Run("postgres driver needs a database url", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("BACKEND_DRIVER", "postgres")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL is required")
	})

	t.Run("unknown driver", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("BACKEND_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BACKEND_DRIVER")
	})
}
