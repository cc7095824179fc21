package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AdminTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.StaffTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.CustomerTTL)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.False(t, cfg.Google.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_NodeEnvProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ProductionSecureCookies(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")
	t.Setenv("ADMIN_EMAIL", "Owner@Example.com")
	t.Setenv("ADMIN_PASSWORD", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.Equal(t, "owner@example.com", cfg.Auth.AdminEmail)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:    ServerConfig{Env: "development"},
			Database:  DatabaseConfig{URL: "file::memory:"},
			Auth:      AuthConfig{JWTSecret: "s", AdminTTL: time.Hour, StaffTTL: time.Hour, CustomerTTL: time.Hour},
			RateLimit: RateLimitConfig{LoginPerMinute: 1, LoginBurst: 1},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validateConfig(base()))
	})

	t.Run("zero ttl", func(t *testing.T) {
		cfg := base()
		cfg.Auth.StaffTTL = 0
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("production insecure cookies", func(t *testing.T) {
		cfg := base()
		cfg.Server.Env = "prod"
		cfg.Auth.JWTSecret = "real"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("production admin without password", func(t *testing.T) {
		cfg := base()
		cfg.Server.Env = "release"
		cfg.Auth.JWTSecret = "real"
		cfg.Auth.CookieSecure = true
		cfg.Auth.AdminEmail = "a@b.c"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("bad smtp port", func(t *testing.T) {
		cfg := base()
		cfg.SMTP = SMTPConfig{Host: "smtp", Port: 0}
		assert.Error(t, validateConfig(cfg))
	})
}
