package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultJWTSecret   = "change-me-jwt-secret"
	defaultAdminTTL    = "24h"
	defaultStaffTTL    = "168h"
	defaultCustomerTTL = "24h"
)

// AuthConfig holds everything the session layer and admin login need.
type AuthConfig struct {
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
	AdminTTL      time.Duration
	StaffTTL      time.Duration
	CustomerTTL   time.Duration
	CookieSecure  bool
}

func validateConfig(cfg *Config) error {
	if cfg.Auth.AdminTTL <= 0 {
		return fmt.Errorf("ADMIN_TOKEN_TTL must be > 0")
	}
	if cfg.Auth.StaffTTL <= 0 {
		return fmt.Errorf("STAFF_TOKEN_TTL must be > 0")
	}
	if cfg.Auth.CustomerTTL <= 0 {
		return fmt.Errorf("CUSTOMER_TOKEN_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.SMTP.Enabled() && (cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535) {
		return fmt.Errorf("SMTP_PORT must be a valid port, got %d", cfg.SMTP.Port)
	}
	if cfg.RateLimit.LoginPerMinute <= 0 || cfg.RateLimit.LoginBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE and LOGIN_BURST must be > 0")
	}

	if isProdLike(cfg.Server.Env) {
		if isEmptyOrDefault(cfg.Auth.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in production JWT_SECRET must be set and not default")
		}
		if cfg.Auth.AdminEmail != "" && strings.TrimSpace(cfg.Auth.AdminPassword) == "" {
			return fmt.Errorf("in production ADMIN_PASSWORD must be set when ADMIN_EMAIL is")
		}
		if !cfg.Auth.CookieSecure {
			return fmt.Errorf("in production COOKIE_SECURE must be true")
		}
	} else if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
