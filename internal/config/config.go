package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Google    GoogleConfig
	SMTP      SMTPConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cleanup   CleanupConfig
	LogLevel  string
}

type ServerConfig struct {
	Env            string
	Addr           string
	FrontendURL    string
	AllowedOrigins []string
	MetricsToken   string
}

type DatabaseConfig struct {
	URL string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURI != ""
}

type SMTPConfig struct {
	Host   string
	Port   int
	Secure bool
	User   string
	Pass   string
	From   string
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

// CleanupConfig drives cmd/cleanup.
type CleanupConfig struct {
	NotificationRetention time.Duration
}

func (s ServerConfig) IsProduction() bool {
	return isProdLike(s.Env)
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("APP_ENV", "")
	v.SetDefault("NODE_ENV", "development")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("METRICS_TOKEN", "")
	v.SetDefault("DATABASE_URL", "file:cleanservice.db?_pragma=foreign_keys(1)")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_TOKEN_TTL", defaultAdminTTL)
	v.SetDefault("STAFF_TOKEN_TTL", defaultStaffTTL)
	v.SetDefault("CUSTOMER_TOKEN_TTL", defaultCustomerTTL)
	v.SetDefault("COOKIE_SECURE", "")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URI", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_SECURE", false)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "no-reply@cleanservice.local")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("LOGIN_BURST", 5)
	v.SetDefault("NOTIFICATION_RETENTION", "720h")
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	env := strings.TrimSpace(v.GetString("APP_ENV"))
	if env == "" {
		env = strings.TrimSpace(v.GetString("NODE_ENV"))
	}

	cfg := &Config{
		Server: ServerConfig{
			Env:            strings.ToLower(env),
			Addr:           v.GetString("HTTP_ADDR"),
			FrontendURL:    strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			MetricsToken:   v.GetString("METRICS_TOKEN"),
		},
		Database: DatabaseConfig{URL: v.GetString("DATABASE_URL")},
		Auth: AuthConfig{
			JWTSecret:     strings.TrimSpace(v.GetString("JWT_SECRET")),
			AdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
			AdminTTL:      v.GetDuration("ADMIN_TOKEN_TTL"),
			StaffTTL:      v.GetDuration("STAFF_TOKEN_TTL"),
			CustomerTTL:   v.GetDuration("CUSTOMER_TOKEN_TTL"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURI:  v.GetString("GOOGLE_REDIRECT_URI"),
		},
		SMTP: SMTPConfig{
			Host:   v.GetString("SMTP_HOST"),
			Port:   v.GetInt("SMTP_PORT"),
			Secure: v.GetBool("SMTP_SECURE"),
			User:   v.GetString("SMTP_USER"),
			Pass:   v.GetString("SMTP_PASS"),
			From:   v.GetString("SMTP_FROM"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
			LoginBurst:     v.GetInt("LOGIN_BURST"),
		},
		Cleanup: CleanupConfig{
			NotificationRetention: v.GetDuration("NOTIFICATION_RETENTION"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	cfg.Auth.CookieSecure = cfg.Server.IsProduction()
	if raw := strings.TrimSpace(v.GetString("COOKIE_SECURE")); raw != "" {
		cfg.Auth.CookieSecure = v.GetBool("COOKIE_SECURE")
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
