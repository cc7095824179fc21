package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cleanservice/internal/config"
	"cleanservice/internal/database"
	"cleanservice/internal/logger"
	"cleanservice/internal/mail"
	"cleanservice/internal/metrics"
	"cleanservice/internal/pkg/session"
	"cleanservice/internal/queue"
	"cleanservice/internal/ratelimit"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		lg.Fatal("db migrate failed", zap.Error(err))
	}

	m := metrics.New()

	var (
		redisClient *redis.Client
		queueClient *queue.Client
	)
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			lg.Warn("redis unavailable, rate limiting and mail queue disabled", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			queueClient = queue.NewClient(cfg.Redis)
		}
	}

	var enqueuer mail.Enqueuer
	if queueClient != nil {
		enqueuer = queueClient
	}
	mailer := mail.NewDispatcher(mail.NewSender(cfg.SMTP, lg), enqueuer, lg, m)

	sessions := session.NewManager(session.Config{
		Secret: cfg.Auth.JWTSecret,
		Secure: cfg.Auth.CookieSecure,
		TTL: map[session.Role]time.Duration{
			session.RoleAdmin:    cfg.Auth.AdminTTL,
			session.RoleStaff:    cfg.Auth.StaffTTL,
			session.RoleCustomer: cfg.Auth.CustomerTTL,
		},
	})

	app := newApp(appDeps{
		cfg:      cfg,
		db:       db,
		log:      lg,
		metrics:  m,
		mailer:   mailer,
		sessions: sessions,
		limiter:  ratelimit.NewTokenBucket(redisClient),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		lg.Info("api listening", zap.String("addr", cfg.Server.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down")

	// Hijacked websocket connections are not tracked by Shutdown.
	app.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("server shutdown", zap.Error(err))
	}

	if queueClient != nil {
		_ = queueClient.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
