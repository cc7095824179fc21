package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"cleanservice/internal/config"
	"cleanservice/internal/logger"
	"cleanservice/internal/mail"
	"cleanservice/internal/queue"

	"github.com/hibiken/asynq"
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

	if !cfg.Redis.Enabled() {
		lg.Fatal("REDIS_ADDR is required for the worker")
	}

	srv := queue.NewServer(cfg.Redis, 10)
	mux := asynq.NewServeMux()
	queue.NewHandler(mail.NewSender(cfg.SMTP, lg), lg).RegisterHandlers(mux)

	if err := srv.Start(mux); err != nil {
		lg.Fatal("worker start failed", zap.Error(err))
	}
	lg.Info("worker started, waiting for tasks", zap.String("redis", cfg.Redis.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down worker")
	srv.Shutdown()
}
