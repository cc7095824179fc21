package main

import (
	"context"
	"log"
	"time"

	"cleanservice/internal/config"
	"cleanservice/internal/database"
	"cleanservice/internal/logger"
	"cleanservice/internal/modules/notification"
	"cleanservice/internal/repository"

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

	db, err := database.Connect(cfg.Database.URL, database.Silent())
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	bookings, err := repository.NewBookingRepository(db).DeleteExpiredUnverified(ctx, time.Now())
	if err != nil {
		lg.Fatal("cleanup bookings failed", zap.Error(err))
	}

	notifications, err := notification.NewService(repository.NewNotificationRepository(db)).
		Cleanup(ctx, cfg.Cleanup.NotificationRetention)
	if err != nil {
		lg.Fatal("cleanup notifications failed", zap.Error(err))
	}

	lg.Info("cleanup completed",
		zap.Int64("unverified_bookings", bookings),
		zap.Int64("read_notifications", notifications),
		zap.Duration("notification_retention", cfg.Cleanup.NotificationRetention),
	)
}
