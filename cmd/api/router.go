package main

import (
	"net/http"

	"cleanservice/internal/config"
	"cleanservice/internal/logger"
	"cleanservice/internal/mail"
	"cleanservice/internal/metrics"
	"cleanservice/internal/middleware"
	"cleanservice/internal/modules/analytics"
	"cleanservice/internal/modules/assignment"
	"cleanservice/internal/modules/auth"
	"cleanservice/internal/modules/booking"
	"cleanservice/internal/modules/catalog"
	"cleanservice/internal/modules/notification"
	"cleanservice/internal/modules/staff"
	"cleanservice/internal/modules/team"
	"cleanservice/internal/modules/user"
	"cleanservice/internal/pkg/session"
	"cleanservice/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type appDeps struct {
	cfg      *config.Config
	db       *gorm.DB
	log      *zap.Logger
	metrics  *metrics.Metrics
	mailer   mail.Mailer
	sessions *session.Manager
	limiter  middleware.Limiter
}

type app struct {
	router *gin.Engine
	hub    *notification.Hub
}

func newApp(d appDeps) *app {
	cfg := d.cfg
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	userRepo := repository.NewUserRepository(d.db)
	staffRepo := repository.NewStaffRepository(d.db)
	teamRepo := repository.NewTeamRepository(d.db)
	bookingRepo := repository.NewBookingRepository(d.db)
	assignmentRepo := repository.NewAssignmentRepository(d.db)
	serviceRepo := repository.NewServiceRepository(d.db)
	notificationRepo := repository.NewNotificationRepository(d.db)

	hub := notification.NewHub()
	origins := middleware.AllowedOrigins(cfg.Server.FrontendURL, cfg.Server.AllowedOrigins)

	authHandler := auth.NewHandler(
		auth.NewService(userRepo, staffRepo, bookingRepo, d.mailer, auth.Config{
			AdminEmail:    cfg.Auth.AdminEmail,
			AdminPassword: cfg.Auth.AdminPassword,
			FrontendURL:   cfg.Server.FrontendURL,
		}, d.log),
		auth.HandlerConfig{
			Sessions:  d.sessions,
			Google:    auth.NewGoogleProvider(cfg.Google),
			Limiter:   d.limiter,
			RateLimit: cfg.RateLimit,
			Secure:    cfg.Auth.CookieSecure,
			Log:       d.log,
		},
	)
	bookingHandler := booking.NewHandler(
		booking.NewService(bookingRepo, userRepo, d.mailer, d.metrics, booking.Config{
			FrontendURL: cfg.Server.FrontendURL,
			AdminEmail:  cfg.Auth.AdminEmail,
		}, d.log),
		d.sessions,
	)
	assignmentHandler := assignment.NewHandler(assignment.NewService(assignment.Deps{
		Assignments:   assignmentRepo,
		Bookings:      bookingRepo,
		Teams:         teamRepo,
		Staff:         staffRepo,
		Notifications: notificationRepo,
		Mailer:        d.mailer,
		Notifier:      hub,
		Recorder:      d.metrics,
		Logger:        d.log,
	}))
	staffHandler := staff.NewHandler(staff.NewService(staffRepo, d.mailer, cfg.Server.FrontendURL, d.log))
	teamHandler := team.NewHandler(team.NewService(teamRepo, staffRepo))
	catalogHandler := catalog.NewHandler(catalog.NewService(serviceRepo))
	notificationHandler := notification.NewHandler(notification.NewService(notificationRepo), hub, origins, d.log)
	userHandler := user.NewHandler(user.NewService(userRepo, bookingRepo), d.sessions)
	analyticsHandler := analytics.NewHandler(analytics.NewService(d.db))

	r := gin.New()
	r.Use(
		middleware.ErrorLogger(d.log),
		logger.GinMiddleware(d.log),
		middleware.CORS(origins),
		d.metrics.GinMiddleware(),
	)

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.InternalTokenAuth(cfg.Server.MetricsToken), gin.WrapH(d.metrics.Handler()))

	api := r.Group("/api")
	{
		authHandler.RegisterRoutes(api)
		bookingHandler.RegisterRoutes(api)
		assignmentHandler.RegisterRoutes(api, d.sessions)
		staffHandler.RegisterRoutes(api, d.sessions)
		teamHandler.RegisterRoutes(api, d.sessions)
		catalogHandler.RegisterRoutes(api, d.sessions)
		notificationHandler.RegisterRoutes(api, d.sessions)
		userHandler.RegisterRoutes(api)
		analyticsHandler.RegisterRoutes(api, d.sessions)
	}

	return &app{router: r, hub: hub}
}
