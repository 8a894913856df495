package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medbridge/portal-api/internal/config"
	"github.com/medbridge/portal-api/internal/email"
	appointmentHandler "github.com/medbridge/portal-api/internal/handler/appointment"
	clinicalHandler "github.com/medbridge/portal-api/internal/handler/clinical"
	healthHandler "github.com/medbridge/portal-api/internal/handler/health"
	notificationHandler "github.com/medbridge/portal-api/internal/handler/notification"
	promHandler "github.com/medbridge/portal-api/internal/handler/prometheus"
	"github.com/medbridge/portal-api/internal/middleware"
	"github.com/medbridge/portal-api/internal/repository/postgres"
	"github.com/medbridge/portal-api/internal/router"
	appointmentService "github.com/medbridge/portal-api/internal/service/appointment"
	clinicalService "github.com/medbridge/portal-api/internal/service/clinical"
	notificationService "github.com/medbridge/portal-api/internal/service/notification"
	riskService "github.com/medbridge/portal-api/internal/service/risk"
	"github.com/medbridge/portal-api/internal/ws"
	"github.com/medbridge/portal-api/pkg/auth"
	"github.com/medbridge/portal-api/pkg/logger"
	redisbroker "github.com/medbridge/portal-api/pkg/messaging/redis"
	"github.com/medbridge/portal-api/pkg/metrics"
	"github.com/medbridge/portal-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	m := metrics.NewMetrics("portal", "api")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	verifier, err := auth.NewJWTVerifier(cfg.JWT.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token verifier")
	}

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Repositories
	base := postgres.NewBaseRepository(db, 0, m)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	summaryRepo := postgres.NewAISummaryRepository(base)
	clinicalRepo := postgres.NewClinicalRepository(base)
	userRepo := postgres.NewUserRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	// Services
	emailSvc := email.NewService(cfg.Email)
	riskSvc := riskService.NewService(summaryRepo, clinicalRepo, appLogger, m)
	notifSvc := notificationService.NewService(notificationRepo, userRepo, emailSvc, appLogger, m)
	appointmentSvc := appointmentService.NewService(appointmentRepo, riskSvc, notifSvc, cfg.Triage, appLogger, m)
	clinicalSvc := clinicalService.NewService(clinicalRepo, riskSvc)

	// Realtime
	hub := ws.NewHub(appLogger, m)
	bridge := ws.NewBridge(hub, broker, appLogger)

	// Handlers
	authMW := middleware.NewAuthMiddleware(verifier)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc)
	notificationH := notificationHandler.NewHandler(notifSvc)
	clinicalH := clinicalHandler.NewHandler(clinicalSvc, riskSvc)
	healthH := healthHandler.NewHandler(db)
	promH := promHandler.New()
	wsH := ws.NewHandler(hub, verifier, appLogger)

	r := router.NewRouter(authMW, appointmentH, notificationH, clinicalH, healthH, promH, wsH, router.Config{
		RateLimit:  rate.Limit(cfg.Server.RateLimit),
		RateBurst:  cfg.Server.RateBurst,
		CORSConfig: middleware.DefaultCORSConfig(),
		Timeout:    time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	})
	r.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background pipeline: outbox drains to the broker, bridge relays to
	// connected clients.
	processor := worker.NewOutboxProcessor(outboxRepo, broker, cfg.Outbox, appLogger, m)
	go processor.Start(ctx)
	go func() {
		if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
			appLogger.Error(err, "realtime bridge stopped")
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
