package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/fisiotrack/clinic-api/internal/config"
	"github.com/fisiotrack/clinic-api/internal/handler"
	authHandler "github.com/fisiotrack/clinic-api/internal/handler/auth"
	evolutionHandler "github.com/fisiotrack/clinic-api/internal/handler/evolution"
	patientHandler "github.com/fisiotrack/clinic-api/internal/handler/patient"
	sourceUnitHandler "github.com/fisiotrack/clinic-api/internal/handler/sourceunit"
	statsHandler "github.com/fisiotrack/clinic-api/internal/handler/stats"
	"github.com/fisiotrack/clinic-api/internal/middleware"
	"github.com/fisiotrack/clinic-api/internal/repository/postgres"
	"github.com/fisiotrack/clinic-api/internal/router"
	authService "github.com/fisiotrack/clinic-api/internal/service/auth"
	"github.com/fisiotrack/clinic-api/internal/sync"
	"github.com/fisiotrack/clinic-api/pkg/auth"
	"github.com/fisiotrack/clinic-api/pkg/logger"
	redisBroker "github.com/fisiotrack/clinic-api/pkg/messaging/redis"
	"github.com/fisiotrack/clinic-api/pkg/metrics"
)

func main() {
	log := logger.NewLogger(nil).Zerolog()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis change-feed broker
	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("fisiotrack", "api")

	// Initialize repositories
	patientRepo := postgres.NewPatientRepository(db, m)
	evolutionRepo := postgres.NewEvolutionRepository(db, m)
	unitRepo := postgres.NewSourceUnitRepository(db, m)
	userRepo := postgres.NewUserRepository(db, m)

	// Initialize synchronizer manager
	manager := sync.NewManager(patientRepo, evolutionRepo, unitRepo, broker, log, m)
	defer manager.Close()

	// Initialize identity provider
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	authSvc := authService.NewService(userRepo, jwtSvc)
	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	// Initialize handlers
	h := handler.NewHandler()
	authH := authHandler.NewHandler(authSvc, manager)
	patientH := patientHandler.NewHandler(manager)
	evolutionH := evolutionHandler.NewHandler(manager)
	unitH := sourceUnitHandler.NewHandler(manager)
	statsH := statsHandler.NewHandler(manager)

	// Setup router
	r := router.NewRouter(
		authMiddleware,
		authH,
		h,
		router.Config{
			RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "fisiotrack",
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
		patientH,
		evolutionH,
		unitH,
		statsH,
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	// Start server
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
