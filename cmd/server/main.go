package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leonthanh/listening-service/internal/auth"
	"github.com/leonthanh/listening-service/internal/cache"
	"github.com/leonthanh/listening-service/internal/config"
	"github.com/leonthanh/listening-service/internal/handlers"
	"github.com/leonthanh/listening-service/internal/models"
	"github.com/leonthanh/listening-service/internal/repositories/postgres"
	"github.com/leonthanh/listening-service/internal/services"
	"github.com/leonthanh/listening-service/internal/utils"
	"github.com/leonthanh/listening-service/internal/validator"
	"github.com/leonthanh/listening-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	appLogger := utils.NewSlogLogger(logger)

	// ── Dependencies ────────────────────────────────────────────────
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&models.ListeningTest{},
		&models.ListeningSubmission{},
		&models.User{},
	); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	v := validator.New()
	snapshots := cache.NewSnapshotCache(redisClient, logger)
	testRepo := postgres.NewTestPostgreSQL(db)
	submissionRepo := postgres.NewSubmissionPostgreSQL(db)

	testService := services.NewTestService(testRepo, logger, v)
	gradingService := services.NewGradingService(logger)
	attemptService := services.NewAttemptService(
		submissionRepo, testRepo, gradingService, snapshots, publisher, logger, v)
	exportService := services.NewExportService(submissionRepo, testRepo, logger)

	// ── Routes ──────────────────────────────────────────────────────
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(appLogger))

	authenticator := auth.NewAuthenticator(cfg, appLogger)
	manager := handlers.NewHandlerManager(testService, attemptService, exportService, appLogger)
	manager.SetupRoutes(router, auth.OptionalMiddleware(authenticator))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting listening service", "port", cfg.Port, "environment", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
