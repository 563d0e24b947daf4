package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TeaBear5/inspyre-ping-pong/config"
	"github.com/TeaBear5/inspyre-ping-pong/db"
	"github.com/TeaBear5/inspyre-ping-pong/handlers"
	appMiddleware "github.com/TeaBear5/inspyre-ping-pong/middleware"
	"github.com/TeaBear5/inspyre-ping-pong/realtime"
	"github.com/TeaBear5/inspyre-ping-pong/repositories"
	api "github.com/TeaBear5/inspyre-ping-pong/routes"
	"github.com/TeaBear5/inspyre-ping-pong/services"
	"github.com/TeaBear5/inspyre-ping-pong/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

// How often the weekly standing ranks are persisted.
const rankSchedulerInterval = 5 * time.Minute

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, avatar uploads disabled")
	}

	wsHub := realtime.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	trophyRepo := repositories.NewPostgresTrophyRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	logger.Info("repositories initialized")

	var emailService services.EmailService
	if cfg.SMTPConfigured() {
		emailService = services.NewEmailService(cfg)
	} else {
		logger.Warn("SMTP not configured, admin dispute emails disabled")
	}

	authService := services.NewAuthService(userRepo, profileRepo, []byte(cfg.JWTSecretKey))
	userService := services.NewUserService(userRepo, profileRepo, gameRepo, trophyRepo, uploader)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, wsHub, emailService, logger)
	trophyService := services.NewTrophyService(trophyRepo)
	matchProcessor := services.NewMatchProcessor(profileRepo, gameRepo, standingRepo, trophyService, logger)
	gameService := services.NewGameService(dbConn, gameRepo, matchProcessor, notificationService, logger)
	leaderboardService := services.NewLeaderboardService(dbConn, standingRepo, profileRepo, logger)
	logger.Info("services initialized")

	// Periodically persist the computed weekly ranks so finished weeks
	// keep their final ordering.
	go func() {
		ticker := time.NewTicker(rankSchedulerInterval)
		defer ticker.Stop()
		logger.Info("weekly rank scheduler started", slog.Duration("interval", rankSchedulerInterval))

		persist := func() {
			year, week := time.Now().ISOWeek()
			if err := leaderboardService.PersistWeekRanks(context.Background(), week, year); err != nil {
				logger.Error("scheduler: failed to persist weekly ranks", slog.Any("error", err))
			}
		}

		persist()
		for range ticker.C {
			persist()
		}
	}()

	auth := appMiddleware.NewAuthenticator([]byte(cfg.JWTSecretKey))
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, trophyService)
	gameHandler := handlers.NewGameHandler(gameService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		auth,
		authHandler,
		userHandler,
		gameHandler,
		leaderboardHandler,
		notificationHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
