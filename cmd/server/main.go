package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"infinite-pages/internal/config"
	"infinite-pages/internal/database"
	"infinite-pages/internal/handler"
	applogger "infinite-pages/internal/logger"
	"infinite-pages/internal/messaging"
	"infinite-pages/internal/middleware"
	"infinite-pages/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger, err := applogger.New(applogger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Configuration loaded", zap.String("env", cfg.Env), zap.String("logLevel", cfg.LogLevel))

	// --- External connections ---
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg, logger); err != nil {
			zap.L().Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	pgPool, err := database.NewPool(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()
	zap.L().Info("Connected to PostgreSQL")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	zap.L().Info("Connected to Redis")

	mqConn, err := messaging.ConnectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()

	// --- Dependency injection ---
	profileRepo := database.NewPgProfileRepository(pgPool, logger)
	storyRepo := database.NewPgStoryRepository(pgPool, logger)
	chapterRepo := database.NewPgChapterRepository(pgPool, logger)
	genLogRepo := database.NewPgGenerationLogRepository(pgPool, logger)
	factRepo := database.NewPgStoryFactRepository(pgPool, logger)
	errorReportRepo := database.NewPgErrorReportRepository(pgPool, logger)
	requestLogRepo := database.NewPgRequestLogRepository(pgPool, logger)
	promptRepo := database.NewPgPromptRepository(pgPool)

	responseCache := database.NewRedisResponseCache(redisClient, logger)
	factCache := database.NewRedisFactCache(redisClient, logger)

	progressPublisher, err := messaging.NewProgressPublisher(mqConn, cfg.ProgressQueueName, logger)
	if err != nil {
		zap.L().Fatal("Failed to create progress publisher", zap.Error(err))
	}

	aiClient, err := service.NewAIClient(cfg, logger)
	if err != nil {
		zap.L().Fatal("Failed to create AI client", zap.Error(err))
	}
	promptProvider := service.NewPromptProvider(promptRepo, logger)

	storySvc := service.NewStoryService(
		profileRepo, storyRepo, chapterRepo, genLogRepo, factRepo,
		promptProvider, aiClient, responseCache, factCache, progressPublisher,
		cfg, logger,
	)
	creatorSvc := service.NewCreatorService(profileRepo, storyRepo, genLogRepo, logger)
	adminSvc := service.NewAdminService(profileRepo, errorReportRepo, logger)

	connectionManager := handler.NewConnectionManager(logger)
	progressConsumer := messaging.NewProgressConsumer(mqConn, connectionManager, cfg.ProgressQueueName, logger)

	storyHandler := handler.NewStoryHandler(storySvc, logger)
	creatorHandler := handler.NewCreatorHandler(creatorSvc, logger)
	adminHandler := handler.NewAdminHandler(adminSvc, logger)
	wsHandler := handler.NewWebSocketHandler(connectionManager, cfg.JWTSecret, cfg.GetAllowedOrigins(), logger)

	auditor := middleware.NewRequestAuditor(requestLogRepo, logger)

	// --- HTTP server (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.RequestLogger(logger, auditor))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	authMW := handler.AuthMiddleware(cfg.JWTSecret, profileRepo, logger)
	optionalAuthMW := handler.OptionalAuthMiddleware(cfg.JWTSecret, profileRepo, logger)
	globalLimit := middleware.RateLimiter(redisClient, cfg.RateLimitGlobal, logger)
	generationLimit := middleware.RateLimiter(redisClient, cfg.RateLimitGeneration, logger)

	handler.RegisterRoutes(router, handler.Handlers{
		Story:     storyHandler,
		Creator:   creatorHandler,
		Admin:     adminHandler,
		WebSocket: wsHandler,
	}, authMW, optionalAuthMW, globalLimit, generationLimit)

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	// --- Background workers ---
	go func() {
		if err := progressConsumer.StartConsuming(); err != nil {
			zap.L().Error("Progress consumer stopped with error", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second, // generation responses outlive normal requests
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	progressConsumer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP server forced to shutdown", zap.Error(err))
	}

	auditor.Close()
	zap.L().Info("Server exiting")
}
