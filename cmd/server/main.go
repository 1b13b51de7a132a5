package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/cricket-xi/internal/api/handlers"
	"github.com/pitchside/cricket-xi/internal/config"
	"github.com/pitchside/cricket-xi/internal/dataset"
	"github.com/pitchside/cricket-xi/internal/engine"
	"github.com/pitchside/cricket-xi/internal/ilp"
	"github.com/pitchside/cricket-xi/internal/matchdata"
	"github.com/pitchside/cricket-xi/internal/optimizer"
	"github.com/pitchside/cricket-xi/internal/predictor"
	"github.com/pitchside/cricket-xi/internal/roles"
	"github.com/pitchside/cricket-xi/internal/store"
	"github.com/pitchside/cricket-xi/internal/websocket"
	"github.com/pitchside/cricket-xi/pkg/cache"
	"github.com/pitchside/cricket-xi/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	serviceLog := logger.WithService("recommendation-service")
	serviceLog.WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
	}).Info("Starting Recommendation Service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Build the appearance history and role tables from the match archive.
	matches, err := matchdata.LoadDir(cfg.MatchDataDir)
	if err != nil {
		serviceLog.Fatalf("Failed to load match data: %v", err)
	}
	built, err := dataset.Build(matches, serviceLog)
	if err != nil {
		serviceLog.Fatalf("Failed to build dataset: %v", err)
	}
	roleRegistry := roles.NewRegistry(built.Roles)

	// Persist the fresh role snapshot when a database is configured.
	var db *store.DB
	if cfg.DatabaseURL != "" {
		db, err = store.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
		if err != nil {
			serviceLog.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		roleStore, err := store.NewRoleStore(db)
		if err != nil {
			serviceLog.Fatalf("Failed to initialize role store: %v", err)
		}
		if err := roleStore.SaveTable(built.Roles); err != nil {
			serviceLog.WithError(err).Warn("Failed to persist role tables")
		}
	}

	// Redis is optional; without it recommendations are recomputed per call.
	var redisClient *redis.Client
	var cacheService *cache.RecommendationCacheService
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			serviceLog.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			serviceLog.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		cacheService = cache.NewRecommendationCacheService(redisClient, structuredLogger)
	}

	baseline := predictor.NewBaseline()
	if cfg.ModelWeightsPath != "" {
		baseline, err = predictor.LoadBaseline(cfg.ModelWeightsPath)
		if err != nil {
			serviceLog.Fatalf("Failed to load model weights: %v", err)
		}
	}

	recEngine := engine.New(engine.Config{
		Roles:        roleRegistry,
		History:      built.History,
		Scores:       baseline,
		Attributions: baseline,
		Solver:       ilp.NewBranchBound(),
		Rules:        optimizer.DefaultRules(),
		SolveTimeout: cfg.SolveTimeout,
		Logger:       serviceLog,
	})

	wsHub := websocket.NewHub(structuredLogger)
	go wsHub.Run()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	recommendationHandler := handlers.NewRecommendationHandler(
		recEngine,
		cacheService,
		wsHub,
		cfg,
		structuredLogger,
	)
	healthHandler := handlers.NewHealthHandler(db, redisClient, structuredLogger)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/recommend", recommendationHandler.RecommendSquad)
		apiV1.GET("/recommend/:request_id/rationale/:player_id", recommendationHandler.GetRationale)
		apiV1.GET("/recommend/cache-status", recommendationHandler.GetCacheStatus)
	}

	// WebSocket endpoint for progress updates
	router.GET("/ws/recommendation-progress/:request_id", wsHub.HandleWebSocket)

	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)
	router.GET("/metrics", healthHandler.GetMetrics)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		serviceLog.WithField("port", cfg.Port).Info("Recommendation service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serviceLog.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	serviceLog.Info("Shutting down recommendation service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		serviceLog.Fatalf("Server forced to shutdown: %v", err)
	}
	serviceLog.Info("Recommendation service stopped")
}
