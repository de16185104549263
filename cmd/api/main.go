package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/chatforge/backend/internal/analytics"
	"github.com/chatforge/backend/internal/api/handlers"
	redisCache "github.com/chatforge/backend/internal/cache/redis"
	"github.com/chatforge/backend/internal/llm"
	"github.com/chatforge/backend/internal/metrics"
	"github.com/chatforge/backend/internal/middleware/ratelimit"
	"github.com/chatforge/backend/internal/storage/sqlite"
	"github.com/chatforge/backend/internal/synthesis"
	"github.com/chatforge/backend/pkg/config"
	appLogger "github.com/chatforge/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting ChatForge API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var reportCache analytics.ReportCache
	var invalidator handlers.ReportInvalidator
	if cfg.Redis.Enabled {
		cacheClient, err := redisCache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.ReportTTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without report cache", zap.Error(err))
		} else {
			defer cacheClient.Close()
			reportCache = cacheClient
			invalidator = cacheClient
		}
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	synthesizer := synthesis.New(sqliteClient, llmClient, synthesis.DefaultCatalogs(), synthesis.Config{
		BatchSize:           cfg.Synthesis.BatchSize,
		BatchDelay:          time.Duration(cfg.Synthesis.BatchDelayMs) * time.Millisecond,
		MaxContentChars:     cfg.Synthesis.MaxContentChars,
		ConfidenceThreshold: cfg.Synthesis.ConfidenceThreshold,
		PreviewSize:         cfg.Synthesis.PreviewSize,
	})

	engine := analytics.NewEngine(sqliteClient, llmClient, reportCache, analytics.Config{
		SessionWindow:       cfg.Analytics.SessionWindow,
		SentimentSampleSize: cfg.Analytics.SentimentSampleSize,
		SentimentTimeout:    time.Duration(cfg.Analytics.SentimentTimeoutSec) * time.Second,
		WordcloudSize:       cfg.Analytics.WordcloudSize,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.RateLimit,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	synthesisHandler := handlers.NewSynthesisHandler(synthesizer, sqliteClient, invalidator)
	analyticsHandler := handlers.NewAnalyticsHandler(engine)
	botHandler := handlers.NewBotHandler(sqliteClient)

	api := app.Group("/api/v1")

	api.Post("/knowledge/synthesize", limiter.Middleware(), synthesisHandler.HandleSynthesize)
	api.Get("/analytics", analyticsHandler.HandleAnalytics)

	api.Post("/bots", botHandler.HandleCreateBot)
	api.Get("/bots/:id", botHandler.HandleGetBot)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
