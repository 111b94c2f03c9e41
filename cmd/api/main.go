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
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/analytics"
	"github.com/roblox-ai-studio/backend/internal/api/handlers"
	redisCache "github.com/roblox-ai-studio/backend/internal/cache/redis"
	"github.com/roblox-ai-studio/backend/internal/chat"
	"github.com/roblox-ai-studio/backend/internal/llm"
	"github.com/roblox-ai-studio/backend/internal/metrics"
	"github.com/roblox-ai-studio/backend/internal/middleware/ratelimit"
	"github.com/roblox-ai-studio/backend/internal/middleware/security"
	"github.com/roblox-ai-studio/backend/internal/middleware/validation"
	"github.com/roblox-ai-studio/backend/internal/storage/kv"
	"github.com/roblox-ai-studio/backend/internal/storage/sqlite"
	"github.com/roblox-ai-studio/backend/internal/tracking"
	"github.com/roblox-ai-studio/backend/pkg/config"
	appLogger "github.com/roblox-ai-studio/backend/pkg/logger"
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

	appLogger.Info("Starting Roblox AI Studio API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	trackingStore, err := kv.NewBadgerStore(cfg.Badger.Dir)
	if err != nil {
		appLogger.Fatal("Failed to create tracking store", zap.Error(err))
	}
	defer trackingStore.Close()

	tracker := tracking.New(trackingStore, tracking.Config{
		RetentionWindow: time.Duration(cfg.Tracking.RetentionMinutes) * time.Minute,
		SeedRating:      cfg.Tracking.SeedRating,
	})
	if err := tracker.Initialize(); err != nil {
		appLogger.Fatal("Failed to initialize tracking", zap.Error(err))
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	var sender chat.Sender = llmClient
	if cfg.Redis.Enabled {
		cacheClient, err := redisCache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer cacheClient.Close()

		sender = redisCache.NewCachedSender(llmClient, cacheClient)
	}

	chatManager := chat.NewManager(sender, sqliteClient, tracker)
	aggregator := analytics.New(tracker, sqliteClient)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 60,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	chatHandler := handlers.NewChatHandler(chatManager, sqliteClient)
	wsHandler := handlers.NewWebSocketHandler(chatManager)
	trackingHandler := handlers.NewTrackingHandler(tracker)
	analyticsHandler := handlers.NewAnalyticsHandler(aggregator)
	settingsHandler := handlers.NewSettingsHandler(sqliteClient)

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")
	api.Use(limiter.Middleware())
	api.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	api.Post("/chat", chatHandler.HandleChat)
	api.Get("/chat/history", chatHandler.GetHistory)
	api.Delete("/chat/history", chatHandler.ClearHistory)

	api.Use("/chat/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/chat/ws", websocket.New(wsHandler.HandleConnection))

	api.Get("/stats", trackingHandler.GetStats)
	api.Post("/track/registration", trackingHandler.TrackRegistration)
	api.Post("/track/login", trackingHandler.TrackLogin)
	api.Post("/track/logout", trackingHandler.TrackLogout)
	api.Post("/ratings", trackingHandler.SubmitRating)

	admin := api.Group("/admin")
	admin.Get("/analytics", analyticsHandler.GetDetailed)
	admin.Get("/analytics/overview", analyticsHandler.GetOverview)
	admin.Get("/analytics/categories", analyticsHandler.GetCategoryStats)
	admin.Get("/analytics/summary", analyticsHandler.GetSummary)
	admin.Get("/settings", settingsHandler.GetSettings)
	admin.Put("/settings", settingsHandler.UpdateSettings)
	admin.Post("/tracking/reset", trackingHandler.ResetTracking)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

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
