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

	"github.com/hauntmuskie/naivebayes-dashboard/internal/api/handlers"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/cache/redis"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/classifier"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/ingestion"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/metrics"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/middleware/auth"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/middleware/security"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/middleware/validation"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/mlbackend"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/cached"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/store"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/config"
	appLogger "github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
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

	appLogger.Info("Starting Naive Bayes Dashboard API Server")

	metrics.Init()

	st, err := store.New(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		appLogger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// The cache is an acceleration layer, not a dependency. When Redis is
	// unreachable the dashboard serves every read from the store directly.
	cache, err := redis.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
		cache = nil
	} else {
		defer cache.Close()
	}

	backend := mlbackend.NewClient(cfg.Backend)
	pipeline := ingestion.NewPipeline(st)
	engine := classifier.NewEngine(st, cache, backend, pipeline)
	reader := cached.NewReader(st, cache, cfg.Cache)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Server.Environment != "production",
	}))

	authHandler := handlers.NewAuthHandler(cfg.Auth)
	modelHandler := handlers.NewModelHandler(engine, reader)
	classifyHandler := handlers.NewClassifyHandler(engine, reader)
	datasetHandler := handlers.NewDatasetHandler(pipeline, reader)
	historyHandler := handlers.NewHistoryHandler(engine, reader)
	healthHandler := handlers.NewHealthHandler(backend)
	statusHandler := handlers.NewStatusHandler(st, backend)

	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api/v1")

	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/logout", authHandler.Logout)
	api.Get("/health", healthHandler.Health)

	api.Use(auth.Middleware(cfg.Auth))

	upload := validation.UploadMiddleware(validation.Config{
		MaxFileSize: cfg.Server.BodyLimit,
	})

	api.Post("/models/train", upload, modelHandler.Train)
	api.Get("/models", modelHandler.List)
	api.Get("/models/:name", modelHandler.Get)
	api.Delete("/models/:name", modelHandler.Delete)

	api.Post("/classify", upload, classifyHandler.Classify)
	api.Get("/classifications", classifyHandler.List)
	api.Get("/classifications/:id", classifyHandler.Get)

	api.Post("/datasets", datasetHandler.Upload)
	api.Get("/datasets", datasetHandler.List)

	api.Get("/history", historyHandler.List)
	api.Get("/history/:id", historyHandler.Get)
	api.Delete("/history/:id", historyHandler.Delete)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(statusHandler.HandleConnection))

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
