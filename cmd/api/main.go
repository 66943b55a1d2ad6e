// @title Smart Practice API
// @version 1.0
// @description Adaptive practice question API with per-concept mastery tracking.
// @host localhost:8090
// @BasePath /api
// @schemes http https
package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"smart-practice/internal/adapter"
	"smart-practice/internal/adapter/generation"
	"smart-practice/internal/cache"
	"smart-practice/internal/config"
	"smart-practice/internal/database"
	"smart-practice/internal/domain"
	"smart-practice/internal/handler"
	"smart-practice/internal/logger"
	"smart-practice/internal/middleware"
	"smart-practice/internal/repository"
	"smart-practice/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
		)

		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Connect to the database and apply migrations
	db, err := database.NewSQLXSQLiteDB(cfg.Database.Path)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := database.RunMigrations(db.DB); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	topicRepository := repository.NewTopicDatabaseAdapter(db)
	sessionRepository := repository.NewSessionDatabaseAdapter(db)

	// Redis tree cache is optional; without it every call hits the store.
	var treeCache domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		treeCache = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("Redis tree cache enabled", zap.String("address", cfg.Redis.Address))
	} else {
		appLogger.Info("Redis not configured, tree cache disabled")
	}

	// The generation collaborator is optional for serving, required for
	// ingestion and for exhausted-bank recovery.
	var generator domain.GenerationService
	if cfg.LLM.APIKey != "" {
		generator, err = generation.NewGeminiGenerator(cfg.LLM, cfg.Tutor)
		if err != nil {
			appLogger.Fatal("Failed to create generation service", zap.Error(err))
		}
		appLogger.Info("Generation service initialized", zap.String("model", cfg.LLM.Model))
	} else {
		appLogger.Warn("LLM API key not configured; ingestion and dynamic question generation will fail")
	}

	// Initialize services
	startingTier, err := domain.ParseTier(cfg.Tutor.StartingTier)
	if err != nil {
		appLogger.Fatal("Invalid starting tier in config", zap.Error(err))
	}
	difficulty := service.NewDifficultyPolicy(startingTier, cfg.Tutor.MasteryStreak)
	tutorService := service.NewTutorService(topicRepository, sessionRepository, generator, treeCache, difficulty, cfg.LLM.Timeout)
	ingestionService := service.NewIngestionService(topicRepository, generator, treeCache, cfg.Tutor)

	// Initialize handlers
	tutorHandler := handler.NewTutorHandler(tutorService)
	ingestHandler := handler.NewIngestHandler(ingestionService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(requestLogger())

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "running"})
	})
	api.Post("/ingest", ingestHandler.IngestTopic)
	api.Post("/sessions", tutorHandler.StartSession)
	api.Get("/sessions/next", tutorHandler.GetNextQuestion)
	api.Post("/sessions/submit", tutorHandler.SubmitAnswer)
	api.Get("/sessions/status", tutorHandler.GetSessionStatus)
	api.Get("/kb/graph", tutorHandler.GetGraphSnapshot)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		appLogger.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			appLogger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	appLogger.Info("Starting server", zap.String("address", addr))
	if err := app.Listen(addr); err != nil {
		appLogger.Fatal("Server stopped unexpectedly", zap.Error(err))
	}
}
