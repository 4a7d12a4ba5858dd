package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/creative-evaluator/internal/config"
	"alfredoptarigan/creative-evaluator/internal/handlers"
	"alfredoptarigan/creative-evaluator/internal/repositories"
	"alfredoptarigan/creative-evaluator/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("❌ Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("✅ Config loaded successfully", zap.String("env", cfg.Server.Env))

	db, err := config.InitDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("❌ Failed to initialize database", zap.Error(err))
	}

	docRepo := repositories.NewDocumentRepository(db)
	evalRepo := repositories.NewEvaluationRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	if err := storageService.EnsureUploadDir(); err != nil {
		logger.Fatal("❌ Failed to create upload directory", zap.Error(err))
	}
	documentParser := services.NewDocumentParser()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini, cfg.Worker, logger)
	if err != nil {
		logger.Fatal("❌ Failed to initialize Gemini", zap.Error(err))
	}
	logger.Info("✅ Gemini initialized", zap.String("backend", geminiService.ActiveBackend()))

	evaluator := services.NewEvaluatorService(logger, services.EvaluatorOptions{
		CallTimeout: cfg.Evaluation.CallTimeout,
		Scoring: services.ScoringConfig{
			MaxPossible:           cfg.Evaluation.FEIMaxPossible,
			PatternBreakerPenalty: cfg.Evaluation.PatternBreakerPenalty,
			DampenerThreshold:     cfg.Evaluation.ConfidenceDampenerThreshold,
		},
	})
	extractor := services.NewBriefExtractor(logger)

	processor := services.NewJobProcessor(evalRepo, evaluator, geminiService.Query, logger)
	worker := services.NewWorker(evalRepo, processor, cfg.Worker.Concurrency, cfg.Worker.PollInterval, logger)
	worker.Start(ctx)
	logger.Info("✅ Worker started", zap.Int("concurrency", cfg.Worker.Concurrency))

	creativeHandler := handlers.NewCreativeHandler(evaluator, geminiService, evalRepo, docRepo, worker, logger)
	uploadHandler := handlers.NewUploadHandler(
		docRepo,
		storageService,
		documentParser,
		extractor,
		geminiService,
		cfg.Storage.MaxFileSize,
		logger,
	)
	resultHandler := handlers.NewResultHandler(evalRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      "Creative Effectiveness Evaluator API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: handlers.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "healthy",
			"llm_backend": geminiService.ActiveBackend(),
			"time":        time.Now(),
		})
	})

	creative := api.Group("/creative")
	creative.Get("/config", creativeHandler.HandleConfig)
	creative.Post("/validate", creativeHandler.HandleValidate)
	creative.Post("/evaluate", creativeHandler.HandleEvaluate)
	creative.Post("/evaluate/stream", creativeHandler.HandleEvaluateStream)
	creative.Post("/jobs", creativeHandler.HandleSubmitJob)
	creative.Get("/result/:id", resultHandler.HandleGetResult)
	creative.Post("/upload", uploadHandler.HandleUpload)
	creative.Post("/extract", uploadHandler.HandleExtract)

	endpoints := []string{
		"GET /api/v1/health",
		"GET /api/v1/creative/config",
		"POST /api/v1/creative/validate",
		"POST /api/v1/creative/evaluate",
		"POST /api/v1/creative/evaluate/stream",
		"POST /api/v1/creative/jobs",
		"GET /api/v1/creative/result/:id",
		"POST /api/v1/creative/upload",
		"POST /api/v1/creative/extract",
	}
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "Creative Effectiveness Evaluator API",
			"version":   "1.0.0",
			"endpoints": endpoints,
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("🛑 Shutting down server...")
		cancel()
		worker.Stop()
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			logger.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", strings.TrimPrefix(cfg.Server.Port, ":"))
	logger.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("❌ Failed to start server", zap.Error(err))
	}
}
