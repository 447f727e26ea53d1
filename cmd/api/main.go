package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"internmatch/profile-builder/internal/config"
	"internmatch/profile-builder/internal/handlers"
	"internmatch/profile-builder/internal/logging"
	"internmatch/profile-builder/internal/repositories"
	"internmatch/profile-builder/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("❌ Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger, closeLog, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("❌ Failed to initialize logger", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)
	logger.Info("✅ Config loaded successfully", slog.String("env", cfg.Server.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		fatal(logger, "❌ Failed to initialize database", err)
	}

	// Initialize repositories
	profileRepo := repositories.NewProfileRepository(db)
	uploadRepo := repositories.NewResumeUploadRepository(db)
	jobRepo := repositories.NewIndexJobRepository(db)
	logger.Info("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	if err := storageService.EnsureUploadDir(); err != nil {
		fatal(logger, "❌ Failed to create upload directory", err)
	}
	pdfParser := services.NewPDFParserService(cfg.Storage.MaxPDFPages)

	geminiService, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
		Logger:     logger,
	})
	if err != nil {
		fatal(logger, "❌ Failed to initialize Gemini AI", err)
	}
	logger.Info("✅ Gemini AI initialized successfully")

	qdrantService, err := services.NewQdrantService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		cfg.Qdrant.VectorSize,
		logger,
	)
	if err != nil {
		fatal(logger, "❌ Failed to initialize Qdrant", err)
	}
	if err := qdrantService.InitCollection(ctx); err != nil {
		fatal(logger, "❌ Failed to initialize Qdrant collection", err)
	}
	logger.Info("✅ Qdrant initialized successfully")

	// The indexer only reads profiles, so it gets a service without a queue.
	indexer := services.NewProfileIndexer(
		jobRepo,
		services.NewProfileService(profileRepo, nil, logger),
		services.NewResumeChunker(cfg.Worker.ChunkSize),
		geminiService,
		qdrantService,
		cfg.Worker.EmbedConcurrency,
		logger,
	)

	worker := services.NewWorker(jobRepo, indexer, services.WorkerOptions{
		Concurrency:      cfg.Worker.Concurrency,
		RetryMaxAttempts: cfg.Worker.RetryMaxAttempts,
		PollInterval:     cfg.Worker.PollInterval,
		Logger:           logger,
	})
	worker.Start(ctx)
	logger.Info("✅ Worker started successfully")

	profileService := services.NewProfileService(profileRepo, worker, logger)

	bus, err := services.NewPreviewBus(cfg.Preview.ValkeyURL)
	if err != nil {
		fatal(logger, "❌ Failed to initialize preview bus", err)
	}

	generator, err := services.NewDocumentGenerator(services.GeneratorOptions{
		Mode:       cfg.Generator.Mode,
		RemoteURL:  cfg.Generator.RemoteURL,
		Timeout:    cfg.Generator.Timeout,
		ChromePath: cfg.Generator.ChromePath,
		Logger:     logger,
	})
	if err != nil {
		fatal(logger, "❌ Failed to initialize resume generator", err)
	}

	sessions := services.NewSessionManager(profileService, generator, bus, services.SessionManagerOptions{
		PreviewDebounce: cfg.Preview.Debounce,
		IdleTTL:         cfg.Session.IdleTTL,
		SweepInterval:   cfg.Session.SweepInterval,
		MaxPerOwner:     cfg.Session.MaxPerOwner,
		Logger:          logger,
	})
	sessions.Start(ctx)
	parser := services.NewResumeParserService(pdfParser, geminiService, cfg.Gemini.MaxRetries, logger)
	logger.Info("✅ Services initialized successfully")

	app := handlers.NewApp(handlers.Dependencies{
		Sessions:    sessions,
		Profiles:    profileService,
		Generator:   generator,
		Parser:      parser,
		Storage:     storageService,
		Uploads:     uploadRepo,
		Bus:         bus,
		JWTSecret:   cfg.Auth.JWTSecret,
		JWTIssuer:   cfg.Auth.Issuer,
		MaxFileSize: cfg.Storage.MaxFileSize,
		RequestLog:  cfg.IsDevelopment(),
		Logger:      logger,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-quit
		logger.Info("🛑 Shutting down server...")
		sessions.CloseAll()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("❌ Server forced to shutdown", slog.Any("error", err))
		}
		worker.Stop()
		bus.Close()
		cancel()
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("🚀 Server starting", slog.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		fatal(logger, "❌ Failed to start server", err)
	}
	<-stopped
	logger.Info("👋 Server stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
