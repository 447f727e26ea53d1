package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"internmatch/profile-builder/internal/config"
	"internmatch/profile-builder/internal/logging"
	"internmatch/profile-builder/internal/models"
	"internmatch/profile-builder/internal/repositories"
	"internmatch/profile-builder/internal/services"
)

// Rebuilds the vector index for every saved profile, or for the owners
// given as arguments.
func main() {
	flag.Parse()

	cfg := config.Load()
	logger, closeLog, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("❌ Failed to initialize logger", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("🚀 Starting profile re-index...")
	ctx := context.Background()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		fatal(logger, "❌ Failed to initialize database", err)
	}
	profileRepo := repositories.NewProfileRepository(db)
	jobRepo := repositories.NewIndexJobRepository(db)

	geminiService, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
		Logger:     logger,
	})
	if err != nil {
		fatal(logger, "❌ Failed to initialize Gemini", err)
	}

	qdrantService, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize, logger)
	if err != nil {
		fatal(logger, "❌ Failed to initialize Qdrant", err)
	}
	if err := qdrantService.InitCollection(ctx); err != nil {
		fatal(logger, "❌ Failed to initialize collection", err)
	}

	indexer := services.NewProfileIndexer(
		jobRepo,
		services.NewProfileService(profileRepo, nil, logger),
		services.NewResumeChunker(cfg.Worker.ChunkSize),
		geminiService,
		qdrantService,
		cfg.Worker.EmbedConcurrency,
		logger,
	)

	owners := flag.Args()
	if len(owners) == 0 {
		owners, err = profileRepo.ListOwnerIDs(ctx)
		if err != nil {
			fatal(logger, "❌ Failed to list profiles", err)
		}
	}

	failed := 0
	for _, owner := range owners {
		job := &models.IndexJob{OwnerID: owner}
		if err := jobRepo.Create(ctx, job); err != nil {
			logger.Error("❌ Failed to create job", slog.String("owner_id", owner), slog.Any("error", err))
			failed++
			continue
		}
		if err := indexer.IndexProfile(ctx, job.ID); err != nil {
			logger.Error("❌ Failed to index profile", slog.String("owner_id", owner), slog.Any("error", err))
			failed++
		}
	}

	logger.Info("✅ Re-index finished",
		slog.Int("profiles", len(owners)),
		slog.Int("failed", failed),
	)
	if failed > 0 {
		os.Exit(1)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
