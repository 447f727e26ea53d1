package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"internmatch/profile-builder/internal/models"
	"internmatch/profile-builder/internal/repositories"
)

const defaultEmbedConcurrency = 4

// VectorIndex is the part of the vector store the indexer writes to.
type VectorIndex interface {
	UpsertChunks(ctx context.Context, ownerID string, chunks []ProfileChunk, embeddings [][]float32) error
	DeleteOwner(ctx context.Context, ownerID string) error
}

// Embedder turns text into a vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type ProfileLoader interface {
	GetProfile(ctx context.Context, ownerID string) (models.Profile, error)
}

type ProfileIndexer interface {
	IndexProfile(ctx context.Context, jobID uuid.UUID) error
}

type profileIndexer struct {
	jobs             repositories.IndexJobRepository
	profiles         ProfileLoader
	chunker          ResumeChunker
	embedder         Embedder
	index            VectorIndex
	embedConcurrency int
	logger           *slog.Logger
}

func NewProfileIndexer(
	jobs repositories.IndexJobRepository,
	profiles ProfileLoader,
	chunker ResumeChunker,
	embedder Embedder,
	index VectorIndex,
	embedConcurrency int,
	logger *slog.Logger,
) ProfileIndexer {
	if embedConcurrency <= 0 {
		embedConcurrency = defaultEmbedConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &profileIndexer{
		jobs:             jobs,
		profiles:         profiles,
		chunker:          chunker,
		embedder:         embedder,
		index:            index,
		embedConcurrency: embedConcurrency,
		logger:           logger,
	}
}

// IndexProfile replaces the owner's vectors with chunks of the current
// saved profile. Any failure marks the job failed and is returned.
func (i *profileIndexer) IndexProfile(ctx context.Context, jobID uuid.UUID) error {
	if err := i.jobs.MarkProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	job, err := i.jobs.FindByID(ctx, jobID)
	if err != nil {
		return i.fail(ctx, jobID, fmt.Errorf("failed to get index job: %w", err))
	}

	log := i.logger.With(slog.String("job_id", jobID.String()), slog.String("owner_id", job.OwnerID))
	log.Info("🔄 indexing profile")

	profile, err := i.profiles.GetProfile(ctx, job.OwnerID)
	if err != nil {
		return i.fail(ctx, jobID, fmt.Errorf("failed to load profile: %w", err))
	}

	chunks := i.chunker.Chunk(MapProfileToDocument(profile))

	embeddings := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.embedConcurrency)
	for idx, chunk := range chunks {
		g.Go(func() error {
			vec, err := i.embedder.GenerateEmbedding(gctx, chunk.Text)
			if err != nil {
				return fmt.Errorf("failed to embed %s chunk %d: %w", chunk.Section, idx, err)
			}
			embeddings[idx] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return i.fail(ctx, jobID, err)
	}

	if err := i.index.DeleteOwner(ctx, job.OwnerID); err != nil {
		return i.fail(ctx, jobID, fmt.Errorf("failed to clear previous vectors: %w", err))
	}
	if err := i.index.UpsertChunks(ctx, job.OwnerID, chunks, embeddings); err != nil {
		return i.fail(ctx, jobID, fmt.Errorf("failed to store vectors: %w", err))
	}

	if err := i.jobs.MarkCompleted(ctx, jobID, len(chunks)); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	indexJobTotal.WithLabelValues("completed").Inc()
	log.Info("✅ profile indexed", slog.Int("chunks", len(chunks)))
	return nil
}

func (i *profileIndexer) fail(ctx context.Context, jobID uuid.UUID, err error) error {
	indexJobTotal.WithLabelValues("failed").Inc()
	if uerr := i.jobs.UpdateError(ctx, jobID, err.Error()); uerr != nil {
		i.logger.Error("failed to record index error",
			slog.String("job_id", jobID.String()),
			slog.Any("error", uerr),
		)
	}
	return err
}
