package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"internmatch/profile-builder/internal/models"
)

type IndexJobRepository interface {
	Create(ctx context.Context, job *models.IndexJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.IndexJob, error)
	// MarkProcessing moves a job to processing and counts the attempt.
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, chunkCount int) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	// Requeue puts a failed job back in the queue, keeping its attempts.
	Requeue(ctx context.Context, id uuid.UUID) error
	FindPendingJobs(ctx context.Context, limit int) ([]models.IndexJob, error)
}

type indexJobRepository struct {
	db *gorm.DB
}

func NewIndexJobRepository(db *gorm.DB) IndexJobRepository {
	return &indexJobRepository{db: db}
}

func (r *indexJobRepository) Create(ctx context.Context, job *models.IndexJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.IndexStatusQueued
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create index job: %w", err)
	}
	return nil
}

func (r *indexJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.IndexJob, error) {
	var job models.IndexJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("index job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find index job: %w", err)
	}
	return &job, nil
}

func (r *indexJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":   models.IndexStatusProcessing,
		"attempts": gorm.Expr("attempts + 1"),
	})
}

func (r *indexJobRepository) MarkCompleted(ctx context.Context, id uuid.UUID, chunkCount int) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        models.IndexStatusCompleted,
		"chunk_count":   chunkCount,
		"error_message": nil,
	})
}

func (r *indexJobRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        models.IndexStatusFailed,
		"error_message": errorMsg,
	})
}

func (r *indexJobRepository) Requeue(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{
		"status": models.IndexStatusQueued,
	})
}

func (r *indexJobRepository) FindPendingJobs(ctx context.Context, limit int) ([]models.IndexJob, error) {
	var jobs []models.IndexJob
	err := r.db.WithContext(ctx).
		Where("status = ?", models.IndexStatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return jobs, nil
}

func (r *indexJobRepository) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&models.IndexJob{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update index job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("index job %s: %w", id, ErrNotFound)
	}
	return nil
}
