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

type ResumeUploadRepository interface {
	Create(ctx context.Context, upload *models.ResumeUpload) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ResumeUpload, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.UploadStatus, errorMsg string) error
}

type resumeUploadRepository struct {
	db *gorm.DB
}

func NewResumeUploadRepository(db *gorm.DB) ResumeUploadRepository {
	return &resumeUploadRepository{db: db}
}

func (r *resumeUploadRepository) Create(ctx context.Context, upload *models.ResumeUpload) error {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(upload).Error; err != nil {
		return fmt.Errorf("failed to create resume upload: %w", err)
	}

	return nil
}

func (r *resumeUploadRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ResumeUpload, error) {
	var upload models.ResumeUpload
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&upload).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resume upload %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find resume upload: %w", err)
	}

	return &upload, nil
}

// UpdateStatus records the parse result. errorMsg is stored only for failures.
func (r *resumeUploadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.UploadStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == models.UploadStatusFailed {
		updates["error_message"] = errorMsg
	}

	result := r.db.WithContext(ctx).Model(&models.ResumeUpload{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update resume upload: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("resume upload %s: %w", id, ErrNotFound)
	}

	return nil
}
