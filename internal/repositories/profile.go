package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"internmatch/profile-builder/internal/models"
)

type ProfileRepository interface {
	// Save replaces the owner's whole profile, creating the row on first save.
	Save(ctx context.Context, ownerID string, profile models.Profile) (*models.StudentProfile, error)
	FindByOwner(ctx context.Context, ownerID string) (*models.StudentProfile, error)
	ListOwnerIDs(ctx context.Context) ([]string, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Save(ctx context.Context, ownerID string, profile models.Profile) (*models.StudentProfile, error) {
	rec := models.NewStudentProfile(ownerID, profile)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.StudentProfile
		err := tx.Where("owner_id = ?", ownerID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec.ID = uuid.New()
			return tx.Create(rec).Error
		case err != nil:
			return err
		}
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		return tx.Save(rec).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return rec, nil
}

func (r *profileRepository) FindByOwner(ctx context.Context, ownerID string) (*models.StudentProfile, error) {
	var rec models.StudentProfile
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile for owner %s: %w", ownerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	return &rec, nil
}

func (r *profileRepository) ListOwnerIDs(ctx context.Context) ([]string, error) {
	var owners []string
	err := r.db.WithContext(ctx).Model(&models.StudentProfile{}).
		Order("owner_id ASC").
		Pluck("owner_id", &owners).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list profile owners: %w", err)
	}
	return owners, nil
}
