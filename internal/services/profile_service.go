package services

import (
	"context"
	"errors"
	"log/slog"

	"internmatch/profile-builder/internal/models"
	"internmatch/profile-builder/internal/repositories"
)

// IndexQueue schedules a background refresh of an owner's vector index.
type IndexQueue interface {
	EnqueueProfile(ctx context.Context, ownerID string) error
}

type ProfileService interface {
	ProfileStore
	GetProfile(ctx context.Context, ownerID string) (models.Profile, error)
}

type profileService struct {
	repo   repositories.ProfileRepository
	index  IndexQueue
	logger *slog.Logger
}

// NewProfileService wires persistence and, when index is non-nil, queues an
// index refresh after every successful save.
func NewProfileService(repo repositories.ProfileRepository, index IndexQueue, logger *slog.Logger) ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &profileService{repo: repo, index: index, logger: logger}
}

func (s *profileService) GetProfile(ctx context.Context, ownerID string) (models.Profile, error) {
	rec, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return EnsureProfileDefaults(rec.ToProfile()), nil
}

func (s *profileService) SaveProfile(ctx context.Context, ownerID string, profile models.Profile) error {
	if _, err := s.repo.Save(ctx, ownerID, profile); err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.EnqueueProfile(ctx, ownerID); err != nil {
			// The profile is saved; a missing index refresh is picked up on the next save.
			s.logger.Warn("failed to queue profile indexing",
				slog.String("owner_id", ownerID),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// EnsureProfileDefaults replaces nil collections with empty ones and gives
// a profile without education the blank row the form starts with.
func EnsureProfileDefaults(p models.Profile) models.Profile {
	if p.Education == nil {
		p.Education = []models.EducationItem{{ID: 1}}
	}
	if p.Experience == nil {
		p.Experience = []models.ExperienceItem{}
	}
	if p.Trainings == nil {
		p.Trainings = []models.TrainingItem{}
	}
	if p.Projects == nil {
		p.Projects = []models.ProjectItem{}
	}
	if p.Skills == nil {
		p.Skills = []models.SkillItem{}
	}
	if p.Portfolio == nil {
		p.Portfolio = []models.PortfolioItem{}
	}
	if p.Accomplishments == nil {
		p.Accomplishments = []models.AccomplishmentItem{}
	}
	return p
}
