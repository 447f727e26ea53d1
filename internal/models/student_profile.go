package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StudentProfile is the persisted form of a Profile. Saves replace the
// whole row; collections are stored as JSON columns.
type StudentProfile struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID         string    `gorm:"type:text;uniqueIndex;not null" json:"owner_id"`
	FirstName       string    `gorm:"type:text" json:"first_name"`
	LastName        string    `gorm:"type:text" json:"last_name"`
	Email           string    `gorm:"type:text" json:"email"`
	Phone           string    `gorm:"type:text" json:"phone"`
	DateOfBirth     string    `gorm:"type:text" json:"date_of_birth"`
	Gender          string    `gorm:"type:text" json:"gender"`
	Address         string    `gorm:"type:text" json:"address"`
	LocationQuery   string    `gorm:"type:text" json:"location_query"`
	LocationLat     *float64  `json:"location_latitude,omitempty"`
	LocationLon     *float64  `json:"location_longitude,omitempty"`
	Languages       string    `gorm:"type:text" json:"languages"`
	LinkedIn        string    `gorm:"type:text" json:"linkedin"`
	CareerObjective string    `gorm:"type:text" json:"career_objective"`

	Education       datatypes.JSONType[[]EducationItem]      `json:"education"`
	Experience      datatypes.JSONType[[]ExperienceItem]     `json:"experience"`
	Trainings       datatypes.JSONType[[]TrainingItem]       `json:"trainings"`
	Projects        datatypes.JSONType[[]ProjectItem]        `json:"projects"`
	Skills          datatypes.JSONType[[]SkillItem]          `json:"skills"`
	Portfolio       datatypes.JSONType[[]PortfolioItem]      `json:"portfolio"`
	Accomplishments datatypes.JSONType[[]AccomplishmentItem] `json:"accomplishments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

// NewStudentProfile builds the record for a full-snapshot save.
func NewStudentProfile(ownerID string, p Profile) *StudentProfile {
	rec := &StudentProfile{
		OwnerID:         ownerID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		Phone:           p.Phone,
		DateOfBirth:     p.DateOfBirth,
		Gender:          p.Gender,
		Address:         p.Address,
		Languages:       p.Languages,
		LinkedIn:        p.LinkedIn,
		CareerObjective: p.CareerObjective,
		Education:       datatypes.NewJSONType(nonNil(p.Education)),
		Experience:      datatypes.NewJSONType(nonNil(p.Experience)),
		Trainings:       datatypes.NewJSONType(nonNil(p.Trainings)),
		Projects:        datatypes.NewJSONType(nonNil(p.Projects)),
		Skills:          datatypes.NewJSONType(nonNil(p.Skills)),
		Portfolio:       datatypes.NewJSONType(nonNil(p.Portfolio)),
		Accomplishments: datatypes.NewJSONType(nonNil(p.Accomplishments)),
	}
	if p.Location != nil {
		lat, lon := p.Location.Latitude, p.Location.Longitude
		rec.LocationQuery = p.Location.Address
		rec.LocationLat = &lat
		rec.LocationLon = &lon
	}
	return rec
}

// ToProfile converts the record back to the canonical shape.
func (s *StudentProfile) ToProfile() Profile {
	p := Profile{
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		Email:           s.Email,
		Phone:           s.Phone,
		DateOfBirth:     s.DateOfBirth,
		Gender:          s.Gender,
		Address:         s.Address,
		Languages:       s.Languages,
		LinkedIn:        s.LinkedIn,
		CareerObjective: s.CareerObjective,
		Education:       nonNil(s.Education.Data()),
		Experience:      nonNil(s.Experience.Data()),
		Trainings:       nonNil(s.Trainings.Data()),
		Projects:        nonNil(s.Projects.Data()),
		Skills:          nonNil(s.Skills.Data()),
		Portfolio:       nonNil(s.Portfolio.Data()),
		Accomplishments: nonNil(s.Accomplishments.Data()),
	}
	if s.LocationQuery != "" {
		loc := &GeoLocation{Address: s.LocationQuery}
		if s.LocationLat != nil {
			loc.Latitude = *s.LocationLat
		}
		if s.LocationLon != nil {
			loc.Longitude = *s.LocationLon
		}
		p.Location = loc
	}
	return p
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
