package models

import "slices"

// Fixed option sets used by the wizard.
const (
	ExperienceTypeInternship = "Internship"

	SkillLevelBeginner     = "Beginner"
	SkillLevelIntermediate = "Intermediate"
	SkillLevelAdvanced     = "Advanced"
	SkillLevelExpert       = "Expert"
)

// Profile is the canonical student record edited by the wizard.
type Profile struct {
	FullName        string       `json:"fullName,omitempty"`
	FirstName       string       `json:"firstName"`
	LastName        string       `json:"lastName"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone"`
	DateOfBirth     string       `json:"dateOfBirth"`
	Gender          string       `json:"gender"`
	Address         string       `json:"address"`
	Location        *GeoLocation `json:"location"`
	Languages       string       `json:"languages"`
	LinkedIn        string       `json:"linkedin"`
	CareerObjective string       `json:"careerObjective"`

	Education       []EducationItem      `json:"education"`
	Experience      []ExperienceItem     `json:"experience"`
	Trainings       []TrainingItem       `json:"trainings"`
	Projects        []ProjectItem        `json:"projects"`
	Skills          []SkillItem          `json:"skills"`
	Portfolio       []PortfolioItem      `json:"portfolio"`
	Accomplishments []AccomplishmentItem `json:"accomplishments"`
}

type GeoLocation struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type EducationItem struct {
	ID           int    `json:"id"`
	Institution  string `json:"institution"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	StartYear    string `json:"startYear"`
	EndYear      string `json:"endYear"`
	Score        string `json:"score"`
	Location     string `json:"location,omitempty"`
}

type ExperienceItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Company     string `json:"company"`
	Role        string `json:"role"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

type TrainingItem struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	Provider       string `json:"provider"`
	Duration       string `json:"duration"`
	Description    string `json:"description"`
	CredentialLink string `json:"credentialLink"`
}

type ProjectItem struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Role         string `json:"role"`
	Technologies string `json:"technologies"`
	Description  string `json:"description"`
	Link         string `json:"link,omitempty"`
}

type SkillItem struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

type PortfolioItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

type AccomplishmentItem struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	CredentialURL string `json:"credentialUrl"`
}

// NewEmptyProfile returns the profile a new student starts with: every
// collection empty except education, which holds one blank row.
func NewEmptyProfile() Profile {
	return Profile{
		Education:       []EducationItem{{ID: 1}},
		Experience:      []ExperienceItem{},
		Trainings:       []TrainingItem{},
		Projects:        []ProjectItem{},
		Skills:          []SkillItem{},
		Portfolio:       []PortfolioItem{},
		Accomplishments: []AccomplishmentItem{},
	}
}

// Clone returns a deep copy so callers can hand snapshots to other goroutines.
func (p Profile) Clone() Profile {
	out := p
	if p.Location != nil {
		loc := *p.Location
		out.Location = &loc
	}
	out.Education = slices.Clone(p.Education)
	out.Experience = slices.Clone(p.Experience)
	out.Trainings = slices.Clone(p.Trainings)
	out.Projects = slices.Clone(p.Projects)
	out.Skills = slices.Clone(p.Skills)
	out.Portfolio = slices.Clone(p.Portfolio)
	out.Accomplishments = slices.Clone(p.Accomplishments)
	return out
}

// ProfilePatch is a partial profile. Nil pointers and nil slices mean
// "no data", which is different from a field the student left empty.
type ProfilePatch struct {
	FirstName       *string `json:"firstName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Address         *string `json:"address,omitempty"`
	Languages       *string `json:"languages,omitempty"`
	LinkedIn        *string `json:"linkedin,omitempty"`
	CareerObjective *string `json:"careerObjective,omitempty"`

	Education  []EducationItem  `json:"education,omitempty"`
	Experience []ExperienceItem `json:"experience,omitempty"`
	Projects   []ProjectItem    `json:"projects,omitempty"`
	Skills     []SkillItem      `json:"skills,omitempty"`
	Portfolio  []PortfolioItem  `json:"portfolio,omitempty"`
}
