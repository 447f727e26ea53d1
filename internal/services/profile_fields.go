package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"internmatch/profile-builder/internal/models"
)

// Collection names accepted by the item operations.
const (
	CollectionEducation       = "education"
	CollectionExperience      = "experience"
	CollectionTrainings       = "trainings"
	CollectionProjects        = "projects"
	CollectionSkills          = "skills"
	CollectionPortfolio       = "portfolio"
	CollectionAccomplishments = "accomplishments"
)

var collections = []string{
	CollectionEducation, CollectionExperience, CollectionTrainings, CollectionProjects,
	CollectionSkills, CollectionPortfolio, CollectionAccomplishments,
}

var (
	educationYearOptions  = yearOptions(2000, 2030)
	experienceYearOptions = yearOptions(2010, 2030)
	skillLevelOptions     = []string{models.SkillLevelBeginner, models.SkillLevelIntermediate, models.SkillLevelAdvanced}
)

func yearOptions(from, to int) []string {
	out := make([]string, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, strconv.Itoa(y))
	}
	return out
}

func checkOption(value string, options []string) error {
	if value == "" || slices.Contains(options, value) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidOption, value)
}

// setScalarField updates one top-level profile field, applying the
// keystroke sanitizer that belongs to it.
func setScalarField(p *models.Profile, field, value string) error {
	switch field {
	case "firstName":
		p.FirstName = value
	case "lastName":
		p.LastName = value
	case "email":
		p.Email = value
	case "phone":
		p.Phone = SanitizePhone(value)
	case "dateOfBirth":
		p.DateOfBirth = value
	case "gender":
		p.Gender = value
	case "address":
		p.Address = value
	case "languages":
		p.Languages = value
	case "linkedin":
		p.LinkedIn = value
	case "careerObjective":
		p.CareerObjective = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

func setEducationField(it *models.EducationItem, field, value string) error {
	switch field {
	case "institution":
		it.Institution = SanitizeInstitution(value)
	case "degree":
		it.Degree = SanitizeDegree(value)
	case "fieldOfStudy":
		it.FieldOfStudy = SanitizeFieldOfStudy(value)
	case "startYear", "endYear":
		if err := checkOption(value, educationYearOptions); err != nil {
			return err
		}
		if field == "startYear" {
			it.StartYear = value
		} else {
			it.EndYear = value
		}
	case "score":
		it.Score = SanitizeScore(value)
	case "location":
		it.Location = value
	default:
		return fmt.Errorf("%w: education.%s", ErrUnknownField, field)
	}
	return nil
}

func setExperienceField(it *models.ExperienceItem, field, value string) error {
	switch field {
	case "type":
		if err := checkOption(value, []string{models.ExperienceTypeInternship}); err != nil {
			return err
		}
		it.Type = value
	case "company":
		it.Company = value
	case "role":
		it.Role = value
	case "startDate", "endDate":
		if err := checkOption(value, experienceYearOptions); err != nil {
			return err
		}
		if field == "startDate" {
			it.StartDate = value
		} else {
			it.EndDate = value
		}
	case "description":
		it.Description = value
	case "location":
		it.Location = value
	default:
		return fmt.Errorf("%w: experience.%s", ErrUnknownField, field)
	}
	return nil
}

func setTrainingField(it *models.TrainingItem, field, value string) error {
	switch field {
	case "title":
		it.Title = value
	case "provider":
		it.Provider = value
	case "duration":
		it.Duration = value
	case "description":
		it.Description = value
	case "credentialLink":
		it.CredentialLink = value
	default:
		return fmt.Errorf("%w: trainings.%s", ErrUnknownField, field)
	}
	return nil
}

func setProjectField(it *models.ProjectItem, field, value string) error {
	switch field {
	case "title":
		it.Title = value
	case "role":
		it.Role = value
	case "technologies":
		it.Technologies = value
	case "description":
		it.Description = value
	case "link":
		it.Link = value
	default:
		return fmt.Errorf("%w: projects.%s", ErrUnknownField, field)
	}
	return nil
}

func setSkillField(it *models.SkillItem, field, value string) error {
	switch field {
	case "name":
		it.Name = value
	case "level":
		if err := checkOption(value, skillLevelOptions); err != nil {
			return err
		}
		it.Level = value
	default:
		return fmt.Errorf("%w: skills.%s", ErrUnknownField, field)
	}
	return nil
}

func setPortfolioField(it *models.PortfolioItem, field, value string) error {
	switch field {
	case "title":
		it.Title = value
	case "link":
		it.Link = value
	case "description":
		it.Description = value
	default:
		return fmt.Errorf("%w: portfolio.%s", ErrUnknownField, field)
	}
	return nil
}

func setAccomplishmentField(it *models.AccomplishmentItem, field, value string) error {
	switch field {
	case "title":
		it.Title = value
	case "description":
		it.Description = value
	case "credentialUrl":
		it.CredentialURL = value
	default:
		return fmt.Errorf("%w: accomplishments.%s", ErrUnknownField, field)
	}
	return nil
}

// collectionOps adapts one typed collection of the profile to the generic
// add/update/remove operations.
type collectionOps[T any] struct {
	items   *[]T
	id      func(T) int
	newItem func(id int) T
	set     func(*T, string, string) error
}

func (c collectionOps[T]) maxID() int {
	highest := 0
	for _, it := range *c.items {
		if id := c.id(it); id > highest {
			highest = id
		}
	}
	return highest
}

func (c collectionOps[T]) add(id int, fields map[string]string) error {
	item := c.newItem(id)
	for _, field := range sortedKeys(fields) {
		if err := c.set(&item, field, fields[field]); err != nil {
			return err
		}
	}
	*c.items = append(*c.items, item)
	return nil
}

func (c collectionOps[T]) update(id int, field, value string) error {
	idx := slices.IndexFunc(*c.items, func(it T) bool { return c.id(it) == id })
	if idx < 0 {
		return fmt.Errorf("%w: id %d", ErrItemNotFound, id)
	}
	// Work on a copy so a rejected value leaves the item untouched.
	item := (*c.items)[idx]
	if err := c.set(&item, field, value); err != nil {
		return err
	}
	(*c.items)[idx] = item
	return nil
}

func (c collectionOps[T]) remove(id int) error {
	idx := slices.IndexFunc(*c.items, func(it T) bool { return c.id(it) == id })
	if idx < 0 {
		return fmt.Errorf("%w: id %d", ErrItemNotFound, id)
	}
	*c.items = slices.Delete(*c.items, idx, idx+1)
	return nil
}

// itemCollection is the type-erased view the wizard works with.
type itemCollection interface {
	maxID() int
	add(id int, fields map[string]string) error
	update(id int, field, value string) error
	remove(id int) error
}

func profileCollection(p *models.Profile, name string) (itemCollection, error) {
	switch name {
	case CollectionEducation:
		return collectionOps[models.EducationItem]{
			items:   &p.Education,
			id:      func(it models.EducationItem) int { return it.ID },
			newItem: func(id int) models.EducationItem { return models.EducationItem{ID: id} },
			set:     setEducationField,
		}, nil
	case CollectionExperience:
		return collectionOps[models.ExperienceItem]{
			items: &p.Experience,
			id:    func(it models.ExperienceItem) int { return it.ID },
			newItem: func(id int) models.ExperienceItem {
				return models.ExperienceItem{ID: id, Type: models.ExperienceTypeInternship}
			},
			set: setExperienceField,
		}, nil
	case CollectionTrainings:
		return collectionOps[models.TrainingItem]{
			items:   &p.Trainings,
			id:      func(it models.TrainingItem) int { return it.ID },
			newItem: func(id int) models.TrainingItem { return models.TrainingItem{ID: id} },
			set:     setTrainingField,
		}, nil
	case CollectionProjects:
		return collectionOps[models.ProjectItem]{
			items:   &p.Projects,
			id:      func(it models.ProjectItem) int { return it.ID },
			newItem: func(id int) models.ProjectItem { return models.ProjectItem{ID: id} },
			set:     setProjectField,
		}, nil
	case CollectionSkills:
		return collectionOps[models.SkillItem]{
			items:   &p.Skills,
			id:      func(it models.SkillItem) int { return it.ID },
			newItem: func(id int) models.SkillItem { return models.SkillItem{ID: id} },
			set:     setSkillField,
		}, nil
	case CollectionPortfolio:
		return collectionOps[models.PortfolioItem]{
			items:   &p.Portfolio,
			id:      func(it models.PortfolioItem) int { return it.ID },
			newItem: func(id int) models.PortfolioItem { return models.PortfolioItem{ID: id} },
			set:     setPortfolioField,
		}, nil
	case CollectionAccomplishments:
		return collectionOps[models.AccomplishmentItem]{
			items:   &p.Accomplishments,
			id:      func(it models.AccomplishmentItem) int { return it.ID },
			newItem: func(id int) models.AccomplishmentItem { return models.AccomplishmentItem{ID: id} },
			set:     setAccomplishmentField,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
}

// addLanguage appends a language to the comma-separated list unless it is
// already present (case-insensitive).
func addLanguage(current, language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return current
	}
	var langs []string
	for _, l := range strings.Split(current, ",") {
		if l = strings.TrimSpace(l); l != "" {
			if strings.EqualFold(l, language) {
				return current
			}
			langs = append(langs, l)
		}
	}
	return strings.Join(append(langs, language), ", ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
