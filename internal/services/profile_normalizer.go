package services

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"

	"internmatch/profile-builder/internal/models"
)

// Alternate spellings seen in stored and client-supplied profiles, mapped to
// the canonical JSON field names.
var profileKeyAliases = map[string]string{
	"first_name":       "firstName",
	"last_name":        "lastName",
	"full_name":        "fullName",
	"name":             "fullName",
	"contact_number":   "phone",
	"phone_number":     "phone",
	"date_of_birth":    "dateOfBirth",
	"dob":              "dateOfBirth",
	"location_query":   "address",
	"linkedin_url":     "linkedin",
	"linkedIn":         "linkedin",
	"linkedinUrl":      "linkedin",
	"career_objective": "careerObjective",
	"objective":        "careerObjective",
	"work_experience":  "experience",
	"workExperience":   "experience",
	"experiences":      "experience",
	"educations":       "education",
	"training":         "trainings",
	"project":          "projects",
	"accomplishment":   "accomplishments",
}

var itemKeyAliases = map[string]string{
	"field_of_study":  "fieldOfStudy",
	"start_year":      "startYear",
	"end_year":        "endYear",
	"start_date":      "startDate",
	"end_date":        "endDate",
	"credential_link": "credentialLink",
	"credential_url":  "credentialUrl",
	"school":          "institution",
	"job_title":       "role",
	"tech_stack":      "technologies",
}

var profileCollectionKeys = []string{
	"education", "experience", "trainings", "projects", "skills", "portfolio", "accomplishments",
}

// NormalizeProfile decodes a loosely shaped profile map into the canonical
// Profile. Canonical keys win over aliases, missing item ids become
// index+1, missing skill levels become Intermediate, and a profile with no
// education key gets the blank starting row.
func NormalizeProfile(raw map[string]any) (models.Profile, error) {
	canon := canonicalKeys(raw, profileKeyAliases)

	// A bare string location is an address; lat/lon only come as an object.
	if loc, ok := canon["location"].(string); ok {
		delete(canon, "location")
		if _, exists := canon["address"]; !exists && loc != "" {
			canon["address"] = loc
		}
	}

	for _, key := range profileCollectionKeys {
		items, ok := canon[key].([]any)
		if !ok {
			continue
		}
		normalized := make([]any, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				normalized = append(normalized, canonicalKeys(m, itemKeyAliases))
			}
		}
		canon[key] = normalized
	}

	var p models.Profile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to build profile decoder: %w", err)
	}
	if err := decoder.Decode(canon); err != nil {
		return models.Profile{}, fmt.Errorf("failed to decode profile: %w", err)
	}

	if p.FirstName == "" && p.LastName == "" && p.FullName != "" {
		parts := strings.Fields(p.FullName)
		if len(parts) > 0 {
			p.FirstName = parts[0]
			p.LastName = strings.Join(parts[1:], " ")
		}
	}

	assignMissingIDs(p.Education, func(it *models.EducationItem) *int { return &it.ID })
	assignMissingIDs(p.Experience, func(it *models.ExperienceItem) *int { return &it.ID })
	assignMissingIDs(p.Trainings, func(it *models.TrainingItem) *int { return &it.ID })
	assignMissingIDs(p.Projects, func(it *models.ProjectItem) *int { return &it.ID })
	assignMissingIDs(p.Skills, func(it *models.SkillItem) *int { return &it.ID })
	assignMissingIDs(p.Portfolio, func(it *models.PortfolioItem) *int { return &it.ID })
	assignMissingIDs(p.Accomplishments, func(it *models.AccomplishmentItem) *int { return &it.ID })

	for i := range p.Experience {
		if p.Experience[i].Type == "" {
			p.Experience[i].Type = models.ExperienceTypeInternship
		}
	}
	for i := range p.Skills {
		if p.Skills[i].Level == "" {
			p.Skills[i].Level = models.SkillLevelIntermediate
		}
	}

	return EnsureProfileDefaults(p), nil
}

func canonicalKeys(raw map[string]any, aliases map[string]string) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, isAlias := aliases[k]; !isAlias {
			out[k] = v
		}
	}
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		v := raw[k]
		canonical, isAlias := aliases[k]
		if !isAlias || v == nil {
			continue
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = v
		}
	}
	return out
}

func assignMissingIDs[T any](items []T, id func(*T) *int) {
	for i := range items {
		if p := id(&items[i]); *p == 0 {
			*p = i + 1
		}
	}
}
