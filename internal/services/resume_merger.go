package services

import (
	"slices"
	"strings"

	"internmatch/profile-builder/internal/models"
)

// MergeProfile applies a parsed patch to the profile being edited.
//
// Scalars are filled only when the current value is blank, unless
// overwriteNonEmpty is set. Collections are replaced whole, never merged
// item by item, so parsed ids cannot collide with ids the student created.
// The result shares no slices with either input.
func MergeProfile(existing models.Profile, patch models.ProfilePatch, overwriteNonEmpty bool) models.Profile {
	out := existing.Clone()

	mergeScalar(&out.FirstName, patch.FirstName, overwriteNonEmpty)
	mergeScalar(&out.LastName, patch.LastName, overwriteNonEmpty)
	mergeScalar(&out.Email, patch.Email, overwriteNonEmpty)
	mergeScalar(&out.Phone, patch.Phone, overwriteNonEmpty)
	mergeScalar(&out.Address, patch.Address, overwriteNonEmpty)
	mergeScalar(&out.Languages, patch.Languages, overwriteNonEmpty)
	mergeScalar(&out.LinkedIn, patch.LinkedIn, overwriteNonEmpty)
	mergeScalar(&out.CareerObjective, patch.CareerObjective, overwriteNonEmpty)

	out.Education = mergeCollection(out.Education, patch.Education, overwriteNonEmpty || isPlaceholderEducation(out.Education))
	out.Experience = mergeCollection(out.Experience, patch.Experience, overwriteNonEmpty)
	out.Projects = mergeCollection(out.Projects, patch.Projects, overwriteNonEmpty)
	out.Skills = mergeCollection(out.Skills, patch.Skills, overwriteNonEmpty)
	out.Portfolio = mergeCollection(out.Portfolio, patch.Portfolio, overwriteNonEmpty)

	return out
}

func mergeScalar(dst *string, value *string, overwrite bool) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	if overwrite || strings.TrimSpace(*dst) == "" {
		*dst = *value
	}
}

func mergeCollection[T any](existing, parsed []T, replace bool) []T {
	if len(parsed) == 0 {
		return existing
	}
	if replace || len(existing) == 0 {
		return slices.Clone(parsed)
	}
	return existing
}

// isPlaceholderEducation reports whether the list is still the single blank
// row a new form starts with.
func isPlaceholderEducation(items []models.EducationItem) bool {
	return len(items) == 1 && strings.TrimSpace(items[0].Institution) == ""
}
