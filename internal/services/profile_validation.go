package services

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"internmatch/profile-builder/internal/models"
)

// Eligibility window for the internship programme.
const (
	MinBirthYear = 2000
	MaxBirthYear = 2005
	MinAge       = 21
	MaxAge       = 24

	dateOfBirthLayout = "2006-01-02"
)

const (
	msgRequired         = "This field is required"
	msgPhoneLength      = "Phone number must be 10 digits"
	msgPhoneDigits      = "Phone number must contain only digits (0-9)"
	msgInvalidDate      = "Please enter a valid date"
	msgLinkedIn         = "Please enter a valid LinkedIn URL starting with https://"
	msgInstitutionDigit = "Institution name should not contain numbers"
	msgDegreeDigit      = "Degree name should not contain numbers"
	msgFieldDigit       = "Field of study should not contain numbers"
	msgScore            = "Score/CGPA should contain only numbers and decimal point"
	msgNoSkills         = "Please add at least one skill"
)

var (
	msgBirthYear = fmt.Sprintf("Year must be between %d and %d", MinBirthYear, MaxBirthYear)
	msgAge       = fmt.Sprintf("Age must be between %d and %d years", MinAge, MaxAge)
)

// ValidateForSubmit re-checks every step that carries rules and returns
// the first failing one.
func ValidateForSubmit(p models.Profile, now time.Time) *ValidationError {
	for _, step := range submitSteps {
		if errs := ValidateStep(step, p, now); len(errs) > 0 {
			return &ValidationError{Step: step, Errors: errs}
		}
	}
	return nil
}

// ValidateStep runs the rules of one wizard step and returns the failures
// in form order. Steps without rules always pass.
func ValidateStep(step int, p models.Profile, now time.Time) []models.FieldError {
	v := &stepValidator{}
	switch step {
	case 1:
		v.personal(p, now)
	case 2:
		v.education(p.Education)
	case 5:
		v.skills(p.Skills)
	}
	return v.errs
}

type stepValidator struct {
	errs []models.FieldError
}

func (v *stepValidator) add(field, message string) {
	v.errs = append(v.errs, models.FieldError{Field: field, Message: message})
}

func (v *stepValidator) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, msgRequired)
		return false
	}
	return true
}

func (v *stepValidator) personal(p models.Profile, now time.Time) {
	v.required("firstName", p.FirstName)

	if v.required("phone", p.Phone) {
		switch {
		case nonDigitRe.MatchString(p.Phone):
			v.add("phone", msgPhoneDigits)
		case len(p.Phone) != phoneDigits:
			v.add("phone", msgPhoneLength)
		}
	}

	if v.required("dateOfBirth", p.DateOfBirth) {
		if msg := checkDateOfBirth(p.DateOfBirth, now); msg != "" {
			v.add("dateOfBirth", msg)
		}
	}

	v.required("gender", p.Gender)
	v.required("address", p.Address)

	if strings.TrimSpace(p.LinkedIn) != "" && !IsLinkedInURL(p.LinkedIn) {
		v.add("linkedin", msgLinkedIn)
	}
}

func (v *stepValidator) education(items []models.EducationItem) {
	for _, edu := range items {
		key := func(field string) string { return itemErrorKey("education", edu.ID, field) }

		if v.required(key("institution"), edu.Institution) && digitRe.MatchString(edu.Institution) {
			v.add(key("institution"), msgInstitutionDigit)
		}
		if v.required(key("degree"), edu.Degree) && digitRe.MatchString(edu.Degree) {
			v.add(key("degree"), msgDegreeDigit)
		}
		if digitRe.MatchString(edu.FieldOfStudy) {
			v.add(key("fieldOfStudy"), msgFieldDigit)
		}
		v.required(key("startYear"), edu.StartYear)
		v.required(key("endYear"), edu.EndYear)
		if !isValidScore(edu.Score) {
			v.add(key("score"), msgScore)
		}
	}
}

func (v *stepValidator) skills(items []models.SkillItem) {
	for _, skill := range items {
		v.required(itemErrorKey("skills", skill.ID, "name"), skill.Name)
		v.required(itemErrorKey("skills", skill.ID, "level"), skill.Level)
	}
	if len(items) == 0 {
		v.add("skills", msgNoSkills)
	}
}

func checkDateOfBirth(value string, now time.Time) string {
	dob, err := time.Parse(dateOfBirthLayout, strings.TrimSpace(value))
	if err != nil {
		return msgInvalidDate
	}
	if dob.Year() < MinBirthYear || dob.Year() > MaxBirthYear {
		return msgBirthYear
	}
	if age := ageOn(dob, now); age < MinAge || age > MaxAge {
		return msgAge
	}
	return ""
}

// ageOn returns completed years between dob and now.
func ageOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// IsLinkedInURL accepts absolute https URLs whose host mentions linkedin.com.
func IsLinkedInURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.Scheme == "https" && strings.Contains(strings.ToLower(u.Hostname()), "linkedin.com")
}

func itemErrorKey(collection string, id int, field string) string {
	return fmt.Sprintf("%s-%d-%s", collection, id, field)
}
