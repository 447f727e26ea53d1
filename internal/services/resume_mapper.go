package services

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"internmatch/profile-builder/internal/models"
)

const (
	profileHeadline = "PROFESSIONAL SUMMARY"

	minParsedSkillLen = 2
	maxParsedSkillLen = 50
)

var (
	dateRangeSepRe   = regexp.MustCompile(`[-–—]`)
	yearRe           = regexp.MustCompile(`\d{4}`)
	degreeFieldRe    = regexp.MustCompile(`(?i)^(.+?)\s+in\s+(.+)$`)
	skillSeparatorRe = regexp.MustCompile(`[,;|•·]`)
)

// SkillRating converts a skill level into the 1..3 rating used by the
// rendering service.
func SkillRating(level string) int {
	switch level {
	case models.SkillLevelAdvanced, models.SkillLevelExpert:
		return 3
	case models.SkillLevelIntermediate:
		return 2
	default:
		return 1
	}
}

// MapProfileToDocument converts the wizard profile into the document schema
// the renderer expects. It is pure: the same profile always yields an equal
// document, and missing values become empty strings or empty slices.
func MapProfileToDocument(p models.Profile) models.ResumeDocument {
	doc := models.ResumeDocument{
		Profile: models.ResumeProfile{
			Name:     displayName(p),
			Email:    p.Email,
			Phone:    p.Phone,
			URL:      p.LinkedIn,
			Github:   githubLink(p.Portfolio),
			Summary:  p.CareerObjective,
			Headline: profileHeadline,
		},
		WorkExperiences: make([]models.ResumeWorkExperience, 0, len(p.Experience)),
		Educations:      make([]models.ResumeEducation, 0, len(p.Education)),
		Projects:        make([]models.ResumeProject, 0, len(p.Projects)+len(p.Trainings)+len(p.Portfolio)),
		Skills: models.ResumeSkills{
			FeaturedSkills: make([]models.ResumeFeaturedSkill, 0, len(p.Skills)),
			Descriptions:   []string{},
		},
		Custom: models.ResumeCustom{Descriptions: []string{}},
	}

	for _, exp := range p.Experience {
		doc.WorkExperiences = append(doc.WorkExperiences, models.ResumeWorkExperience{
			Company:      exp.Company,
			JobTitle:     exp.Role,
			Date:         dateRange(exp.StartDate, exp.EndDate),
			Descriptions: descriptionLines(labelled("Location", exp.Location), exp.Description),
		})
	}

	for _, edu := range p.Education {
		doc.Educations = append(doc.Educations, models.ResumeEducation{
			School: edu.Institution,
			Degree: edu.Degree,
			Date:   dateRange(edu.StartYear, edu.EndYear),
			GPA:    edu.Score,
			Descriptions: descriptionLines(
				labelled("Field of Study", edu.FieldOfStudy),
				labelled("Location", edu.Location),
			),
		})
	}

	for _, proj := range p.Projects {
		doc.Projects = append(doc.Projects, models.ResumeProject{
			Project: proj.Title,
			Descriptions: descriptionLines(
				labelled("Role", proj.Role),
				labelled("Link", proj.Link),
				labelled("Tech Stack", proj.Technologies),
				proj.Description,
			),
		})
	}

	for _, tr := range p.Trainings {
		doc.Projects = append(doc.Projects, models.ResumeProject{
			Project: firstNonEmpty(tr.Title, "Training"),
			Date:    tr.Duration,
			Descriptions: descriptionLines(
				labelled("Provider", tr.Provider),
				labelled("Credential", tr.CredentialLink),
				tr.Description,
			),
		})
	}

	for _, item := range p.Portfolio {
		doc.Projects = append(doc.Projects, models.ResumeProject{
			Project: firstNonEmpty(item.Title, "Portfolio Item"),
			Descriptions: descriptionLines(
				labelled("Link", item.Link),
				item.Description,
			),
		})
	}

	for _, skill := range p.Skills {
		doc.Skills.FeaturedSkills = append(doc.Skills.FeaturedSkills, models.ResumeFeaturedSkill{
			Skill:  skill.Name,
			Rating: SkillRating(skill.Level),
		})
	}
	if langs := strings.TrimSpace(p.Languages); langs != "" {
		doc.Skills.Descriptions = append(doc.Skills.Descriptions, "Languages: "+langs)
	}

	for _, acc := range p.Accomplishments {
		line := joinNonEmpty(" - ", acc.Title, acc.Description)
		if line == "" {
			continue
		}
		doc.Custom.Descriptions = append(doc.Custom.Descriptions, line)
	}

	return doc
}

// MapParsedResumeToProfile turns parser output into a patch. Only fields
// the parser actually produced are set, so the merger can tell "no data"
// apart from "left empty by the student".
func MapParsedResumeToProfile(r models.ParsedResume) models.ProfilePatch {
	var patch models.ProfilePatch

	if parts := strings.Fields(r.Profile.Name); len(parts) > 0 {
		patch.FirstName = stringPtr(parts[0])
		patch.LastName = stringPtr(strings.Join(parts[1:], " "))
	}
	patch.Email = stringPtr(r.Profile.Email)
	patch.Phone = stringPtr(normalizeParsedPhone(r.Profile.Phone))
	patch.Address = stringPtr(r.Profile.Location)
	patch.CareerObjective = stringPtr(r.Profile.Summary)

	if url := strings.TrimSpace(r.Profile.URL); url != "" {
		lower := strings.ToLower(url)
		switch {
		case strings.Contains(lower, "linkedin.com"):
			patch.LinkedIn = &url
		case strings.Contains(lower, "github.com"):
			patch.Portfolio = []models.PortfolioItem{{ID: 1, Title: "GitHub", Link: url}}
		default:
			patch.Portfolio = []models.PortfolioItem{{ID: 1, Title: "Portfolio", Link: url}}
		}
	}

	for i, edu := range r.Educations {
		start, end := splitDateRange(edu.Date)
		startYear := yearRe.FindString(start)
		endYear := startYear
		if y := yearRe.FindString(end); y != "" {
			endYear = y
		}

		degree := strings.TrimSpace(edu.Degree)
		field := ""
		if m := degreeFieldRe.FindStringSubmatch(degree); m != nil {
			degree, field = m[1], m[2]
		}

		patch.Education = append(patch.Education, models.EducationItem{
			ID:           i + 1,
			Institution:  stripDigits(edu.School),
			Degree:       stripDigits(degree),
			FieldOfStudy: stripDigits(field),
			StartYear:    startYear,
			EndYear:      endYear,
			Score:        normalizeParsedScore(edu.GPA),
		})
	}

	for i, exp := range r.WorkExperiences {
		start, end := splitDateRange(exp.Date)
		patch.Experience = append(patch.Experience, models.ExperienceItem{
			ID:          i + 1,
			Type:        models.ExperienceTypeInternship,
			Company:     strings.TrimSpace(exp.Company),
			Role:        strings.TrimSpace(exp.JobTitle),
			StartDate:   start,
			EndDate:     firstNonEmpty(end, "Present"),
			Description: bulletJoin(exp.Descriptions),
		})
	}

	for i, proj := range r.Projects {
		patch.Projects = append(patch.Projects, models.ProjectItem{
			ID:          i + 1,
			Title:       strings.TrimSpace(proj.Project),
			Description: bulletJoin(proj.Descriptions),
		})
	}

	patch.Skills = parsedSkills(r.Skills)
	return patch
}

// parsedSkills de-duplicates rated skills and free-text skill lists by
// their case-folded name, keeping the first spelling seen.
func parsedSkills(s models.ParsedSkills) []models.SkillItem {
	fold := cases.Fold()
	seen := make(map[string]struct{})
	var out []models.SkillItem

	add := func(name, level string) {
		name = strings.TrimSpace(name)
		n := len([]rune(name))
		if n < minParsedSkillLen || n > maxParsedSkillLen {
			return
		}
		key := fold.String(name)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, models.SkillItem{ID: len(out) + 1, Name: name, Level: level})
	}

	for _, fs := range s.FeaturedSkills {
		add(fs.Skill, levelForRating(fs.Rating))
	}
	for _, desc := range s.Descriptions {
		for _, name := range skillSeparatorRe.Split(desc, -1) {
			add(name, models.SkillLevelIntermediate)
		}
	}
	return out
}

func levelForRating(rating int) string {
	switch {
	case rating > 3:
		return models.SkillLevelAdvanced
	case rating > 1:
		return models.SkillLevelIntermediate
	default:
		return models.SkillLevelBeginner
	}
}

func displayName(p models.Profile) string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func githubLink(items []models.PortfolioItem) string {
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), "github") ||
			strings.Contains(strings.ToLower(item.Link), "github") {
			return item.Link
		}
	}
	return ""
}

// dateRange renders "{start} - {end}". With both ends empty it returns ""
// instead of a bare " - " so undated entries print no date line; one empty
// end keeps the separator ("2022 - ").
func dateRange(start, end string) string {
	if start == "" && end == "" {
		return ""
	}
	return start + " - " + end
}

// splitDateRange splits on the first dash-family separator. A range with
// no separator comes back as (whole, "").
func splitDateRange(s string) (string, string) {
	parts := dateRangeSepRe.Split(s, 2)
	if len(parts) == 1 {
		return strings.TrimSpace(parts[0]), ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

func labelled(label, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return label + ": " + value
}

// descriptionLines flattens multi-line blocks into one slice of non-blank lines.
func descriptionLines(blocks ...string) []string {
	lines := []string{}
	for _, block := range blocks {
		for _, line := range strings.Split(block, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func bulletJoin(items []string) string {
	var kept []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			kept = append(kept, "• "+item)
		}
	}
	return strings.Join(kept, "\n")
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func stringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
