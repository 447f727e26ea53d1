package services

import (
	"fmt"
	"strings"
)

// Upper bound on resume text sent to the model.
const maxResumePromptChars = 30000

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildResumeParsePrompt asks the model to structure raw resume text into
// the ParsedResume JSON shape.
func (pb *PromptBuilder) BuildResumeParsePrompt(resumeText string) string {
	if len(resumeText) > maxResumePromptChars {
		resumeText = resumeText[:maxResumePromptChars]
	}

	return fmt.Sprintf(`You are a resume parser for a student internship portal.

Extract the information in the RESUME TEXT below. Copy values as written in the resume; do not invent data.
Leave a field as an empty string or empty array when the resume does not contain it.

Return only JSON in exactly this format:
{
  "profile": {
    "name": "<full name>",
    "email": "<email>",
    "phone": "<phone number>",
    "location": "<city, state or full address>",
    "url": "<the single most prominent link: LinkedIn, GitHub or personal site>",
    "summary": "<objective or summary paragraph>"
  },
  "educations": [
    {"school": "<institution>", "degree": "<degree, e.g. B.Tech in Computer Science>", "date": "<start - end>", "gpa": "<score or CGPA>", "descriptions": ["<line>"]}
  ],
  "workExperiences": [
    {"company": "<company>", "jobTitle": "<role>", "date": "<start - end>", "descriptions": ["<bullet>"]}
  ],
  "projects": [
    {"project": "<title>", "date": "<date or empty>", "descriptions": ["<bullet>"]}
  ],
  "skills": {
    "featuredSkills": [{"skill": "<skill>", "rating": <1-5 proficiency implied by the resume>}],
    "descriptions": ["<skill lists as written, e.g. Languages: Go, Python>"]
  }
}

RESUME TEXT:
%s`, strings.TrimSpace(resumeText))
}

// extractJSON pulls the JSON object or array out of a model reply that may
// be wrapped in markdown fences or prose.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return strings.TrimSpace(text)
}
