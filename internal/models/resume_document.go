package models

// ParsedResume is the output of the resume parsing step.
type ParsedResume struct {
	Profile         ParsedProfile          `json:"profile"`
	Educations      []ParsedEducation      `json:"educations"`
	WorkExperiences []ParsedWorkExperience `json:"workExperiences"`
	Projects        []ParsedProject        `json:"projects"`
	Skills          ParsedSkills           `json:"skills"`
}

type ParsedProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
}

type ParsedEducation struct {
	School       string   `json:"school"`
	Degree       string   `json:"degree"`
	Date         string   `json:"date"`
	GPA          string   `json:"gpa"`
	Descriptions []string `json:"descriptions"`
}

type ParsedWorkExperience struct {
	Company      string   `json:"company"`
	JobTitle     string   `json:"jobTitle"`
	Date         string   `json:"date"`
	Descriptions []string `json:"descriptions"`
}

type ParsedProject struct {
	Project      string   `json:"project"`
	Date         string   `json:"date"`
	Descriptions []string `json:"descriptions"`
}

type ParsedSkills struct {
	FeaturedSkills []FeaturedSkill `json:"featuredSkills"`
	Descriptions   []string        `json:"descriptions"`
}

type FeaturedSkill struct {
	Skill  string `json:"skill"`
	Rating int    `json:"rating"`
}

// IsEmpty reports whether the parser produced nothing usable.
func (r ParsedResume) IsEmpty() bool {
	return r.Profile == (ParsedProfile{}) &&
		len(r.Educations) == 0 &&
		len(r.WorkExperiences) == 0 &&
		len(r.Projects) == 0 &&
		len(r.Skills.FeaturedSkills) == 0 &&
		len(r.Skills.Descriptions) == 0
}

// ResumeDocument is the schema consumed by the resume rendering service.
type ResumeDocument struct {
	Profile         ResumeProfile          `json:"profile"`
	WorkExperiences []ResumeWorkExperience `json:"workExperiences"`
	Educations      []ResumeEducation      `json:"educations"`
	Projects        []ResumeProject        `json:"projects"`
	Skills          ResumeSkills           `json:"skills"`
	Custom          ResumeCustom           `json:"custom"`
}

type ResumeProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	URL      string `json:"url"`
	Github   string `json:"github"`
	Summary  string `json:"summary"`
	Headline string `json:"headline"`
	Location string `json:"location"`
}

type ResumeWorkExperience struct {
	Company      string   `json:"company"`
	JobTitle     string   `json:"jobTitle"`
	Date         string   `json:"date"`
	Descriptions []string `json:"descriptions"`
}

type ResumeEducation struct {
	School       string   `json:"school"`
	Degree       string   `json:"degree"`
	Date         string   `json:"date"`
	GPA          string   `json:"gpa"`
	Descriptions []string `json:"descriptions"`
}

type ResumeProject struct {
	Project      string   `json:"project"`
	Date         string   `json:"date"`
	Descriptions []string `json:"descriptions"`
}

type ResumeSkills struct {
	FeaturedSkills []ResumeFeaturedSkill `json:"featuredSkills"`
	Descriptions   []string              `json:"descriptions"`
}

type ResumeFeaturedSkill struct {
	Skill  string `json:"skill"`
	Rating int    `json:"rating"`
}

type ResumeCustom struct {
	Descriptions []string `json:"descriptions"`
}

// ResumeSettings controls how the rendering surface lays out a document.
type ResumeSettings struct {
	FormToShow       map[string]bool   `json:"formToShow,omitempty"`
	FormToHeading    map[string]string `json:"formToHeading,omitempty"`
	FontSize         string            `json:"fontSize,omitempty"`
	FormsOrder       []string          `json:"formsOrder,omitempty"`
	ShowBulletPoints map[string]bool   `json:"showBulletPoints,omitempty"`
}

const PreviewMessageType = "UPDATE_RESUME"

// PreviewMessage is pushed one-way to the embedded preview document.
// Seq grows monotonically per editing session so the receiver can drop
// stale pushes.
type PreviewMessage struct {
	Type     string         `json:"type"`
	Seq      uint64         `json:"seq"`
	Payload  ResumeDocument `json:"payload"`
	Settings ResumeSettings `json:"settings"`
}
