package models

type CreateSessionRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=new edit autofill"`
}

type FieldUpdateRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

type LanguageRequest struct {
	Language string `json:"language" validate:"required,max=50"`
}

type LocationRequest struct {
	Address   string  `json:"address" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type AddItemRequest struct {
	Fields map[string]string `json:"fields"`
}

// FieldError is a validation failure for one form field. Field is either a
// top-level name ("phone") or "{collection}-{id}-{field}".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type SessionResponse struct {
	ID           string       `json:"id"`
	Mode         string       `json:"mode"`
	Step         int          `json:"step"`
	TotalSteps   int          `json:"total_steps"`
	StepTitle    string       `json:"step_title"`
	Profile      Profile      `json:"profile"`
	Errors       []FieldError `json:"errors"`
	FirstInvalid string       `json:"first_invalid,omitempty"`
}

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Status       string `json:"status"`
}

type SubmitResponse struct {
	Saved             bool    `json:"saved"`
	DocumentGenerated bool    `json:"document_generated"`
	Warning           string  `json:"warning,omitempty"`
	Profile           Profile `json:"profile"`
	Document          []byte  `json:"document,omitempty"`
	ContentType       string  `json:"content_type,omitempty"`
	Redirect          string  `json:"redirect"`
}
