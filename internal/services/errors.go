package services

import (
	"errors"
	"fmt"
	"strings"

	"internmatch/profile-builder/internal/models"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionClosed     = errors.New("session already submitted")
	ErrStepValidation    = errors.New("step validation failed")
	ErrNotLastStep       = errors.New("submit is only allowed from the last step")
	ErrUnknownField      = errors.New("unknown field")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrItemNotFound      = errors.New("item not found")
	ErrInvalidOption     = errors.New("value is not one of the allowed options")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInvalidFileType   = errors.New("invalid file type: only PDF files are accepted")
	ErrFileTooLarge      = errors.New("file too large")
	ErrResumeParse       = errors.New("failed to parse resume")
	ErrInvalidDocument   = errors.New("resume document failed schema validation")
	ErrUploadNotAllowed  = errors.New("resume upload is only available in autofill mode")
)

// ValidationError is returned when a step transition is rejected.
type ValidationError struct {
	Step   int
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		fields = append(fields, fe.Field)
	}
	return fmt.Sprintf("step %d has invalid fields: %s", e.Step, strings.Join(fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrStepValidation
}

// FirstInvalid is the field the client should focus and scroll to.
func (e *ValidationError) FirstInvalid() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Field
}
