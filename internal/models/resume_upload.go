package models

import (
	"time"

	"github.com/google/uuid"
)

type UploadStatus string

const (
	UploadStatusReceived UploadStatus = "received"
	UploadStatusParsed   UploadStatus = "parsed"
	UploadStatusFailed   UploadStatus = "failed"
)

// ResumeUpload tracks a PDF a student uploaded for autofill.
type ResumeUpload struct {
	ID               uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID          string       `gorm:"type:text;index" json:"owner_id"`
	SessionID        uuid.UUID    `gorm:"type:uuid" json:"session_id"`
	Filename         string       `gorm:"type:text" json:"filename"`
	OriginalFileName string       `gorm:"type:text" json:"original_filename"`
	FilePath         string       `gorm:"type:text" json:"file_path"`
	Size             int64        `json:"size"`
	Status           UploadStatus `gorm:"type:text;not null;default:'received'" json:"status"`
	ErrorMessage     *string      `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (ResumeUpload) TableName() string {
	return "resume_uploads"
}
