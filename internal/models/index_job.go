package models

import (
	"time"

	"github.com/google/uuid"
)

type IndexJobStatus string

const (
	IndexStatusQueued     IndexJobStatus = "queued"
	IndexStatusProcessing IndexJobStatus = "processing"
	IndexStatusCompleted  IndexJobStatus = "completed"
	IndexStatusFailed     IndexJobStatus = "failed"
)

// IndexJob asks the worker pool to refresh the vector index for one
// student's profile.
type IndexJob struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID      string         `gorm:"type:text;index;not null" json:"owner_id"`
	Status       IndexJobStatus `gorm:"type:text;not null;default:'queued'" json:"status"`
	Attempts     int            `gorm:"not null;default:0" json:"attempts"`
	ChunkCount   int            `json:"chunk_count"`
	ErrorMessage *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (IndexJob) TableName() string {
	return "index_jobs"
}
