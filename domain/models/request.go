package models

import (
	"time"

	"github.com/google/uuid"
)

// Processing statuses for a prediction request. Sync requests jump straight to
// completed/failed; async requests pass through processing.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ProcessingLog tracks one prediction request from submission to its terminal
// state. RequestID is the caller-supplied idempotency token: redelivered queue
// messages hit the unique index instead of creating a second row.
type ProcessingLog struct {
	ID           uuid.UUID  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RequestID    string     `gorm:"uniqueIndex;not null" json:"request_id"`
	ImageRef     string     `gorm:"not null" json:"image_ref"`
	Status       string     `gorm:"not null;default:'processing'" json:"status"`
	Error        string     `json:"error,omitempty"`
	PredictionID *uuid.UUID `gorm:"type:uuid" json:"prediction_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (ProcessingLog) TableName() string {
	return "processing_logs"
}

// PredictionJob is the queue payload for async processing. Field layout must
// stay in sync between publisher and worker.
type PredictionJob struct {
	RequestID  string `json:"request_id"` // idempotency token
	ImageRef   string `json:"image_ref"`
	SymptomIDs []int  `json:"symptom_ids,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

func NewPredictionJob(requestID, imageRef string, symptomIDs []int) *PredictionJob {
	return &PredictionJob{
		RequestID:  requestID,
		ImageRef:   imageRef,
		SymptomIDs: symptomIDs,
		CreatedAt:  time.Now().Unix(),
	}
}
