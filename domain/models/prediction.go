package models

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline variant tags. Always set on a PredictionResult; load-bearing for
// observability and for the cache key.
const (
	VariantRealModel  = "real-model"
	VariantEnhancedCV = "enhanced-cv"
	VariantSmartMock  = "smart-mock"
	VariantFallback   = "fallback"
	VariantLeafGate   = "leaf-gate" // short-circuited before any model or enhancement ran
)

// PredictionResult is the outcome of one prediction call. Constructed once,
// cached and optionally persisted; never mutated afterwards except to backfill
// ID on persist.
type PredictionResult struct {
	ID              uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RequestID       string    `gorm:"uniqueIndex;not null" json:"request_id"`
	ImageRef        string    `gorm:"not null" json:"image_ref"`
	ImageHash       string    `gorm:"index;not null" json:"image_hash"`
	DiseaseName     string    `gorm:"not null" json:"disease_name"`
	Confidence      float64   `gorm:"not null" json:"confidence"`
	FinalConfidence *float64  `json:"final_confidence,omitempty"` // set when fused with the symptom classifier
	SeverityLevel   string    `gorm:"not null" json:"severity_level"`
	Description     string    `json:"description"`
	Treatment       string    `json:"treatment"`
	ModelVersion    string    `gorm:"not null" json:"model_version"`
	ProcessingTime  int64     `json:"processing_time_ms"` // >= 0
	CreatedAt       time.Time `json:"created_at"`
}

func (PredictionResult) TableName() string {
	return "predictions"
}

// EffectiveConfidence returns the fused confidence when present.
func (p *PredictionResult) EffectiveConfidence() float64 {
	if p.FinalConfidence != nil {
		return *p.FinalConfidence
	}
	return p.Confidence
}
