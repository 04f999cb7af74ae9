package services

import (
	"context"

	"coffee-analysis/domain/models"
)

// PredictionService runs the full synchronous disease-prediction pipeline.
// For any structurally valid image it returns a result, never an error other
// than models.ErrDecodeFailed.
type PredictionService interface {
	// Predict classifies raw image bytes, optionally fusing with the symptom
	// classifier when symptomIDs is non-empty. requestID is the caller's
	// idempotency token and ends up on the persisted row.
	Predict(ctx context.Context, requestID string, imageData []byte, symptomIDs []int) (*models.PredictionResult, error)

	// ReloadModel hot-swaps the image model from the catalog and invalidates
	// version-keyed cache entries.
	ReloadModel(ctx context.Context) (models.ModelHandle, error)

	// Health reports per-component health values.
	Health(ctx context.Context) []models.HealthStatus
}

// CacheService is the two-tier lookaside cache over prediction results.
type CacheService interface {
	Get(ctx context.Context, imageHash string) (*models.PredictionResult, bool)
	Set(ctx context.Context, imageHash string, result *models.PredictionResult)
	Invalidate(ctx context.Context, imageHash string)

	// InvalidateVersion drops every entry produced by the given model version
	// from both tiers.
	InvalidateVersion(ctx context.Context, modelVersion string)
}

// SubmitOutcome is the caller-visible submission answer. Status distinguishes
// the completed (sync or fallback) shape from the processing (queued) shape.
type SubmitOutcome struct {
	RequestID string                   `json:"request_id"`
	Status    string                   `json:"status"`
	Result    *models.PredictionResult `json:"result,omitempty"`
}

// DispatchService owns the asynchronous execution mode.
type DispatchService interface {
	// Submit stores the image, records a status row and publishes a job. On
	// queue failure it runs the synchronous path and returns a completed
	// outcome instead of a processing one.
	Submit(ctx context.Context, requestID string, imageData []byte, symptomIDs []int) (*SubmitOutcome, error)

	// SubmitSync bypasses the queue entirely.
	SubmitSync(ctx context.Context, requestID string, imageData []byte, symptomIDs []int) (*SubmitOutcome, error)

	// Status answers a poll by request id from the most recent persisted row,
	// regardless of which mode processed it.
	Status(ctx context.Context, requestID string) (*models.ProcessingLog, *models.PredictionResult, error)

	// ProcessJob is the worker-side handler replaying the synchronous path.
	ProcessJob(ctx context.Context, job *models.PredictionJob) error
}
