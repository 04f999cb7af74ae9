package repositories

import (
	"context"

	"coffee-analysis/domain/models"
)

// PredictionRepository persists prediction results. SaveIdempotent must treat
// RequestID as the write key: saving the same request twice returns the
// existing row instead of inserting a duplicate.
type PredictionRepository interface {
	SaveIdempotent(ctx context.Context, result *models.PredictionResult) (*models.PredictionResult, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.PredictionResult, error)
	GetByImageHash(ctx context.Context, imageHash string) (*models.PredictionResult, error)
	List(ctx context.Context, offset, limit int) ([]*models.PredictionResult, error)
	Count(ctx context.Context) (int64, error)
}
