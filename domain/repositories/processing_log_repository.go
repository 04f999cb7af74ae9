package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"coffee-analysis/domain/models"
)

// ProcessingLogRepository tracks request status rows. Create is idempotent on
// RequestID for the same reason the prediction table is.
type ProcessingLogRepository interface {
	Create(ctx context.Context, log *models.ProcessingLog) error
	GetByRequestID(ctx context.Context, requestID string) (*models.ProcessingLog, error)
	MarkCompleted(ctx context.Context, requestID string, predictionID uuid.UUID) error
	MarkFailed(ctx context.Context, requestID string, reason string) error

	// MarkStuckAsFailed flags processing rows older than cutoff as failed and
	// returns how many were touched. Used by the stuck-request detector.
	MarkStuckAsFailed(ctx context.Context, cutoff time.Time) (int64, error)
}
