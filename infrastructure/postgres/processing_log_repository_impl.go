package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/repositories"
)

type ProcessingLogRepositoryImpl struct {
	db *gorm.DB
}

func NewProcessingLogRepository(db *gorm.DB) repositories.ProcessingLogRepository {
	return &ProcessingLogRepositoryImpl{db: db}
}

func (r *ProcessingLogRepositoryImpl) Create(ctx context.Context, log *models.ProcessingLog) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}},
			DoNothing: true,
		}).
		Create(log).Error
}

func (r *ProcessingLogRepositoryImpl) GetByRequestID(ctx context.Context, requestID string) (*models.ProcessingLog, error) {
	var log models.ProcessingLog
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *ProcessingLogRepositoryImpl) MarkCompleted(ctx context.Context, requestID string, predictionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ProcessingLog{}).
		Where("request_id = ?", requestID).
		Updates(map[string]any{
			"status":        models.StatusCompleted,
			"prediction_id": predictionID,
			"error":         "",
		}).Error
}

func (r *ProcessingLogRepositoryImpl) MarkFailed(ctx context.Context, requestID string, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.ProcessingLog{}).
		Where("request_id = ?", requestID).
		Updates(map[string]any{
			"status": models.StatusFailed,
			"error":  reason,
		}).Error
}

// MarkStuckAsFailed sweeps processing rows that never reached a terminal
// state, typically after a worker crash mid-job.
func (r *ProcessingLogRepositoryImpl) MarkStuckAsFailed(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProcessingLog{}).
		Where("status = ? AND updated_at < ?", models.StatusProcessing, cutoff).
		Updates(map[string]any{
			"status": models.StatusFailed,
			"error":  "processing timed out",
		})
	return res.RowsAffected, res.Error
}
