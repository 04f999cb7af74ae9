package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/repositories"
)

type PredictionRepositoryImpl struct {
	db *gorm.DB
}

func NewPredictionRepository(db *gorm.DB) repositories.PredictionRepository {
	return &PredictionRepositoryImpl{db: db}
}

// SaveIdempotent inserts the result unless a row with the same RequestID
// already exists, in which case the existing row wins. Redelivered queue
// messages land here twice; the first write is the one that counts.
func (r *PredictionRepositoryImpl) SaveIdempotent(ctx context.Context, result *models.PredictionResult) (*models.PredictionResult, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}},
			DoNothing: true,
		}).
		Create(result).Error
	if err != nil {
		return nil, err
	}

	// DoNothing leaves result.ID zeroed on conflict; read back the winner.
	var saved models.PredictionResult
	err = r.db.WithContext(ctx).Where("request_id = ?", result.RequestID).First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *PredictionRepositoryImpl) GetByRequestID(ctx context.Context, requestID string) (*models.PredictionResult, error) {
	var result models.PredictionResult
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *PredictionRepositoryImpl) GetByImageHash(ctx context.Context, imageHash string) (*models.PredictionResult, error) {
	var result models.PredictionResult
	err := r.db.WithContext(ctx).
		Where("image_hash = ?", imageHash).
		Order("created_at DESC").
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *PredictionRepositoryImpl) List(ctx context.Context, offset, limit int) ([]*models.PredictionResult, error) {
	var results []*models.PredictionResult
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&results).Error
	return results, err
}

func (r *PredictionRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.PredictionResult{}).Count(&total).Error
	return total, err
}
