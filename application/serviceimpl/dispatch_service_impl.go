package serviceimpl

import (
	"context"
	"net/http"
	"time"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
	"coffee-analysis/domain/repositories"
	"coffee-analysis/domain/services"
	"coffee-analysis/pkg/logger"
	"coffee-analysis/pkg/metrics"
)

// DispatchServiceImpl owns the asynchronous execution mode: image persistence,
// queue publication with synchronous fallback, the worker-side job handler and
// status polling.
type DispatchServiceImpl struct {
	predictor   services.PredictionService
	storage     ports.ImageStoragePort
	queue       ports.JobQueuePort
	predictions repositories.PredictionRepository
	logs        repositories.ProcessingLogRepository
	notifier    ports.NotifierPort
	workerID    string
}

func NewDispatchService(
	predictor services.PredictionService,
	storage ports.ImageStoragePort,
	queue ports.JobQueuePort,
	predictions repositories.PredictionRepository,
	logs repositories.ProcessingLogRepository,
	notifier ports.NotifierPort,
	workerID string,
) services.DispatchService {
	return &DispatchServiceImpl{
		predictor:   predictor,
		storage:     storage,
		queue:       queue,
		predictions: predictions,
		logs:        logs,
		notifier:    notifier,
		workerID:    workerID,
	}
}

// Submit stores the image, records a processing row and publishes a job. A
// failed publish is absorbed: the prediction runs synchronously and the
// caller gets a completed outcome instead of a processing one.
func (s *DispatchServiceImpl) Submit(ctx context.Context, requestID string, imageData []byte, symptomIDs []int) (*services.SubmitOutcome, error) {
	imageRef, err := s.prepare(ctx, requestID, imageData)
	if err != nil {
		return nil, err
	}

	job := models.NewPredictionJob(requestID, imageRef, symptomIDs)
	if err := s.queue.PublishPredictionJob(ctx, job); err != nil {
		metrics.QueuePublishFailures.Inc()
		logger.WarnContext(ctx, "Queue unavailable, falling back to synchronous processing",
			"request_id", requestID,
			"error", err,
		)
		return s.processSync(ctx, requestID, imageRef, imageData, symptomIDs)
	}

	return &services.SubmitOutcome{
		RequestID: requestID,
		Status:    models.StatusProcessing,
	}, nil
}

// SubmitSync bypasses the queue entirely.
func (s *DispatchServiceImpl) SubmitSync(ctx context.Context, requestID string, imageData []byte, symptomIDs []int) (*services.SubmitOutcome, error) {
	imageRef, err := s.prepare(ctx, requestID, imageData)
	if err != nil {
		return nil, err
	}
	return s.processSync(ctx, requestID, imageRef, imageData, symptomIDs)
}

// prepare saves the image and opens the request's status row.
func (s *DispatchServiceImpl) prepare(ctx context.Context, requestID string, imageData []byte) (string, error) {
	imageRef, err := s.storage.Save(ctx, imageData, http.DetectContentType(imageData))
	if err != nil {
		return "", err
	}

	err = s.logs.Create(ctx, &models.ProcessingLog{
		RequestID: requestID,
		ImageRef:  imageRef,
		Status:    models.StatusProcessing,
	})
	if err != nil {
		return "", err
	}
	return imageRef, nil
}

func (s *DispatchServiceImpl) processSync(ctx context.Context, requestID, imageRef string, imageData []byte, symptomIDs []int) (*services.SubmitOutcome, error) {
	result, err := s.predictor.Predict(ctx, requestID, imageData, symptomIDs)
	if err != nil {
		if markErr := s.logs.MarkFailed(ctx, requestID, err.Error()); markErr != nil {
			logger.ErrorContext(ctx, "Failed to record request failure", "request_id", requestID, "error", markErr)
		}
		return nil, err
	}

	saved, err := s.persist(ctx, requestID, imageRef, result)
	if err != nil {
		return nil, err
	}

	return &services.SubmitOutcome{
		RequestID: requestID,
		Status:    models.StatusCompleted,
		Result:    saved,
	}, nil
}

// persist writes the result row idempotently and closes the status row.
func (s *DispatchServiceImpl) persist(ctx context.Context, requestID, imageRef string, result *models.PredictionResult) (*models.PredictionResult, error) {
	result.RequestID = requestID
	result.ImageRef = imageRef

	saved, err := s.predictions.SaveIdempotent(ctx, result)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist prediction", "request_id", requestID, "error", err)
		return nil, err
	}

	if err := s.logs.MarkCompleted(ctx, requestID, saved.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to close status row", "request_id", requestID, "error", err)
		return nil, err
	}
	return saved, nil
}

// ProcessJob replays the synchronous path against a delivered job. Returning
// nil acknowledges the message; an error terminates it. Redeliveries collapse
// onto the existing prediction row via the idempotent save.
func (s *DispatchServiceImpl) ProcessJob(ctx context.Context, job *models.PredictionJob) error {
	if existing, err := s.predictions.GetByRequestID(ctx, job.RequestID); err == nil {
		logger.InfoContext(ctx, "Job already processed, acknowledging redelivery",
			"request_id", job.RequestID,
		)
		return s.logs.MarkCompleted(ctx, job.RequestID, existing.ID)
	}

	imageData, err := s.storage.Read(ctx, job.ImageRef)
	if err != nil {
		s.failJob(ctx, job, err)
		return err
	}

	result, err := s.predictor.Predict(ctx, job.RequestID, imageData, job.SymptomIDs)
	if err != nil {
		s.failJob(ctx, job, err)
		return err
	}

	if _, err := s.persist(ctx, job.RequestID, job.ImageRef, result); err != nil {
		return err
	}
	return nil
}

// failJob records the terminal failure and alerts. Failed jobs are not
// requeued; resubmission is an explicit caller action.
func (s *DispatchServiceImpl) failJob(ctx context.Context, job *models.PredictionJob, cause error) {
	if err := s.logs.MarkFailed(ctx, job.RequestID, cause.Error()); err != nil {
		logger.ErrorContext(ctx, "Failed to record job failure", "request_id", job.RequestID, "error", err)
	}

	if s.notifier.IsEnabled() {
		alertErr := s.notifier.SendJobFailedAlert(ctx, &ports.FailureAlert{
			RequestID: job.RequestID,
			ImageRef:  job.ImageRef,
			WorkerID:  s.workerID,
			Error:     cause.Error(),
			FailedAt:  time.Now().UTC().Format(time.RFC3339),
		})
		if alertErr != nil {
			logger.WarnContext(ctx, "Failed to send failure alert", "request_id", job.RequestID, "error", alertErr)
		}
	}
}

// Status answers a poll from the persisted rows, regardless of which mode
// processed the request.
func (s *DispatchServiceImpl) Status(ctx context.Context, requestID string) (*models.ProcessingLog, *models.PredictionResult, error) {
	log, err := s.logs.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}

	if log.Status != models.StatusCompleted {
		return log, nil, nil
	}

	result, err := s.predictions.GetByRequestID(ctx, requestID)
	if err != nil {
		// Completed log without a result row should not happen; report the
		// log alone rather than failing the poll.
		logger.WarnContext(ctx, "Completed request has no prediction row", "request_id", requestID)
		return log, nil, nil
	}
	return log, result, nil
}

var _ services.DispatchService = (*DispatchServiceImpl)(nil)
