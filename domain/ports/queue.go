package ports

import (
	"context"

	"coffee-analysis/domain/models"
)

// JobQueuePort publishes prediction jobs to the durable queue. Delivery is
// at-least-once; consumers must be idempotent on RequestID.
type JobQueuePort interface {
	PublishPredictionJob(ctx context.Context, job *models.PredictionJob) error
	Ping(ctx context.Context) error
}

// NullJobQueue is the capability-absent queue. Every publish fails with
// ErrQueueUnavailable, which routes submissions to the synchronous fallback.
type NullJobQueue struct{}

func (NullJobQueue) PublishPredictionJob(context.Context, *models.PredictionJob) error {
	return models.ErrQueueUnavailable
}
func (NullJobQueue) Ping(context.Context) error { return models.ErrQueueUnavailable }

// JobHandler processes one delivered job. A nil return acknowledges the
// message; an error rejects it without requeue (failed jobs are terminal and
// must be resubmitted explicitly).
type JobHandler func(ctx context.Context, job *models.PredictionJob) error

// ConsumerPort is the worker-side queue contract. Start blocks until ctx is
// cancelled, finishing the in-flight message before returning.
type ConsumerPort interface {
	SetHandler(handler JobHandler)
	Start(ctx context.Context) error
	Stop()
}
