package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
	"coffee-analysis/pkg/logger"
)

// Publisher publishes prediction jobs to JetStream.
type Publisher struct {
	client  *Client
	timeout time.Duration
}

func NewPublisher(client *Client, publishTimeout time.Duration) *Publisher {
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}
	return &Publisher{client: client, timeout: publishTimeout}
}

// PublishPredictionJob sends a job to the work queue. The publish is bounded
// by the configured timeout so a dead broker fails fast and the caller can
// fall back to synchronous processing.
func (p *Publisher) PublishPredictionJob(ctx context.Context, job *models.PredictionJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ack, err := p.client.js.Publish(ctx, SubjectJobs, data)
	if err != nil {
		logger.Error("Failed to publish prediction job",
			"request_id", job.RequestID,
			"error", err,
		)
		return fmt.Errorf("%w: %v", models.ErrQueueUnavailable, err)
	}

	logger.Info("Prediction job published to JetStream",
		"request_id", job.RequestID,
		"image_ref", job.ImageRef,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
	)

	return nil
}

// Ping verifies the broker connection.
func (p *Publisher) Ping(ctx context.Context) error {
	if !p.client.IsConnected() {
		return models.ErrQueueUnavailable
	}
	return p.client.Ping()
}

var _ ports.JobQueuePort = (*Publisher)(nil)
