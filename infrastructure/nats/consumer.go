package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
	"coffee-analysis/pkg/logger"
)

// Consumer pulls prediction jobs from JetStream and hands them to the worker
// handler. Failed jobs are terminated, not requeued: the handler has already
// recorded the failure and automatic retries would just repeat it.
type Consumer struct {
	client  *Client
	handler ports.JobHandler

	running atomic.Bool
	wg      sync.WaitGroup

	config ConsumerConfig
}

type ConsumerConfig struct {
	Concurrency     int
	AckWait         time.Duration
	ShutdownTimeout time.Duration
}

func NewConsumer(client *Client, cfg ConsumerConfig) *Consumer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = 5 * time.Minute
	}
	return &Consumer{client: client, config: cfg}
}

func (c *Consumer) SetHandler(handler ports.JobHandler) {
	c.handler = handler
}

// Start blocks until ctx is cancelled, then waits for in-flight messages.
func (c *Consumer) Start(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("handler not set")
	}

	consumer, err := c.client.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          ConsumerName,
		Durable:       ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    2,
		AckWait:       c.config.AckWait,
		FilterSubject: SubjectJobs,
		MaxAckPending: c.config.Concurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	c.running.Store(true)
	logger.Info("Consumer started",
		"stream", StreamName,
		"consumer", ConsumerName,
		"concurrency", c.config.Concurrency,
	)

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.processMessage(ctx, msg)
		}()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	<-ctx.Done()
	logger.Info("Context cancelled, stopping consumer")
	c.running.Store(false)
	// Deliveries stop before the drain, so the wait below only covers
	// messages already handed to a goroutine.
	consumeCtx.Stop()
	c.waitForInflight()
	return nil
}

func (c *Consumer) processMessage(ctx context.Context, msg jetstream.Msg) {
	// Shutdown cancels the consume context. A message already delivered keeps
	// a live context so its inference and persistence calls run to completion
	// instead of aborting mid-write and recording a spurious terminal failure.
	ctx = context.WithoutCancel(ctx)

	var job models.PredictionJob
	if err := json.Unmarshal(msg.Data(), &job); err != nil {
		logger.Error("Failed to unmarshal job", "error", err)
		msg.Term()
		return
	}

	logger.Info("Processing job",
		"request_id", job.RequestID,
		"image_ref", job.ImageRef,
	)

	if err := c.handler(ctx, &job); err != nil {
		logger.Error("Job failed",
			"request_id", job.RequestID,
			"error", err,
		)
		// Terminal: the failure is persisted and a redelivery would hit the
		// same input again.
		msg.Term()
		return
	}

	// Ack only after the handler has persisted the result. A crash between
	// persist and Ack yields a redelivery absorbed by the idempotent save.
	msg.Ack()
	logger.Info("Job completed", "request_id", job.RequestID)
}

func (c *Consumer) waitForInflight() {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	timeout := c.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout reached with jobs still in flight")
	}
}

func (c *Consumer) Stop() {
	c.running.Store(false)
	c.wg.Wait()
	logger.Info("Consumer stopped")
}

// IsRunning reports whether the consume loop is active.
func (c *Consumer) IsRunning() bool {
	return c.running.Load()
}

var _ ports.ConsumerPort = (*Consumer)(nil)
