package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"coffee-analysis/pkg/di"
	"coffee-analysis/pkg/logger"
)

func main() {
	container := di.NewContainer()

	if err := container.Initialize(); err != nil {
		panic("Failed to initialize container: " + err.Error())
	}
	defer func() {
		if err := container.Cleanup(); err != nil {
			logger.Error("Error during cleanup", "error", err)
		}
	}()

	if container.NATSConsumer == nil {
		logger.Error("Worker requires NATS; none is reachable")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", "signal", sig.String())
		cancel()
	}()

	container.NATSConsumer.SetHandler(container.DispatchService.ProcessJob)

	logger.Info("Worker starting",
		"worker_id", container.GetConfig().Worker.ID,
		"concurrency", container.GetConfig().Worker.Concurrency,
	)

	// Blocks until the context is cancelled, then drains in-flight jobs.
	if err := container.NATSConsumer.Start(ctx); err != nil {
		logger.Error("Consumer error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
