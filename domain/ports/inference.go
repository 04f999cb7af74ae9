package ports

import (
	"context"

	"coffee-analysis/domain/models"
)

// InferencePort is the boundary to the neural network runtime. One port per
// model type (image, symptom).
type InferencePort interface {
	// Ready reports whether a model is loaded. When false the orchestrator
	// routes to the mock path instead of calling Run.
	Ready() bool

	// Handle returns the active model metadata. The value is immutable; a
	// request keeps using the handle it read even if a swap commits mid-flight.
	Handle() (models.ModelHandle, bool)

	// Run executes one forward pass against the generation named by version,
	// taken from the Handle the caller pinned before encoding the tensor, and
	// returns raw per-class scores (the caller applies softmax). Returns
	// models.ErrInferenceFailed when that generation has been retired by a
	// swap or the runtime yields no output; a tensor encoded for one handle
	// is never executed on another.
	Run(ctx context.Context, version string, tensor []float32, shape []int64) ([]float32, error)

	// Swap loads the model at path and atomically replaces the active handle.
	// File I/O happens outside the critical section.
	Swap(ctx context.Context, path string) (models.ModelHandle, error)

	// Health reports the engine state as an explicit tagged value.
	Health() models.HealthStatus

	Close() error
}

// NullInferenceEngine is the capability-absent engine used when no model file
// exists. Ready is always false, so callers never reach Run.
type NullInferenceEngine struct{ Component string }

func (n NullInferenceEngine) Ready() bool                            { return false }
func (n NullInferenceEngine) Handle() (models.ModelHandle, bool)     { return models.ModelHandle{}, false }
func (n NullInferenceEngine) Run(context.Context, string, []float32, []int64) ([]float32, error) {
	return nil, models.ErrInferenceFailed
}
func (n NullInferenceEngine) Swap(context.Context, string) (models.ModelHandle, error) {
	return models.ModelHandle{}, models.ErrModelNotFound
}
func (n NullInferenceEngine) Health() models.HealthStatus {
	return models.Unhealthy(n.Component, "no model loaded")
}
func (n NullInferenceEngine) Close() error { return nil }
