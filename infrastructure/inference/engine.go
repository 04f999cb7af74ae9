package inference

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
	"coffee-analysis/pkg/logger"
	"coffee-analysis/pkg/metrics"
)

// runner executes one forward pass. The production implementation wraps an
// onnxruntime session; tests substitute a fake through the loader.
type runner interface {
	run(tensor []float32, shape []int64) ([]float32, error)
	destroy() error
}

// loadedModel is one immutable generation of the engine: a handle plus a
// session pool sized for concurrent inference. Swaps replace the whole value.
type loadedModel struct {
	handle models.ModelHandle
	pool   chan runner
	size   int
}

// loaderFunc performs the expensive model load. Split out so engine tests run
// without the ONNX runtime.
type loaderFunc func(path string, poolSize int) (*loadedModel, error)

// Engine is an InferencePort backed by ONNX Runtime. The active model is held
// behind an atomic pointer: readers pin a generation once and never observe
// fields from two different loads.
type Engine struct {
	component string
	poolSize  int
	load      loaderFunc

	active atomic.Pointer[loadedModel]
	swapMu sync.Mutex
}

// Options for constructing an engine.
type Options struct {
	Component      string // image-model, symptom-model
	CandidatePaths []string
	PoolSize       int
	LibraryPath    string // onnxruntime shared library, empty = probe
	InputSize      int    // substituted for dynamic spatial dims
}

// NewEngine locates and loads the model. Returns models.ErrModelNotFound when
// no candidate path exists; the caller substitutes a null engine in that case.
func NewEngine(opts Options) (*Engine, error) {
	path, err := LocateModel(opts.CandidatePaths)
	if err != nil {
		return nil, err
	}

	if err := initRuntime(opts.LibraryPath); err != nil {
		return nil, err
	}

	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}

	e := &Engine{
		component: opts.Component,
		poolSize:  poolSize,
		load:      ortLoader(opts.InputSize),
	}

	if _, err := e.Swap(context.Background(), path); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Ready() bool {
	return e.active.Load() != nil
}

func (e *Engine) Handle() (models.ModelHandle, bool) {
	m := e.active.Load()
	if m == nil {
		return models.ModelHandle{}, false
	}
	return m.handle, true
}

// Run executes one forward pass using a pooled session of the generation the
// caller pinned through Handle. A swap between the caller's EncodeTensor and
// this call fails fast with ErrInferenceFailed instead of feeding a tensor
// shaped for the old model into the new one.
func (e *Engine) Run(ctx context.Context, version string, tensor []float32, shape []int64) ([]float32, error) {
	m := e.active.Load()
	if m == nil {
		return nil, models.ErrInferenceFailed
	}
	if m.handle.Version != version {
		return nil, fmt.Errorf("%w: model generation %q retired", models.ErrInferenceFailed, version)
	}

	var r runner
	select {
	case got, ok := <-m.pool:
		if !ok {
			return nil, fmt.Errorf("%w: model generation %q retired", models.ErrInferenceFailed, version)
		}
		r = got
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { m.pool <- r }()

	out, err := r.run(tensor, shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInferenceFailed, err)
	}
	if len(out) == 0 {
		return nil, models.ErrInferenceFailed
	}

	metrics.InferenceRuns.WithLabelValues(m.handle.Version).Inc()
	return out, nil
}

// Swap loads the model at path and atomically publishes it as the active
// generation. The load happens before the pointer swap, so in-flight requests
// keep running against the old generation until the new one is fully ready.
func (e *Engine) Swap(ctx context.Context, path string) (models.ModelHandle, error) {
	e.swapMu.Lock()
	defer e.swapMu.Unlock()

	next, err := e.load(path, e.poolSize)
	if err != nil {
		return models.ModelHandle{}, err
	}

	prev := e.active.Swap(next)
	logger.Info("Model swapped",
		"component", e.component,
		"version", next.handle.Version,
		"layout", next.handle.Layout.String(),
		"classes", next.handle.NumClasses,
	)

	if prev != nil {
		go drainAndClose(prev)
	}
	return next.handle, nil
}

func (e *Engine) Health() models.HealthStatus {
	m := e.active.Load()
	if m == nil {
		return models.Unhealthy(e.component, "no model loaded")
	}
	h := models.Healthy(e.component)
	h.Detail = m.handle.Version
	return h
}

func (e *Engine) Close() error {
	e.swapMu.Lock()
	defer e.swapMu.Unlock()

	m := e.active.Swap(nil)
	if m != nil {
		drainAndClose(m)
	}
	return nil
}

// drainAndClose reclaims every pooled session of a retired generation. Each
// in-flight session comes back through the pool channel before destruction.
func drainAndClose(m *loadedModel) {
	for i := 0; i < m.size; i++ {
		r := <-m.pool
		if err := r.destroy(); err != nil {
			logger.Warn("Failed to destroy inference session", "error", err)
		}
	}
	// Every session is back and destroyed; nothing sends on this pool again.
	// Closing it unblocks any Run still waiting on the retired generation.
	close(m.pool)
}

var _ ports.InferencePort = (*Engine)(nil)
