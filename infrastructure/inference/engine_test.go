package inference

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-analysis/domain/models"
)

type fakeRunner struct {
	out       []float32
	busy      atomic.Bool
	destroyed atomic.Bool
	overlap   *atomic.Bool
}

func (f *fakeRunner) run(tensor []float32, shape []int64) ([]float32, error) {
	if !f.busy.CompareAndSwap(false, true) && f.overlap != nil {
		f.overlap.Store(true)
	}
	defer f.busy.Store(false)
	time.Sleep(time.Millisecond)
	return f.out, nil
}

func (f *fakeRunner) destroy() error {
	f.destroyed.Store(true)
	return nil
}

// fakeLoader produces generations whose runner output encodes the version, so
// tests can detect a torn read across a swap.
func fakeLoader(runners map[string][]*fakeRunner) loaderFunc {
	return func(path string, poolSize int) (*loadedModel, error) {
		pool := make(chan runner, poolSize)
		score := float32(len(runners) + 1)
		var rs []*fakeRunner
		for i := 0; i < poolSize; i++ {
			r := &fakeRunner{out: []float32{score, score}}
			rs = append(rs, r)
			pool <- r
		}
		runners[path] = rs
		return &loadedModel{
			handle: models.ModelHandle{
				Version:    path,
				NumClasses: 2,
				InputShape: []int64{1, 3, 8, 8},
			},
			pool: pool,
			size: poolSize,
		}, nil
	}
}

func newTestEngine(t *testing.T, poolSize int) (*Engine, map[string][]*fakeRunner) {
	t.Helper()
	runners := make(map[string][]*fakeRunner)
	return &Engine{
		component: "image-model",
		poolSize:  poolSize,
		load:      fakeLoader(runners),
	}, runners
}

func TestEngine_RunWithoutModel(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	assert.False(t, e.Ready())
	_, ok := e.Handle()
	assert.False(t, ok)

	_, err := e.Run(context.Background(), "model-a", []float32{1}, []int64{1})
	assert.ErrorIs(t, err, models.ErrInferenceFailed)
}

func TestEngine_SwapPublishesHandle(t *testing.T) {
	e, _ := newTestEngine(t, 2)

	handle, err := e.Swap(context.Background(), "model-a")
	require.NoError(t, err)
	assert.Equal(t, "model-a", handle.Version)
	assert.True(t, e.Ready())

	got, ok := e.Handle()
	require.True(t, ok)
	assert.Equal(t, handle, got)

	out, err := e.Run(context.Background(), handle.Version, []float32{0}, []int64{1})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestEngine_RunRejectsRetiredGeneration(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	_, err := e.Swap(context.Background(), "model-a")
	require.NoError(t, err)
	pinned, ok := e.Handle()
	require.True(t, ok)

	_, err = e.Swap(context.Background(), "model-b")
	require.NoError(t, err)

	// A tensor encoded against the old handle must never run on the new
	// generation; the call fails instead.
	_, err = e.Run(context.Background(), pinned.Version, []float32{0}, []int64{1})
	assert.ErrorIs(t, err, models.ErrInferenceFailed)

	current, ok := e.Handle()
	require.True(t, ok)
	out, err := e.Run(context.Background(), current.Version, []float32{0}, []int64{1})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestEngine_SwapRetiresOldGeneration(t *testing.T) {
	e, runners := newTestEngine(t, 2)

	_, err := e.Swap(context.Background(), "model-a")
	require.NoError(t, err)
	_, err = e.Swap(context.Background(), "model-b")
	require.NoError(t, err)

	// The retired pool drains asynchronously.
	assert.Eventually(t, func() bool {
		for _, r := range runners["model-a"] {
			if !r.destroyed.Load() {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond, "old sessions must be destroyed after swap")

	for _, r := range runners["model-b"] {
		assert.False(t, r.destroyed.Load())
	}
}

func TestEngine_ConcurrentRunsNeverTearAcrossSwap(t *testing.T) {
	e, _ := newTestEngine(t, 2)
	_, err := e.Swap(context.Background(), "model-a")
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	var torn atomic.Bool

	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				h, ok := e.Handle()
				if !ok {
					continue
				}
				out, err := e.Run(ctx, h.Version, []float32{0}, []int64{1})
				if err != nil {
					continue
				}
				// Every value in one output must come from a single generation.
				if out[0] != out[1] {
					torn.Store(true)
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		_, err := e.Swap(ctx, fmt.Sprintf("model-%d", i))
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	assert.False(t, torn.Load(), "a run observed values from two generations")
}

func TestEngine_PoolSerializesSessionAccess(t *testing.T) {
	e, runners := newTestEngine(t, 1)
	_, err := e.Swap(context.Background(), "model-a")
	require.NoError(t, err)

	var overlap atomic.Bool
	for _, r := range runners["model-a"] {
		r.overlap = &overlap
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Run(context.Background(), "model-a", []float32{0}, []int64{1})
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load(), "pooled session entered concurrently")
}

func TestEngine_RunHonorsContextWhenPoolExhausted(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	_, err := e.Swap(context.Background(), "model-a")
	require.NoError(t, err)

	// Hold the only session.
	m := e.active.Load()
	r := <-m.pool
	defer func() { m.pool <- r }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = e.Run(ctx, "model-a", []float32{0}, []int64{1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_CloseDestroysSessions(t *testing.T) {
	e, runners := newTestEngine(t, 2)
	_, err := e.Swap(context.Background(), "model-a")
	require.NoError(t, err)

	require.NoError(t, e.Close())
	assert.False(t, e.Ready())
	for _, r := range runners["model-a"] {
		assert.True(t, r.destroyed.Load())
	}
}

func TestLocateModel(t *testing.T) {
	t.Run("first existing path wins", func(t *testing.T) {
		dir := t.TempDir()
		existing := filepath.Join(dir, "model.onnx")
		require.NoError(t, os.WriteFile(existing, []byte("stub"), 0o644))

		path, err := LocateModel([]string{dir + "/missing.onnx", existing})
		require.NoError(t, err)
		assert.Equal(t, existing, path)
	})

	t.Run("no candidate exists", func(t *testing.T) {
		_, err := LocateModel([]string{"/nonexistent/a.onnx", ""})
		assert.ErrorIs(t, err, models.ErrModelNotFound)
	})

	t.Run("directories are skipped", func(t *testing.T) {
		dir := t.TempDir()
		_, err := LocateModel([]string{dir})
		assert.ErrorIs(t, err, models.ErrModelNotFound)
	})
}
