package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"coffee-analysis/domain/models"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// initRuntime initializes the ONNX environment exactly once per process.
func initRuntime(libraryPath string) error {
	runtimeOnce.Do(func() {
		if err := configureSharedLibrary(libraryPath); err != nil {
			runtimeErr = err
			return
		}
		if !ort.IsInitialized() {
			runtimeErr = ort.InitializeEnvironment()
		}
	})
	return runtimeErr
}

// ortLoader builds the production loaderFunc. defaultSize is substituted for
// dynamic spatial dimensions in the declared input shape.
func ortLoader(defaultSize int) loaderFunc {
	if defaultSize <= 0 {
		defaultSize = 224
	}
	return func(path string, poolSize int) (*loadedModel, error) {
		handle, err := inspectModel(path, defaultSize)
		if err != nil {
			return nil, err
		}

		pool := make(chan runner, poolSize)
		for i := 0; i < poolSize; i++ {
			sess, err := ort.NewDynamicAdvancedSession(path,
				[]string{handle.InputName}, []string{handle.OutputName}, nil)
			if err != nil {
				for j := 0; j < i; j++ {
					r := <-pool
					_ = r.destroy()
				}
				return nil, fmt.Errorf("failed to create session: %w", err)
			}
			pool <- &ortRunner{session: sess}
		}

		return &loadedModel{handle: handle, pool: pool, size: poolSize}, nil
	}
}

// inspectModel reads the model's declared I/O and derives the handle: tensor
// layout from the channel position, class count from the output shape.
func inspectModel(path string, defaultSize int) (models.ModelHandle, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return models.ModelHandle{}, fmt.Errorf("failed to read model io: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return models.ModelHandle{}, fmt.Errorf("unexpected model io (in:%d out:%d)", len(inputs), len(outputs))
	}

	in, out := inputs[0], outputs[0]
	layout, shape, err := resolveInput(in.Dimensions, defaultSize)
	if err != nil {
		return models.ModelHandle{}, err
	}

	numClasses := 0
	if n := len(out.Dimensions); n > 0 {
		numClasses = int(out.Dimensions[n-1])
	}
	if numClasses <= 0 {
		return models.ModelHandle{}, fmt.Errorf("cannot determine class count from output shape %v", out.Dimensions)
	}

	return models.ModelHandle{
		InputName:  in.Name,
		OutputName: out.Name,
		Layout:     layout,
		InputShape: shape,
		NumClasses: numClasses,
		Version:    modelVersion(path),
	}, nil
}

// resolveInput normalizes a model's declared input shape. Rank-4 image inputs
// get the tensor layout inferred from the channel position and dynamic
// spatial dimensions replaced with defaultSize. Rank-2 vector inputs, the
// symptom indicator model, keep their declared width; layout does not apply
// to them and stays at the zero value. Dynamic batch dimensions pin to 1.
func resolveInput(dims []int64, defaultSize int) (models.TensorLayout, []int64, error) {
	shape := make([]int64, len(dims))
	copy(shape, dims)
	if len(shape) > 0 && shape[0] <= 0 {
		shape[0] = 1
	}

	switch len(shape) {
	case 2:
		if shape[1] <= 0 {
			return models.LayoutChannelFirst, nil, fmt.Errorf("vector input width must be static, got %v", dims)
		}
		return models.LayoutChannelFirst, shape, nil

	case 4:
		switch {
		case shape[1] == 3:
			if shape[2] <= 0 {
				shape[2] = int64(defaultSize)
			}
			if shape[3] <= 0 {
				shape[3] = int64(defaultSize)
			}
			return models.LayoutChannelFirst, shape, nil
		case shape[3] == 3:
			if shape[1] <= 0 {
				shape[1] = int64(defaultSize)
			}
			if shape[2] <= 0 {
				shape[2] = int64(defaultSize)
			}
			return models.LayoutChannelLast, shape, nil
		default:
			return models.LayoutChannelFirst, nil, fmt.Errorf("cannot infer layout from input shape %v", dims)
		}

	default:
		return models.LayoutChannelFirst, nil, fmt.Errorf("expected 2D or 4D input, got %dD", len(dims))
	}
}

// ortRunner wraps one onnxruntime session. Sessions are not safe for
// concurrent use; the pool guarantees exclusive access.
type ortRunner struct {
	session *ort.DynamicAdvancedSession
}

func (r *ortRunner) run(tensor []float32, shape []int64) ([]float32, error) {
	input, err := ort.NewTensor(ort.NewShape(shape...), tensor)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.ArbitraryTensor{nil}
	if err := r.session.Run([]ort.ArbitraryTensor{input}, outputs); err != nil {
		return nil, fmt.Errorf("session run: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	t, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}

	data := t.GetData()
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

func (r *ortRunner) destroy() error {
	if r.session == nil {
		return nil
	}
	err := r.session.Destroy()
	r.session = nil
	return err
}
