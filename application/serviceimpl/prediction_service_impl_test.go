package serviceimpl

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
)

// pngBytes encodes a uniform image for pipeline tests.
func pngBytes(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// leafGreen is a saturated yellow-green that reads as leaf tissue.
func leafGreen(t *testing.T) []byte {
	return pngBytes(t, color.NRGBA{R: 150, G: 200, B: 50, A: 255})
}

// flatGray fails the leaf gate: no color, no saturation, no texture.
func flatGray(t *testing.T) []byte {
	return pngBytes(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
}

func rustHandle() models.ModelHandle {
	return models.ModelHandle{
		InputName:  "input",
		OutputName: "output",
		Layout:     models.LayoutChannelFirst,
		InputShape: []int64{1, 3, 32, 32},
		NumClasses: len(models.DiseaseClasses),
		Version:    "model@1",
	}
}

func newPredictionService(imageEngine, symptomEngine *fakeEngine) *PredictionServiceImpl {
	cache := NewCacheService(ports.NullSharedCache{}, time.Minute, time.Hour)
	locate := func() (string, error) { return "/models/leaf.onnx", nil }
	svc := NewPredictionService(imageEngine, NewSymptomClassifier(symptomEngine), cache, locate)
	return svc.(*PredictionServiceImpl)
}

func TestPredict_RealModelPath(t *testing.T) {
	engine := &fakeEngine{
		ready:  true,
		handle: rustHandle(),
		scores: []float32{0, 0, 0, 5, 0}, // argmax -> Leaf Rust
	}
	svc := newPredictionService(engine, &fakeEngine{})

	result, err := svc.Predict(context.Background(), "req-real", leafGreen(t), nil)
	require.NoError(t, err)

	assert.Equal(t, models.DiseaseLeafRust, result.DiseaseName)
	assert.Contains(t, []string{models.VariantRealModel, models.VariantEnhancedCV}, result.ModelVersion)
	assert.Equal(t, "req-real", result.RequestID)
	assert.NotEmpty(t, result.ImageHash)
	assert.Nil(t, result.FinalConfidence)

	// Eight augmentation branches, one forward pass each.
	assert.EqualValues(t, 8, engine.runs.Load())

	// Identical branch outputs earn the full stability bonus, capped.
	assert.InDelta(t, 0.99, result.Confidence, 1e-9)
	assert.Equal(t, models.SeverityHigh, result.SeverityLevel)
}

func TestPredict_CacheSuppressesRepeatInference(t *testing.T) {
	engine := &fakeEngine{ready: true, handle: rustHandle(), scores: []float32{0, 0, 0, 5, 0}}
	svc := newPredictionService(engine, &fakeEngine{})
	imageData := leafGreen(t)

	first, err := svc.Predict(context.Background(), "req-1", imageData, nil)
	require.NoError(t, err)
	runsAfterFirst := engine.runs.Load()

	second, err := svc.Predict(context.Background(), "req-2", imageData, nil)
	require.NoError(t, err)

	assert.Equal(t, runsAfterFirst, engine.runs.Load(), "cached repeat must not reach the model")
	assert.Equal(t, first.DiseaseName, second.DiseaseName)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, "req-2", second.RequestID, "cached copy carries the caller's request id")
	assert.Equal(t, "req-1", first.RequestID)
}

func TestPredict_LeafGateShortCircuits(t *testing.T) {
	engine := &fakeEngine{ready: true, handle: rustHandle(), scores: []float32{0, 0, 0, 5, 0}}
	svc := newPredictionService(engine, &fakeEngine{})

	result, err := svc.Predict(context.Background(), "req-gate", flatGray(t), []int{models.SymptomBrownSpots})
	require.NoError(t, err)

	assert.Equal(t, models.NotCoffeeLeaf, result.DiseaseName)
	assert.Equal(t, models.VariantLeafGate, result.ModelVersion)
	assert.Equal(t, models.SeverityNone, result.SeverityLevel)
	assert.Greater(t, result.Confidence, 0.5)
	assert.Nil(t, result.FinalConfidence, "symptom fusion never applies to a gated image")
	assert.Zero(t, engine.runs.Load(), "gated images never reach the model")
}

func TestPredict_SmartMockWhenModelMissing(t *testing.T) {
	engine := &fakeEngine{ready: false}
	svc := newPredictionService(engine, &fakeEngine{})

	result, err := svc.Predict(context.Background(), "req-mock", leafGreen(t), nil)
	require.NoError(t, err)

	assert.Equal(t, models.DiseaseHealthy, result.DiseaseName)
	assert.Equal(t, models.VariantSmartMock, result.ModelVersion)
	assert.GreaterOrEqual(t, result.Confidence, 0.6)
	assert.Zero(t, engine.runs.Load())
}

func TestPredict_FallbackWhenAllBranchesFail(t *testing.T) {
	engine := &fakeEngine{ready: true, handle: rustHandle(), runErr: models.ErrInferenceFailed}
	svc := newPredictionService(engine, &fakeEngine{})

	result, err := svc.Predict(context.Background(), "req-fb", leafGreen(t), nil)
	require.NoError(t, err, "inference failure must not surface to the caller")

	assert.Equal(t, models.VariantFallback, result.ModelVersion)
	assert.Equal(t, models.DiseaseHealthy, result.DiseaseName)
}

func TestPredict_SymptomFusion(t *testing.T) {
	svc := newPredictionService(&fakeEngine{}, &fakeEngine{})

	result, err := svc.Predict(context.Background(), "req-fuse", leafGreen(t),
		[]int{models.SymptomOrangePustules})
	require.NoError(t, err)

	// Image path reads healthy at 0.8; the single rust vote scores 0.85.
	require.NotNil(t, result.FinalConfidence)
	assert.InDelta(t, 0.7*0.8+0.3*0.85, *result.FinalConfidence, 1e-9)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.Equal(t, *result.FinalConfidence, result.EffectiveConfidence())
}

func TestPredict_DecodeFailurePropagates(t *testing.T) {
	svc := newPredictionService(&fakeEngine{}, &fakeEngine{})

	_, err := svc.Predict(context.Background(), "req-bad", []byte("not an image"), nil)
	assert.ErrorIs(t, err, models.ErrDecodeFailed)

	_, err = svc.Predict(context.Background(), "req-empty", nil, nil)
	assert.ErrorIs(t, err, models.ErrDecodeFailed)
}

func TestReloadModel_SweepsCache(t *testing.T) {
	engine := &fakeEngine{ready: true, handle: rustHandle(), scores: []float32{0, 0, 0, 5, 0}}
	svc := newPredictionService(engine, &fakeEngine{})
	imageData := leafGreen(t)

	_, err := svc.Predict(context.Background(), "req-a", imageData, nil)
	require.NoError(t, err)
	runsBefore := engine.runs.Load()

	handle, err := svc.ReloadModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "model@1", handle.Version)

	// The swap invalidated every cached answer; the repeat re-runs inference.
	_, err = svc.Predict(context.Background(), "req-b", imageData, nil)
	require.NoError(t, err)
	assert.Greater(t, engine.runs.Load(), runsBefore)
}

func TestReloadModel_LocatorFailure(t *testing.T) {
	engine := &fakeEngine{ready: true, handle: rustHandle()}
	cache := NewCacheService(ports.NullSharedCache{}, time.Minute, time.Hour)
	svc := NewPredictionService(engine, NewSymptomClassifier(&fakeEngine{}), cache,
		func() (string, error) { return "", models.ErrModelNotFound })

	_, err := svc.ReloadModel(context.Background())
	assert.ErrorIs(t, err, models.ErrModelNotFound)
}

func TestPredictionService_Health(t *testing.T) {
	svc := newPredictionService(&fakeEngine{ready: true}, &fakeEngine{ready: false})

	statuses := svc.Health(context.Background())
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Healthy)
	assert.False(t, statuses[1].Healthy)
}
