package vision

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeQuality_UniformGray(t *testing.T) {
	img := uniformImage(32, 32, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	q := AnalyzeQuality(img)

	assert.InDelta(t, 0.5, q.AverageBrightness, 0.01)
	assert.InDelta(t, 0.0, q.Contrast, 0.001)
	assert.InDelta(t, 0.0, q.Sharpness, 0.001)
	assert.True(t, q.IsBlurry, "flat image has no Laplacian response")
	assert.False(t, q.BrightnessIssue)
	// 0.5 base + 0.2 brightness band, nothing from contrast or sharpness.
	assert.InDelta(t, 0.7, q.QualityScore, 0.01)
}

func TestAnalyzeQuality_DarkImage(t *testing.T) {
	img := uniformImage(32, 32, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
	q := AnalyzeQuality(img)

	assert.Less(t, q.AverageBrightness, 0.2)
	assert.True(t, q.BrightnessIssue)
	assert.Less(t, q.QualityScore, 0.7)
}

func TestAnalyzeQuality_CheckerboardIsSharp(t *testing.T) {
	img := checkerboard(32, 32,
		color.NRGBA{R: 0, G: 0, B: 0, A: 255},
		color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	q := AnalyzeQuality(img)

	assert.False(t, q.IsBlurry)
	assert.Greater(t, q.Contrast, 0.4)
	assert.Greater(t, q.Sharpness, 0.5)
}

func TestAnalyzeQuality_ScoreStaysInRange(t *testing.T) {
	imgs := map[string]color.NRGBA{
		"black": {A: 255},
		"white": {R: 255, G: 255, B: 255, A: 255},
		"mid":   {R: 127, G: 127, B: 127, A: 255},
	}
	for name, c := range imgs {
		t.Run(name, func(t *testing.T) {
			q := AnalyzeQuality(uniformImage(16, 16, c))
			assert.GreaterOrEqual(t, q.QualityScore, 0.0)
			assert.LessOrEqual(t, q.QualityScore, 1.0)
		})
	}
}

func TestAnalyzeQuality_DeterministicPerImage(t *testing.T) {
	img := leafLikeImage(48, 48)
	first := AnalyzeQuality(img)
	second := AnalyzeQuality(img)
	require.Equal(t, first, second)
}
