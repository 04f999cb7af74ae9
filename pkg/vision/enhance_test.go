package vision

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"coffee-analysis/domain/models"
)

func TestNeedsEnhancement(t *testing.T) {
	assert.True(t, NeedsEnhancement(qualityWithScore(0.69)))
	assert.False(t, NeedsEnhancement(qualityWithScore(0.7)))
	assert.False(t, NeedsEnhancement(qualityWithScore(0.95)))
}

func TestEnhance_NeverMutatesInput(t *testing.T) {
	img := uniformImage(24, 24, color.NRGBA{R: 30, G: 30, B: 30, A: 255})
	snapshot := append([]uint8(nil), img.Pix...)

	q := AnalyzeQuality(img)
	env := AnalyzeEnvironment(img)
	out := Enhance(img, q, env)

	assert.Equal(t, snapshot, img.Pix)
	assert.NotSame(t, img, out)
}

func TestEnhance_BrightensDarkImage(t *testing.T) {
	img := uniformImage(24, 24, color.NRGBA{R: 30, G: 30, B: 30, A: 255})
	q := AnalyzeQuality(img)
	env := AnalyzeEnvironment(img)

	out := Enhance(img, q, env)
	assert.Greater(t,
		AnalyzeQuality(out).AverageBrightness,
		q.AverageBrightness,
		"dark input should be lifted toward the brightness band")
}

func TestEnhance_DarkensOverexposedImage(t *testing.T) {
	img := uniformImage(24, 24, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
	q := AnalyzeQuality(img)
	env := AnalyzeEnvironment(img)

	out := Enhance(img, q, env)
	assert.Less(t, AnalyzeQuality(out).AverageBrightness, q.AverageBrightness)
}

func qualityWithScore(score float64) models.QualityAnalysis {
	return models.QualityAnalysis{QualityScore: score}
}
