package vision

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"coffee-analysis/domain/models"
)

// Blur and brightness thresholds for the quality verdict.
const (
	blurSharpnessThreshold = 0.02
	brightnessLow          = 0.2
	brightnessHigh         = 0.8
)

// AnalyzeQuality computes the image-quality snapshot: mean luminance,
// luminance spread, Laplacian sharpness and the combined quality score.
func AnalyzeQuality(img *image.NRGBA) models.QualityAnalysis {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return models.QualityAnalysis{IsBlurry: true, BrightnessIssue: true}
	}

	lum := make([]float64, 0, width*height)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			lum = append(lum, luminance(img, x, y))
		}
	}

	brightness := stat.Mean(lum, nil) / 255.0
	contrast := stat.StdDev(lum, nil) / 255.0
	if math.IsNaN(contrast) {
		contrast = 0
	}
	sharpness := laplacianRMS(img) / 255.0

	score := 0.5
	// Up to +0.2 for brightness inside the [0.3, 0.7] band, fading with
	// distance from the midpoint outside it.
	bandDist := math.Abs(brightness-0.5) - 0.2
	if bandDist <= 0 {
		score += 0.2
	} else {
		score += 0.2 * (1 - math.Min(bandDist/0.3, 1))
	}
	score += math.Min(contrast*1.5, 0.3)
	score += math.Min(sharpness*4, 0.2)

	return models.QualityAnalysis{
		AverageBrightness: brightness,
		Contrast:          contrast,
		Sharpness:         sharpness,
		QualityScore:      clamp01(score),
		IsBlurry:          sharpness < blurSharpnessThreshold,
		BrightnessIssue:   brightness < brightnessLow || brightness > brightnessHigh,
	}
}

// laplacianRMS is the root-mean-square response of the 4-neighbor discrete
// Laplacian over luminance. Flat or tiny images score 0.
func laplacianRMS(img *image.NRGBA) float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	var sumSq float64
	n := 0
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := luminance(img, x, y)
			response := -4*center +
				luminance(img, x, y-1) +
				luminance(img, x, y+1) +
				luminance(img, x-1, y) +
				luminance(img, x+1, y)
			sumSq += response * response
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}
