package vision

import (
	"image"

	"github.com/disintegration/imaging"

	"coffee-analysis/domain/models"
)

// EnhancementThreshold: images scoring at or above this skip enhancement.
const EnhancementThreshold = 0.7

// NeedsEnhancement reports whether the quality score warrants a rewrite.
func NeedsEnhancement(q models.QualityAnalysis) bool {
	return q.QualityScore < EnhancementThreshold
}

// Enhance conditionally rewrites the bitmap: contrast boost for flat images,
// brightness correction toward the [0.3, 0.7] band, sharpening for blurry
// input and a mild contrast lift when shadows or highlights are present.
// Always returns a new image; the input stays untouched for the augmentation
// branches.
func Enhance(img *image.NRGBA, q models.QualityAnalysis, env models.EnvironmentalFactors) *image.NRGBA {
	out := imaging.Clone(img)

	if q.Contrast < 0.1 {
		out = imaging.AdjustContrast(out, 20)
	}

	if q.AverageBrightness < 0.3 {
		// Lift toward the band midpoint; AdjustBrightness takes percent.
		out = imaging.AdjustBrightness(out, (0.5-q.AverageBrightness)*60)
	} else if q.AverageBrightness > 0.7 {
		out = imaging.AdjustBrightness(out, (0.5-q.AverageBrightness)*60)
	}

	if q.IsBlurry {
		out = imaging.Sharpen(out, 1.0)
	}

	if env.HasShadow || env.HasHighlight {
		out = imaging.AdjustContrast(out, 8)
	}

	return out
}
