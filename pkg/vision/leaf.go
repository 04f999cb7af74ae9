package vision

import (
	"image"
	"math"

	"coffee-analysis/domain/models"
)

// Pixel classification thresholds for leaf color analysis.
const (
	shadowLuminance    = 50
	highlightLuminance = 230
	edgeDelta          = 30
)

// AnalyzeEnvironment flags shadows, highlights and background complexity.
// Shadow pixels sit below luminance 50, highlights above 230; an edge pixel has
// a diagonal luminance delta above 30.
func AnalyzeEnvironment(img *image.NRGBA) models.EnvironmentalFactors {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return models.EnvironmentalFactors{}
	}

	var shadowCount, highlightCount, edgeCount, edgeTotal int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			l := luminance(img, x, y)
			if l < shadowLuminance {
				shadowCount++
			}
			if l > highlightLuminance {
				highlightCount++
			}
			if x+1 < bounds.Max.X && y+1 < bounds.Max.Y {
				edgeTotal++
				if math.Abs(l-luminance(img, x+1, y+1)) > edgeDelta {
					edgeCount++
				}
			}
		}
	}

	total := float64(width * height)
	shadowRatio := float64(shadowCount) / total
	highlightRatio := float64(highlightCount) / total
	edgeRatio := 0.0
	if edgeTotal > 0 {
		edgeRatio = float64(edgeCount) / float64(edgeTotal)
	}

	return models.EnvironmentalFactors{
		HasShadow:         shadowRatio > 0.2,
		HasHighlight:      highlightRatio > 0.1,
		ComplexBackground: edgeRatio > 0.3,
		ShadowRatio:       shadowRatio,
		HighlightRatio:    highlightRatio,
		EdgeDensity:       edgeRatio,
	}
}

// ExtractLeafFeatures computes color-band ratios, texture, shape complexity
// and the coffee-leaf score. The score is a deterministic weighted function of
// the other fields plus the environment flags.
func ExtractLeafFeatures(img *image.NRGBA, env models.EnvironmentalFactors) models.LeafFeatures {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return models.LeafFeatures{}
	}
	total := float64(width * height)

	var greenCount, brownCount, yellowCount int
	var hueSum, satSum, valSum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := img.PixOffset(x, y)
			r := float64(img.Pix[i]) / 255.0
			g := float64(img.Pix[i+1]) / 255.0
			b := float64(img.Pix[i+2]) / 255.0

			h, s, v := rgbToHSV(r, g, b)
			hueSum += h
			satSum += s
			valSum += v

			switch {
			case h >= 35 && h <= 85 && s > 0.3:
				greenCount++
			case h >= 45 && h <= 65 && s > 0.6:
				yellowCount++
			case h >= 15 && h < 35:
				brownCount++
			}
		}
	}

	features := models.LeafFeatures{
		GreenRatio:      float64(greenCount) / total,
		BrownRatio:      float64(brownCount) / total,
		YellowRatio:     float64(yellowCount) / total,
		AvgHue:          hueSum / total,
		AvgSaturation:   satSum / total,
		AvgValue:        valSum / total,
		AvgTexture:      horizontalTexture(img),
		ShapeComplexity: shapeComplexity(img),
		EdgeDensity:     edgeDensity(img),
	}
	features.CoffeeLeafScore = coffeeLeafScore(features, env)
	return features
}

// horizontalTexture is the mean absolute RGB gradient between horizontally
// adjacent pixels, on a 0-255 scale.
func horizontalTexture(img *image.NRGBA) float64 {
	bounds := img.Bounds()
	if bounds.Dx() < 2 {
		return 0
	}

	var sum float64
	n := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X-1; x++ {
			i := img.PixOffset(x, y)
			j := img.PixOffset(x+1, y)
			dr := math.Abs(float64(img.Pix[i]) - float64(img.Pix[j]))
			dg := math.Abs(float64(img.Pix[i+1]) - float64(img.Pix[j+1]))
			db := math.Abs(float64(img.Pix[i+2]) - float64(img.Pix[j+2]))
			sum += (dr + dg + db) / 3
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// shapeComplexity averages the 8-neighbor luminance deviation of interior
// pixels.
func shapeComplexity(img *image.NRGBA) float64 {
	bounds := img.Bounds()
	if bounds.Dx() < 3 || bounds.Dy() < 3 {
		return 0
	}

	var sum float64
	n := 0
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := luminance(img, x, y)
			var dev float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					dev += math.Abs(center - luminance(img, x+dx, y+dy))
				}
			}
			sum += dev / 8
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// edgeDensity is the fraction of pixels whose luminance delta to the right or
// bottom neighbor exceeds the edge threshold.
func edgeDensity(img *image.NRGBA) float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 2 || height < 2 {
		return 0
	}

	edgeCount := 0
	n := 0
	for y := bounds.Min.Y; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X; x < bounds.Max.X-1; x++ {
			l := luminance(img, x, y)
			n++
			if math.Abs(l-luminance(img, x+1, y)) > edgeDelta ||
				math.Abs(l-luminance(img, x, y+1)) > edgeDelta {
				edgeCount++
			}
		}
	}
	return float64(edgeCount) / float64(n)
}

// coffeeLeafScore is the gate heuristic: base 0.5 with fixed bonuses for
// leaf-plausible color, texture, shape and a calm background, and penalties
// when color or texture rule a leaf out entirely. Clamped [0,1].
func coffeeLeafScore(f models.LeafFeatures, env models.EnvironmentalFactors) float64 {
	score := 0.5
	if f.GreenRatio > 0.3 || f.BrownRatio > 0.2 {
		score += 0.15
	} else if f.GreenRatio < 0.1 && f.BrownRatio < 0.1 {
		score -= 0.2
	}
	if f.AvgSaturation < 0.15 {
		score -= 0.15
	}
	if f.AvgTexture < 2 || f.AvgTexture > 150 {
		score -= 0.1
	}
	if f.AvgSaturation > 0.3 {
		score += 0.15
	}
	if f.AvgTexture > 10 && f.AvgTexture < 100 {
		score += 0.2
	}
	if f.ShapeComplexity > 5 && f.ShapeComplexity < 50 {
		score += 0.2
	}
	if f.EdgeDensity > 0.1 && f.EdgeDensity < 0.4 {
		score += 0.15
	}
	if !env.ComplexBackground {
		score += 0.1
	}
	if !env.HasShadow && !env.HasHighlight {
		score += 0.05
	}
	return clamp01(score)
}
