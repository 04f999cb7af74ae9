package serviceimpl

import (
	"coffee-analysis/domain/models"
)

// MockPredict produces a deterministic, feature-informed prediction for
// deployments without a model and as the fallback when the real pipeline
// fails. Pure function of the extracted features.
//
// The heuristic reads the dominant color and texture signals: brown tissue
// suggests a spot disease, yellow suggests rust, heavy texture over sparse
// green suggests miner galleries, and a clean green leaf reads as healthy.
func MockPredict(quality models.QualityAnalysis, features models.LeafFeatures) models.ClassProbability {
	var pred models.ClassProbability

	switch {
	case features.BrownRatio > 0.15:
		// Spot diseases brown the tissue; Phoma lesions fragment the leaf
		// outline more than Cercospora's round spots do.
		disease := models.DiseaseCercospora
		if features.ShapeComplexity > 25 {
			disease = models.DiseasePhoma
		}
		pred = models.ClassProbability{
			DiseaseName: disease,
			Confidence:  0.5 + 0.3*clampUnit(features.BrownRatio*2),
		}

	case features.YellowRatio > 0.1:
		pred = models.ClassProbability{
			DiseaseName: models.DiseaseLeafRust,
			Confidence:  0.5 + 0.3*clampUnit(features.YellowRatio*3),
		}

	case features.AvgTexture > 40 && features.GreenRatio < 0.5:
		pred = models.ClassProbability{
			DiseaseName: models.DiseaseLeafMiner,
			Confidence:  0.45 + 0.25*clampUnit(features.AvgTexture/150),
		}

	case features.GreenRatio > 0.5:
		confidence := 0.6 + 0.2*clampUnit(features.GreenRatio)
		if quality.QualityScore < 0.5 {
			confidence *= 0.85
		}
		pred = models.ClassProbability{
			DiseaseName: models.DiseaseHealthy,
			Confidence:  confidence,
		}

	default:
		// Nothing distinctive; a weak healthy call is the least wrong answer.
		pred = models.ClassProbability{
			DiseaseName: models.DiseaseHealthy,
			Confidence:  0.4,
		}
	}

	if pred.Confidence > 0.95 {
		pred.Confidence = 0.95
	}
	return pred
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
