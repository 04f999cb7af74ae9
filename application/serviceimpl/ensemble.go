package serviceimpl

import (
	"coffee-analysis/domain/models"
)

const (
	ensembleStabilityWeight  = 0.1
	ensembleMinStableMembers = 3
	ensembleFloor            = 0.01
	ensembleCeiling          = 0.99
)

// CombineEnsemble reduces the per-augmentation predictions to one decision.
// Variants that failed inference are simply absent from the input; an empty
// input is the caller's signal to fall back.
//
// The winning label is the one with the highest mean confidence across its
// group. Groups whose members agree closely earn a stability bonus; context
// adjustments then discount wins that contradict the extracted leaf features.
func CombineEnsemble(preds []models.ClassProbability, features models.LeafFeatures) (models.ClassProbability, error) {
	if len(preds) == 0 {
		return models.ClassProbability{}, models.ErrEmptyEnsemble
	}

	type group struct {
		sum   float64
		min   float64
		max   float64
		count int
	}
	groups := make(map[string]*group)
	for _, p := range preds {
		g, ok := groups[p.DiseaseName]
		if !ok {
			g = &group{min: p.Confidence, max: p.Confidence}
			groups[p.DiseaseName] = g
		}
		g.sum += p.Confidence
		g.count++
		if p.Confidence < g.min {
			g.min = p.Confidence
		}
		if p.Confidence > g.max {
			g.max = p.Confidence
		}
	}

	var winner string
	var best *group
	bestMean := -1.0
	for name, g := range groups {
		mean := g.sum / float64(g.count)
		// Deterministic tie-break so identical inputs always pick the same label.
		if mean > bestMean || (mean == bestMean && name < winner) {
			bestMean = mean
			winner = name
			best = g
		}
	}

	confidence := bestMean
	if best.count >= ensembleMinStableMembers {
		spread := best.max - best.min
		confidence += (1 - spread) * ensembleStabilityWeight
	}

	// A "Healthy" call over a leaf with little green is suspect, as is a miner
	// call over smooth tissue (galleries always raise texture).
	if winner == models.DiseaseHealthy && features.GreenRatio < 0.3 {
		confidence *= 0.8
	}
	if winner == models.DiseaseLeafMiner && features.AvgTexture < 10 {
		confidence *= 0.7
	}

	if confidence < ensembleFloor {
		confidence = ensembleFloor
	}
	if confidence > ensembleCeiling {
		confidence = ensembleCeiling
	}

	return models.ClassProbability{DiseaseName: winner, Confidence: confidence}, nil
}
