package serviceimpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-analysis/domain/models"
)

func probs(name string, confidences ...float64) []models.ClassProbability {
	out := make([]models.ClassProbability, len(confidences))
	for i, c := range confidences {
		out[i] = models.ClassProbability{DiseaseName: name, Confidence: c}
	}
	return out
}

func healthyFeatures() models.LeafFeatures {
	return models.LeafFeatures{GreenRatio: 0.7, AvgTexture: 30}
}

func TestCombineEnsemble_Empty(t *testing.T) {
	_, err := CombineEnsemble(nil, healthyFeatures())
	assert.ErrorIs(t, err, models.ErrEmptyEnsemble)
}

func TestCombineEnsemble_StabilityBonus(t *testing.T) {
	// Three agreeing members with zero spread earn the full bonus, capped.
	pred, err := CombineEnsemble(probs(models.DiseaseLeafRust, 0.9, 0.9, 0.9), healthyFeatures())
	require.NoError(t, err)

	assert.Equal(t, models.DiseaseLeafRust, pred.DiseaseName)
	assert.InDelta(t, 0.99, pred.Confidence, 1e-9)
}

func TestCombineEnsemble_NoBonusUnderThreeMembers(t *testing.T) {
	pred, err := CombineEnsemble(probs(models.DiseaseLeafRust, 0.9, 0.9), healthyFeatures())
	require.NoError(t, err)
	assert.InDelta(t, 0.9, pred.Confidence, 1e-9)
}

func TestCombineEnsemble_SpreadShrinksBonus(t *testing.T) {
	// Spread 0.3 leaves 70% of the bonus: mean 0.7 + 0.07.
	pred, err := CombineEnsemble(probs(models.DiseasePhoma, 0.55, 0.7, 0.85), healthyFeatures())
	require.NoError(t, err)
	assert.InDelta(t, 0.77, pred.Confidence, 1e-9)
}

func TestCombineEnsemble_HighestMeanGroupWins(t *testing.T) {
	input := append(
		probs(models.DiseaseCercospora, 0.6, 0.6),
		probs(models.DiseaseLeafRust, 0.8)...,
	)
	pred, err := CombineEnsemble(input, healthyFeatures())
	require.NoError(t, err)
	assert.Equal(t, models.DiseaseLeafRust, pred.DiseaseName)
}

func TestCombineEnsemble_HealthyDiscountedWithoutGreen(t *testing.T) {
	features := models.LeafFeatures{GreenRatio: 0.1, AvgTexture: 30}
	pred, err := CombineEnsemble(probs(models.DiseaseHealthy, 0.8, 0.8), features)
	require.NoError(t, err)
	assert.InDelta(t, 0.8*0.8, pred.Confidence, 1e-9)
}

func TestCombineEnsemble_MinerDiscountedOnSmoothTissue(t *testing.T) {
	features := models.LeafFeatures{GreenRatio: 0.5, AvgTexture: 5}
	pred, err := CombineEnsemble(probs(models.DiseaseLeafMiner, 0.6, 0.6), features)
	require.NoError(t, err)
	assert.InDelta(t, 0.6*0.7, pred.Confidence, 1e-9)
}

func TestCombineEnsemble_ClampFloor(t *testing.T) {
	features := models.LeafFeatures{GreenRatio: 0.0, AvgTexture: 30}
	pred, err := CombineEnsemble(probs(models.DiseaseHealthy, 0.01), features)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.Confidence, 0.01)
}

func TestCombineEnsemble_Deterministic(t *testing.T) {
	input := append(
		probs(models.DiseaseCercospora, 0.5, 0.5),
		probs(models.DiseasePhoma, 0.5, 0.5)...,
	)
	first, err := CombineEnsemble(input, healthyFeatures())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := CombineEnsemble(input, healthyFeatures())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
