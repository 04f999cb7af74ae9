package serviceimpl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"coffee-analysis/domain/models"
)

func goodQuality() models.QualityAnalysis {
	return models.QualityAnalysis{QualityScore: 0.8}
}

func TestMockPredict(t *testing.T) {
	tests := []struct {
		name        string
		quality     models.QualityAnalysis
		features    models.LeafFeatures
		wantDisease string
		minConf     float64
	}{
		{
			name:        "green leaf reads healthy",
			quality:     goodQuality(),
			features:    models.LeafFeatures{GreenRatio: 0.8},
			wantDisease: models.DiseaseHealthy,
			minConf:     0.6,
		},
		{
			name:        "brown tissue with simple outline reads cercospora",
			quality:     goodQuality(),
			features:    models.LeafFeatures{BrownRatio: 0.3, ShapeComplexity: 10},
			wantDisease: models.DiseaseCercospora,
			minConf:     0.5,
		},
		{
			name:        "brown tissue with fragmented outline reads phoma",
			quality:     goodQuality(),
			features:    models.LeafFeatures{BrownRatio: 0.3, ShapeComplexity: 30},
			wantDisease: models.DiseasePhoma,
			minConf:     0.5,
		},
		{
			name:        "yellow tissue reads rust",
			quality:     goodQuality(),
			features:    models.LeafFeatures{YellowRatio: 0.25},
			wantDisease: models.DiseaseLeafRust,
			minConf:     0.5,
		},
		{
			name:        "heavy texture over sparse green reads miner",
			quality:     goodQuality(),
			features:    models.LeafFeatures{AvgTexture: 60, GreenRatio: 0.3},
			wantDisease: models.DiseaseLeafMiner,
			minConf:     0.45,
		},
		{
			name:        "nothing distinctive reads weak healthy",
			quality:     goodQuality(),
			features:    models.LeafFeatures{},
			wantDisease: models.DiseaseHealthy,
			minConf:     0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := MockPredict(tt.quality, tt.features)
			assert.Equal(t, tt.wantDisease, pred.DiseaseName)
			assert.GreaterOrEqual(t, pred.Confidence, tt.minConf)
			assert.LessOrEqual(t, pred.Confidence, 0.95)
		})
	}
}

func TestMockPredict_PoorQualityShrinksHealthyConfidence(t *testing.T) {
	features := models.LeafFeatures{GreenRatio: 0.8}

	good := MockPredict(models.QualityAnalysis{QualityScore: 0.8}, features)
	poor := MockPredict(models.QualityAnalysis{QualityScore: 0.3}, features)

	assert.Equal(t, models.DiseaseHealthy, poor.DiseaseName)
	assert.Less(t, poor.Confidence, good.Confidence)
}

func TestMockPredict_Deterministic(t *testing.T) {
	features := models.LeafFeatures{BrownRatio: 0.2, ShapeComplexity: 30}
	first := MockPredict(goodQuality(), features)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, MockPredict(goodQuality(), features))
	}
}
