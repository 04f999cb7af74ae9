package serviceimpl

import (
	"context"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
	"coffee-analysis/pkg/logger"
	"coffee-analysis/pkg/vision"
)

// Fusion weights for combining the image and symptom classifiers.
const (
	fusionImageWeight   = 0.7
	fusionSymptomWeight = 0.3

	symptomReliableMin = 3
)

// symptomVotes maps each known symptom to (disease, weight) evidence used by
// the rule-based fallback when no symptom model is loaded.
var symptomVotes = map[int]struct {
	disease string
	weight  float64
}{
	models.SymptomYellowSpots:      {models.DiseaseLeafRust, 0.5},
	models.SymptomOrangePustules:   {models.DiseaseLeafRust, 1.0},
	models.SymptomPowderyUnderside: {models.DiseaseLeafRust, 0.8},
	models.SymptomBrownSpots:       {models.DiseaseCercospora, 0.8},
	models.SymptomYellowHalo:       {models.DiseaseCercospora, 0.7},
	models.SymptomHoles:            {models.DiseaseCercospora, 0.4},
	models.SymptomWindingGalleries: {models.DiseaseLeafMiner, 1.0},
	models.SymptomDefoliation:      {models.DiseaseLeafMiner, 0.4},
	models.SymptomDarkLesions:      {models.DiseasePhoma, 0.9},
	models.SymptomMarginNecrosis:   {models.DiseasePhoma, 0.7},
	models.SymptomLeafCurling:      {models.DiseasePhoma, 0.4},
	models.SymptomWilting:          {models.DiseasePhoma, 0.3},
}

// SymptomClassifier scores a caller-supplied symptom set against the disease
// classes. With a loaded model it runs inference over the indicator vector;
// without one it degrades to the weighted-vote rules above.
type SymptomClassifier struct {
	engine ports.InferencePort
}

func NewSymptomClassifier(engine ports.InferencePort) *SymptomClassifier {
	return &SymptomClassifier{engine: engine}
}

// Classify returns the best (disease, confidence) pair for the symptom set
// and whether the answer is reliable. Reliable means at least three known
// symptoms and a real model behind the score.
func (c *SymptomClassifier) Classify(ctx context.Context, symptomIDs []int) (models.ClassProbability, bool, error) {
	known := models.CountKnownSymptoms(symptomIDs)

	if c.engine.Ready() {
		pred, err := c.classifyWithModel(ctx, symptomIDs)
		if err == nil {
			return pred, known >= symptomReliableMin, nil
		}
		logger.WarnContext(ctx, "Symptom model inference failed, using rules", "error", err)
	}

	return c.classifyWithRules(symptomIDs), false, nil
}

func (c *SymptomClassifier) classifyWithModel(ctx context.Context, symptomIDs []int) (models.ClassProbability, error) {
	handle, ok := c.engine.Handle()
	if !ok {
		return models.ClassProbability{}, models.ErrInferenceFailed
	}

	vec := models.EncodeSymptoms(symptomIDs)
	scores, err := c.engine.Run(ctx, handle.Version, vec, []int64{1, int64(len(vec))})
	if err != nil {
		return models.ClassProbability{}, err
	}

	probs := vision.Softmax(scores)
	bestIdx := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[bestIdx] {
			bestIdx = i
		}
	}
	if bestIdx >= len(models.DiseaseClasses) {
		return models.ClassProbability{}, models.ErrInferenceFailed
	}

	return models.ClassProbability{
		DiseaseName: models.DiseaseClasses[bestIdx],
		Confidence:  probs[bestIdx],
	}, nil
}

// classifyWithRules accumulates weighted votes per disease. No known symptoms
// means no evidence of disease, which reads as a weak "Healthy".
func (c *SymptomClassifier) classifyWithRules(symptomIDs []int) models.ClassProbability {
	votes := make(map[string]float64)
	var total float64
	for _, id := range symptomIDs {
		if v, ok := symptomVotes[id]; ok {
			votes[v.disease] += v.weight
			total += v.weight
		}
	}

	if total == 0 {
		return models.ClassProbability{
			DiseaseName: models.DiseaseHealthy,
			Confidence:  1.0 / float64(len(models.DiseaseClasses)),
		}
	}

	var winner string
	best := -1.0
	for name, w := range votes {
		if w > best || (w == best && name < winner) {
			best = w
			winner = name
		}
	}

	// Vote share scaled into (0, 0.85]: rules never claim model-grade certainty.
	confidence := 0.85 * best / total
	if confidence < 0.2 {
		confidence = 0.2
	}
	return models.ClassProbability{DiseaseName: winner, Confidence: confidence}
}

// Health reports the state of the backing symptom engine.
func (c *SymptomClassifier) Health() models.HealthStatus {
	return c.engine.Health()
}

// FuseConfidence combines the two classifiers under fixed weights.
func FuseConfidence(imageConfidence, symptomConfidence float64) float64 {
	return fusionImageWeight*imageConfidence + fusionSymptomWeight*symptomConfidence
}
