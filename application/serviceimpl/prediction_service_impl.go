package serviceimpl

import (
	"context"
	"image"
	"sync"
	"time"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
	"coffee-analysis/domain/services"
	"coffee-analysis/pkg/logger"
	"coffee-analysis/pkg/metrics"
	"coffee-analysis/pkg/utils"
	"coffee-analysis/pkg/vision"
)

const leafScoreGate = 0.3

// ModelLocator resolves the current image-model file for hot reload.
type ModelLocator func() (string, error)

// PredictionServiceImpl sequences the full pipeline: cache check, leaf gate,
// enhancement, augmented inference, ensemble, fusion. Its hard guarantee is
// that any decodable image yields a PredictionResult; every internal failure
// routes to the feature-informed mock instead of the caller.
type PredictionServiceImpl struct {
	imageEngine ports.InferencePort
	symptoms    *SymptomClassifier
	cache       services.CacheService
	locateModel ModelLocator
}

func NewPredictionService(
	imageEngine ports.InferencePort,
	symptoms *SymptomClassifier,
	cache services.CacheService,
	locateModel ModelLocator,
) services.PredictionService {
	return &PredictionServiceImpl{
		imageEngine: imageEngine,
		symptoms:    symptoms,
		cache:       cache,
		locateModel: locateModel,
	}
}

func (s *PredictionServiceImpl) Predict(ctx context.Context, requestID string, imageData []byte, symptomIDs []int) (result *models.PredictionResult, err error) {
	start := time.Now()
	imageHash := utils.ImageHash(imageData)

	if cached, ok := s.cache.Get(ctx, imageHash); ok {
		logger.InfoContext(ctx, "Prediction served from cache",
			"request_id", requestID,
			"disease", cached.DiseaseName,
		)
		return withRequestID(cached, requestID), nil
	}

	img, err := vision.Decode(imageData)
	if err != nil {
		return nil, err
	}

	quality := vision.AnalyzeQuality(img)
	env := vision.AnalyzeEnvironment(img)
	features := vision.ExtractLeafFeatures(img, env)

	// Any panic past this point still produces an answer.
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Prediction pipeline panicked, using fallback",
				"request_id", requestID,
				"panic", r,
			)
			result = s.finish(ctx, requestID, imageHash, start,
				MockPredict(quality, features), nil, models.VariantFallback)
			err = nil
		}
	}()

	if features.CoffeeLeafScore < leafScoreGate {
		logger.InfoContext(ctx, "Image gated out as not a coffee leaf",
			"request_id", requestID,
			"leaf_score", features.CoffeeLeafScore,
		)
		pred := models.ClassProbability{
			DiseaseName: models.NotCoffeeLeaf,
			Confidence:  1 - features.CoffeeLeafScore,
		}
		return s.finish(ctx, requestID, imageHash, start, pred, nil, models.VariantLeafGate), nil
	}

	if !s.imageEngine.Ready() {
		pred := MockPredict(quality, features)
		return s.finish(ctx, requestID, imageHash, start, pred, symptomIDs, models.VariantSmartMock), nil
	}

	variant := models.VariantRealModel
	base := img
	if vision.NeedsEnhancement(quality) {
		base = vision.Enhance(img, quality, env)
		variant = models.VariantEnhancedCV
	}

	ensembled, err := s.runEnsemble(ctx, base, features)
	if err != nil {
		logger.WarnContext(ctx, "All inference branches failed, using fallback",
			"request_id", requestID,
			"error", err,
		)
		pred := MockPredict(quality, features)
		return s.finish(ctx, requestID, imageHash, start, pred, symptomIDs, models.VariantFallback), nil
	}

	return s.finish(ctx, requestID, imageHash, start, ensembled, symptomIDs, variant), nil
}

// runEnsemble fans the augmented variants out to the model in parallel and
// joins before combining. A failed branch is dropped; only a fully failed
// round surfaces as an error.
func (s *PredictionServiceImpl) runEnsemble(ctx context.Context, img *image.NRGBA, features models.LeafFeatures) (models.ClassProbability, error) {
	handle, ok := s.imageEngine.Handle()
	if !ok {
		return models.ClassProbability{}, models.ErrInferenceFailed
	}

	variants := vision.Augmentations(img)
	preds := make([]models.ClassProbability, 0, len(variants))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, v := range variants {
		wg.Add(1)
		go func(v vision.Augmentation) {
			defer wg.Done()
			pred, err := s.inferOne(ctx, v.Image, handle)
			if err != nil {
				metrics.InferenceFailures.Inc()
				logger.Debug("Augmentation branch dropped", "variant", v.Name, "error", err)
				return
			}
			mu.Lock()
			preds = append(preds, pred)
			mu.Unlock()
		}(v)
	}
	wg.Wait()

	return CombineEnsemble(preds, features)
}

func (s *PredictionServiceImpl) inferOne(ctx context.Context, img *image.NRGBA, handle models.ModelHandle) (models.ClassProbability, error) {
	tensor, shape, err := vision.EncodeTensor(img, handle)
	if err != nil {
		return models.ClassProbability{}, err
	}

	scores, err := s.imageEngine.Run(ctx, handle.Version, tensor, shape)
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

// finish fuses with the symptom classifier when applicable, builds the final
// immutable result and writes it to the cache.
func (s *PredictionServiceImpl) finish(ctx context.Context, requestID, imageHash string, start time.Time, pred models.ClassProbability, symptomIDs []int, variant string) *models.PredictionResult {
	var finalConfidence *float64
	if len(symptomIDs) > 0 && pred.DiseaseName != models.NotCoffeeLeaf {
		symptomPred, reliable, err := s.symptoms.Classify(ctx, symptomIDs)
		if err == nil {
			fused := FuseConfidence(pred.Confidence, symptomPred.Confidence)
			finalConfidence = &fused
			logger.DebugContext(ctx, "Symptom fusion applied",
				"image_confidence", pred.Confidence,
				"symptom_confidence", symptomPred.Confidence,
				"fused", fused,
				"reliable", reliable,
			)
		} else {
			logger.WarnContext(ctx, "Symptom classification failed, using image confidence", "error", err)
		}
	}

	info := models.InfoForDisease(pred.DiseaseName)
	effective := pred.Confidence
	if finalConfidence != nil {
		effective = *finalConfidence
	}

	result := &models.PredictionResult{
		RequestID:       requestID,
		ImageHash:       imageHash,
		DiseaseName:     pred.DiseaseName,
		Confidence:      pred.Confidence,
		FinalConfidence: finalConfidence,
		SeverityLevel:   models.SeverityForConfidence(pred.DiseaseName, effective),
		Description:     info.Description,
		Treatment:       info.Treatment,
		ModelVersion:    variant,
		ProcessingTime:  time.Since(start).Milliseconds(),
		CreatedAt:       time.Now(),
	}

	s.cache.Set(ctx, imageHash, result)

	metrics.Predictions.WithLabelValues(variant, result.DiseaseName).Inc()
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())

	logger.InfoContext(ctx, "Prediction completed",
		"request_id", requestID,
		"disease", result.DiseaseName,
		"confidence", result.EffectiveConfidence(),
		"severity", result.SeverityLevel,
		"variant", variant,
		"duration_ms", result.ProcessingTime,
	)
	return result
}

// ReloadModel hot-swaps the image model and sweeps version-dependent cache
// entries. Safe to call while predictions are in flight.
func (s *PredictionServiceImpl) ReloadModel(ctx context.Context) (models.ModelHandle, error) {
	path, err := s.locateModel()
	if err != nil {
		return models.ModelHandle{}, err
	}

	handle, err := s.imageEngine.Swap(ctx, path)
	if err != nil {
		return models.ModelHandle{}, err
	}

	s.cache.InvalidateVersion(ctx, handle.Version)
	return handle, nil
}

func (s *PredictionServiceImpl) Health(ctx context.Context) []models.HealthStatus {
	return []models.HealthStatus{
		s.imageEngine.Health(),
		s.symptoms.Health(),
	}
}

// withRequestID clones a cached result under the new request identity. The
// cached row keeps its original id; only the caller-visible copy changes.
func withRequestID(cached *models.PredictionResult, requestID string) *models.PredictionResult {
	out := *cached
	out.RequestID = requestID
	return &out
}

var _ services.PredictionService = (*PredictionServiceImpl)(nil)
