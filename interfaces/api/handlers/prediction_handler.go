package handlers

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/repositories"
	"coffee-analysis/domain/services"
	"coffee-analysis/pkg/logger"
	"coffee-analysis/pkg/utils"
)

// maxImageBytes caps uploads; leaf photos past this are almost certainly not
// leaf photos.
const maxImageBytes = 20 * 1024 * 1024

// SubmitPredictionRequest is the validated form surface of a submission.
type SubmitPredictionRequest struct {
	Mode       string `validate:"omitempty,oneof=sync async"`
	SymptomIDs []int  `validate:"max=16,dive,gte=0,lt=64"`
}

type PredictionHandler struct {
	dispatchService   services.DispatchService
	predictionService services.PredictionService
	predictions       repositories.PredictionRepository
}

func NewPredictionHandler(
	dispatchService services.DispatchService,
	predictionService services.PredictionService,
	predictions repositories.PredictionRepository,
) *PredictionHandler {
	return &PredictionHandler{
		dispatchService:   dispatchService,
		predictionService: predictionService,
		predictions:       predictions,
	}
}

// SubmitPrediction POST /api/v1/predictions
// Multipart form: image (file), symptom_ids (comma-separated), mode
// (sync|async, default async). The request id from the middleware is the
// idempotency token.
func (h *PredictionHandler) SubmitPrediction(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requestID := GetRequestID(c)

	req := SubmitPredictionRequest{
		Mode: strings.ToLower(c.FormValue("mode", "async")),
	}

	symptomIDs, err := parseSymptomIDs(c.FormValue("symptom_ids"))
	if err != nil {
		logger.WarnContext(ctx, "Invalid symptom list", "error", err)
		return utils.BadRequestResponse(c, "symptom_ids must be a comma-separated list of integers")
	}
	req.SymptomIDs = symptomIDs

	if err := utils.ValidateStruct(&req); err != nil {
		validationErrors := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Validation failed", "errors", validationErrors)
		return utils.ValidationErrorResponse(c, validationErrors)
	}

	imageData, err := readImageFile(c)
	if err != nil {
		logger.WarnContext(ctx, "Image upload rejected", "error", err)
		return utils.BadRequestResponse(c, err.Error())
	}

	logger.InfoContext(ctx, "Prediction submitted",
		"request_id", requestID,
		"mode", req.Mode,
		"image_bytes", len(imageData),
		"symptoms", len(req.SymptomIDs),
	)

	var outcome *services.SubmitOutcome
	if req.Mode == "sync" {
		outcome, err = h.dispatchService.SubmitSync(ctx, requestID, imageData, req.SymptomIDs)
	} else {
		outcome, err = h.dispatchService.Submit(ctx, requestID, imageData, req.SymptomIDs)
	}
	if err != nil {
		if errors.Is(err, models.ErrDecodeFailed) {
			return utils.BadRequestResponse(c, "Uploaded file is not a decodable image")
		}
		logger.ErrorContext(ctx, "Submission failed", "request_id", requestID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	if outcome.Status == models.StatusProcessing {
		return utils.AcceptedResponse(c, outcome)
	}
	return utils.SuccessResponse(c, outcome)
}

// GetStatus GET /api/v1/predictions/status/:requestId
func (h *PredictionHandler) GetStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requestID := c.Params("requestId")

	log, result, err := h.dispatchService.Status(ctx, requestID)
	if err != nil {
		return utils.NotFoundResponse(c, "Unknown request id")
	}

	payload := fiber.Map{
		"request_id": log.RequestID,
		"status":     log.Status,
		"created_at": log.CreatedAt,
		"updated_at": log.UpdatedAt,
	}
	if log.Error != "" {
		payload["error"] = log.Error
	}
	if result != nil {
		payload["result"] = result
	}
	return utils.SuccessResponse(c, payload)
}

// GetPrediction GET /api/v1/predictions/:requestId
func (h *PredictionHandler) GetPrediction(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requestID := c.Params("requestId")

	result, err := h.predictions.GetByRequestID(ctx, requestID)
	if err != nil {
		return utils.NotFoundResponse(c, "Prediction not found")
	}
	return utils.SuccessResponse(c, result)
}

// ListPredictions GET /api/v1/predictions?page=1&limit=20
func (h *PredictionHandler) ListPredictions(c *fiber.Ctx) error {
	ctx := c.UserContext()

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	results, err := h.predictions.List(ctx, (page-1)*limit, limit)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list predictions", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	total, err := h.predictions.Count(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to count predictions", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.PaginatedSuccessResponse(c, results, total, page, limit)
}

// ReloadModel POST /api/v1/models/reload
// Hot-swaps the image model from the configured candidate paths.
func (h *PredictionHandler) ReloadModel(c *fiber.Ctx) error {
	ctx := c.UserContext()

	handle, err := h.predictionService.ReloadModel(ctx)
	if err != nil {
		if errors.Is(err, models.ErrModelNotFound) {
			return utils.NotFoundResponse(c, "No model file at any candidate path")
		}
		logger.ErrorContext(ctx, "Model reload failed", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	logger.InfoContext(ctx, "Model reloaded", "version", handle.Version)
	return utils.SuccessResponse(c, fiber.Map{
		"version":     handle.Version,
		"num_classes": handle.NumClasses,
		"layout":      handle.Layout.String(),
	})
}

func readImageFile(c *fiber.Ctx) ([]byte, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, errors.New("image file is required")
	}
	if fileHeader.Size > maxImageBytes {
		return nil, errors.New("image exceeds the 20MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.New("failed to open uploaded image")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("failed to read uploaded image")
	}
	return data, nil
}

func parseSymptomIDs(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
