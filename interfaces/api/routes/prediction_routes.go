package routes

import (
	"github.com/gofiber/fiber/v2"

	"coffee-analysis/interfaces/api/handlers"
)

// SetupPredictionRoutes registers the prediction surface.
// POST /api/v1/predictions           - submit an image (async by default)
// GET  /api/v1/predictions           - list persisted results
// GET  /api/v1/predictions/status/:requestId - poll a submission
// GET  /api/v1/predictions/:requestId - fetch one result
func SetupPredictionRoutes(api fiber.Router, h *handlers.Handlers) {
	predictions := api.Group("/predictions")

	predictions.Post("/", h.PredictionHandler.SubmitPrediction)
	predictions.Get("/", h.PredictionHandler.ListPredictions)
	predictions.Get("/status/:requestId", h.PredictionHandler.GetStatus)
	predictions.Get("/:requestId", h.PredictionHandler.GetPrediction)
}

// SetupModelRoutes registers model administration.
// POST /api/v1/models/reload - hot-swap the image model
func SetupModelRoutes(api fiber.Router, h *handlers.Handlers) {
	modelGroup := api.Group("/models")

	modelGroup.Post("/reload", h.PredictionHandler.ReloadModel)
}
