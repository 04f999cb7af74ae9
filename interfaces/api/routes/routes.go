package routes

import (
	"github.com/gofiber/fiber/v2"

	"coffee-analysis/interfaces/api/handlers"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers) {
	SetupHealthRoutes(app, h)

	api := app.Group("/api/v1")

	SetupPredictionRoutes(api, h)
	SetupModelRoutes(api, h)
}
