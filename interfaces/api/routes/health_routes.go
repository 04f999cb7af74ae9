package routes

import (
	"github.com/gofiber/fiber/v2"

	"coffee-analysis/interfaces/api/handlers"
)

func SetupHealthRoutes(app *fiber.App, h *handlers.Handlers) {
	app.Get("/health", h.MonitoringHandler.HealthCheck)
	app.Get("/metrics", h.MonitoringHandler.Metrics())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Coffee Leaf Analysis API",
			"docs":    "/api/v1",
			"health":  "/health",
		})
	})
}
