package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coffee-analysis/domain/ports"
	"coffee-analysis/domain/repositories"
	"coffee-analysis/domain/services"
)

// Services bundles everything the handler layer depends on.
type Services struct {
	DispatchService      services.DispatchService
	PredictionService    services.PredictionService
	PredictionRepository repositories.PredictionRepository

	DB          *gorm.DB
	SharedCache ports.SharedCachePort
	JobQueue    ports.JobQueuePort
	Storage     ports.ImageStoragePort
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	PredictionHandler *PredictionHandler
	MonitoringHandler *MonitoringHandler
}

func NewHandlers(s *Services) *Handlers {
	return &Handlers{
		PredictionHandler: NewPredictionHandler(s.DispatchService, s.PredictionService, s.PredictionRepository),
		MonitoringHandler: NewMonitoringHandler(s.PredictionService, s.DB, s.SharedCache, s.JobQueue, s.Storage),
	}
}

// GetRequestID reads the id assigned by the request-id middleware.
func GetRequestID(c *fiber.Ctx) string {
	if requestID, ok := c.Locals("request_id").(string); ok {
		return requestID
	}
	return ""
}
