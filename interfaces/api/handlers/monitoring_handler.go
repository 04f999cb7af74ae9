package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"coffee-analysis/domain/models"
	"coffee-analysis/domain/ports"
	"coffee-analysis/domain/services"
	"coffee-analysis/pkg/utils"
)

// MonitoringHandler reports component health and serves the metrics endpoint.
type MonitoringHandler struct {
	predictionService services.PredictionService
	db                *gorm.DB
	sharedCache       ports.SharedCachePort
	queue             ports.JobQueuePort
	storage           ports.ImageStoragePort
}

func NewMonitoringHandler(
	predictionService services.PredictionService,
	db *gorm.DB,
	sharedCache ports.SharedCachePort,
	queue ports.JobQueuePort,
	storage ports.ImageStoragePort,
) *MonitoringHandler {
	return &MonitoringHandler{
		predictionService: predictionService,
		db:                db,
		sharedCache:       sharedCache,
		queue:             queue,
		storage:           storage,
	}
}

// HealthCheck GET /health
// Aggregates per-component health. The service stays "ok" with degraded
// models or cache; only database loss flips the overall status.
func (h *MonitoringHandler) HealthCheck(c *fiber.Ctx) error {
	ctx := c.UserContext()

	components := h.predictionService.Health(ctx)

	dbStatus := models.Healthy("database")
	if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = models.Unhealthy("database", err.Error())
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = models.Unhealthy("database", err.Error())
	}
	components = append(components, dbStatus)

	cacheStatus := models.Healthy("shared-cache")
	if err := h.sharedCache.Ping(ctx); err != nil {
		cacheStatus = models.Unhealthy("shared-cache", err.Error())
	}
	components = append(components, cacheStatus)

	queueStatus := models.Healthy("job-queue")
	if err := h.queue.Ping(ctx); err != nil {
		queueStatus = models.Unhealthy("job-queue", err.Error())
	}
	components = append(components, queueStatus)

	status := "ok"
	if !dbStatus.Healthy {
		status = "down"
	}

	payload := fiber.Map{
		"status":     status,
		"storage":    h.storage.ProviderName(),
		"components": components,
	}

	if status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(payload)
	}
	return utils.SuccessResponse(c, payload)
}

// Metrics GET /metrics
func (h *MonitoringHandler) Metrics() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
