package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kcloud-opt/loadsched/internal/cache"
	"github.com/kcloud-opt/loadsched/internal/types"
)

// HealthHandler handles health check and system status requests.
type HealthHandler struct {
	priceCache    *cache.PriceCache
	emissionCache *cache.EmissionCache
	logger        types.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(priceCache *cache.PriceCache, emissionCache *cache.EmissionCache, logger types.Logger) *HealthHandler {
	return &HealthHandler{priceCache: priceCache, emissionCache: emissionCache, logger: logger}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	startTime := time.Now()

	status := "healthy"
	details := make(map[string]interface{})

	if h.priceCache.Latest().IsZero() {
		status = "degraded"
		details["price_cache"] = map[string]interface{}{"status": "empty"}
	} else {
		details["price_cache"] = map[string]interface{}{"status": "healthy", "latest": h.priceCache.Latest()}
	}

	if h.emissionCache.Latest().IsZero() {
		status = "degraded"
		details["emission_cache"] = map[string]interface{}{"status": "empty"}
	} else {
		details["emission_cache"] = map[string]interface{}{"status": "healthy", "latest": h.emissionCache.Latest()}
	}

	httpStatus := http.StatusOK
	if status != "healthy" {
		httpStatus = http.StatusOK // an empty cache is not yet a failure, just unwarmed
	}

	duration := time.Since(startTime)
	h.logger.WithDuration(duration).Info("health check completed", "status", status)

	c.JSON(httpStatus, gin.H{
		"status":   status,
		"service":  "loadsched",
		"details":  details,
		"duration": duration.String(),
	})
}

// Liveness handles GET /live.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alive": true, "service": "loadsched"})
}

// Info handles GET /info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "loadsched",
		"capabilities": []string{
			"deferrable-load-scheduling",
			"price-aware-placement",
			"emission-aware-placement",
			"maximum-power-constraint",
		},
		"endpoints": map[string]string{
			"health":   "/health",
			"live":     "/live",
			"metrics":  "/metrics",
			"info":     "/info",
			"schedule": "/api/v1/schedule",
		},
	})
}
