package handlers

import (
	"github.com/kcloud-opt/loadsched/internal/cache"
	"github.com/kcloud-opt/loadsched/internal/config"
	"github.com/kcloud-opt/loadsched/internal/metrics"
	"github.com/kcloud-opt/loadsched/internal/types"
	"github.com/kcloud-opt/loadsched/internal/upstream"
	"github.com/kcloud-opt/loadsched/internal/validator"
)

// Handlers contains all HTTP handlers for the load-scheduling API.
type Handlers struct {
	Schedule *ScheduleHandler
	Health   *HealthHandler
}

// NewHandlers creates a new handlers instance with all dependencies.
func NewHandlers(
	priceCache *cache.PriceCache,
	emissionCache *cache.EmissionCache,
	fetcher *upstream.Fetcher,
	schemaValidator *validator.SchemaValidator,
	cfg *config.Config,
	m *metrics.Metrics,
	logger types.Logger,
) *Handlers {
	return &Handlers{
		Schedule: NewScheduleHandler(priceCache, emissionCache, fetcher, schemaValidator, cfg, m, logger),
		Health:   NewHealthHandler(priceCache, emissionCache, logger),
	}
}
