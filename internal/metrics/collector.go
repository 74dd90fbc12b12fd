package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/kcloud-opt/loadsched/internal/cache"
	"github.com/kcloud-opt/loadsched/internal/types"
)

// SystemMetricsCollector periodically samples process-level metrics.
type SystemMetricsCollector struct {
	metrics   *Metrics
	logger    types.Logger
	startTime time.Time
}

// NewSystemMetricsCollector creates a new system metrics collector.
func NewSystemMetricsCollector(metrics *Metrics, logger types.Logger) *SystemMetricsCollector {
	return &SystemMetricsCollector{
		metrics:   metrics,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Start runs the collection loop until ctx is cancelled.
func (smc *SystemMetricsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	smc.logger.Info("starting system metrics collection")

	for {
		select {
		case <-ctx.Done():
			smc.logger.Info("stopping system metrics collection")
			return
		case <-ticker.C:
			smc.collectSystemMetrics()
		}
	}
}

func (smc *SystemMetricsCollector) collectSystemMetrics() {
	uptime := time.Since(smc.startTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryUsage := float64(memStats.Alloc)
	cpuUsage := memStats.GCCPUFraction * 100
	goroutines := runtime.NumGoroutine()

	smc.metrics.UpdateSystemMetrics(uptime, memoryUsage, cpuUsage, goroutines)

	smc.logger.Debug("system metrics collected",
		"uptime", uptime,
		"memory_usage", memoryUsage,
		"cpu_usage", cpuUsage,
		"goroutines", goroutines,
	)
}

// CacheMetricsCollector periodically samples price/emission cache size
// and staleness.
type CacheMetricsCollector struct {
	metrics  *Metrics
	logger   types.Logger
	price    *cache.PriceCache
	emission *cache.EmissionCache
}

// NewCacheMetricsCollector creates a new cache metrics collector.
func NewCacheMetricsCollector(metrics *Metrics, logger types.Logger, price *cache.PriceCache, emission *cache.EmissionCache) *CacheMetricsCollector {
	return &CacheMetricsCollector{metrics: metrics, logger: logger, price: price, emission: emission}
}

// Start runs the collection loop until ctx is cancelled.
func (cmc *CacheMetricsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	cmc.logger.Info("starting cache metrics collection")

	for {
		select {
		case <-ctx.Done():
			cmc.logger.Info("stopping cache metrics collection")
			return
		case <-ticker.C:
			cmc.collect()
		}
	}
}

func (cmc *CacheMetricsCollector) collect() {
	now := time.Now()

	priceLatest := cmc.price.Latest()
	priceCount := len(cmc.price.Get(cmc.price.Earliest()))
	if !priceLatest.IsZero() {
		cmc.metrics.RecordCacheState("price", priceCount, now.Sub(priceLatest))
	}

	emissionLatest := cmc.emission.Latest()
	emissionCount := len(cmc.emission.Get(cmc.emission.Earliest()))
	if !emissionLatest.IsZero() {
		cmc.metrics.RecordCacheState("emission", emissionCount, now.Sub(emissionLatest))
	}
}

// MetricsManager manages all periodic metrics collection.
type MetricsManager struct {
	systemMetricsCollector *SystemMetricsCollector
	cacheMetricsCollector  *CacheMetricsCollector
	logger                 types.Logger
}

// NewMetricsManager creates a new metrics manager.
func NewMetricsManager(metrics *Metrics, logger types.Logger, price *cache.PriceCache, emission *cache.EmissionCache) *MetricsManager {
	return &MetricsManager{
		systemMetricsCollector: NewSystemMetricsCollector(metrics, logger),
		cacheMetricsCollector:  NewCacheMetricsCollector(metrics, logger, price, emission),
		logger:                 logger,
	}
}

// Start launches every collector's loop in its own goroutine.
func (mm *MetricsManager) Start(ctx context.Context) {
	mm.logger.Info("starting metrics manager")
	go mm.systemMetricsCollector.Start(ctx)
	go mm.cacheMetricsCollector.Start(ctx)
	mm.logger.Info("metrics manager started successfully")
}
