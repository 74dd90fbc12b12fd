package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/kcloud-opt/loadsched/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus metrics for the load-scheduling engine.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Scheduling metrics
	SchedulingRequestsTotal     *prometheus.CounterVec
	SchedulingDuration          *prometheus.HistogramVec
	SchedulingCandidatesTotal   *prometheus.HistogramVec
	SchedulingPermutationsTotal *prometheus.HistogramVec
	SchedulingUnsatisfiable     *prometheus.CounterVec

	// Cache metrics
	CacheSeriesLength   *prometheus.GaugeVec
	CacheSeriesAge      *prometheus.GaugeVec
	CacheBackfillsTotal *prometheus.CounterVec

	// Upstream metrics
	UpstreamFetchTotal    *prometheus.CounterVec
	UpstreamFetchDuration *prometheus.HistogramVec
	UpstreamFetchErrors   *prometheus.CounterVec

	// System metrics
	SystemUptime      prometheus.Gauge
	SystemMemoryUsage prometheus.Gauge
	SystemCPUUsage    prometheus.Gauge
	SystemGoroutines  prometheus.Gauge

	cachedMetrics map[string]float64

	logger types.Logger
}

// NewMetrics creates a new metrics instance.
func NewMetrics(logger types.Logger) *Metrics {
	return &Metrics{
		logger:        logger,
		cachedMetrics: make(map[string]float64),
	}
}

// Initialize registers all Prometheus collectors.
func (m *Metrics) Initialize() {
	m.logger.Info("initializing Prometheus metrics")

	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadsched_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loadsched_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	m.HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loadsched_http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "endpoint"},
	)

	m.HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loadsched_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "endpoint"},
	)

	m.SchedulingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadsched_scheduling_requests_total",
			Help: "Total number of scheduling requests by outcome",
		},
		[]string{"outcome"},
	)

	m.SchedulingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loadsched_scheduling_duration_seconds",
			Help:    "Wall-clock duration of a scheduling request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	m.SchedulingCandidatesTotal = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loadsched_scheduling_candidates_evaluated",
			Help:    "Number of candidate schedules evaluated per request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"task_count"},
	)

	m.SchedulingPermutationsTotal = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loadsched_scheduling_permutations_evaluated",
			Help:    "Number of task-order permutations evaluated per request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
		[]string{"task_count"},
	)

	m.SchedulingUnsatisfiable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadsched_scheduling_constraint_unsatisfiable_total",
			Help: "Total number of requests that resolved to an empty schedule",
		},
		[]string{},
	)

	m.CacheSeriesLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loadsched_cache_series_points",
			Help: "Number of points currently held in a time-series cache",
		},
		[]string{"series"},
	)

	m.CacheSeriesAge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loadsched_cache_series_age_seconds",
			Help: "Age of the latest cached point for a time series",
		},
		[]string{"series"},
	)

	m.CacheBackfillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadsched_cache_backfills_total",
			Help: "Total number of backfill operations by series and result",
		},
		[]string{"series", "result"},
	)

	m.UpstreamFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadsched_upstream_fetch_total",
			Help: "Total number of upstream fetch attempts",
		},
		[]string{"series", "result"},
	)

	m.UpstreamFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loadsched_upstream_fetch_duration_seconds",
			Help:    "Upstream fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"series"},
	)

	m.UpstreamFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadsched_upstream_fetch_errors_total",
			Help: "Total number of upstream fetch failures",
		},
		[]string{"series", "error_type"},
	)

	m.SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadsched_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	m.SystemMemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadsched_system_memory_usage_bytes",
			Help: "System memory usage in bytes",
		},
	)

	m.SystemCPUUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadsched_system_cpu_usage_percent",
			Help: "System CPU usage percentage",
		},
	)

	m.SystemGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadsched_system_goroutines",
			Help: "Number of goroutines",
		},
	)

	m.logger.Info("Prometheus metrics initialized successfully")
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration, requestSize, responseSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
}

// RecordScheduling records the outcome of a scheduling request: how many
// candidates and permutations it evaluated, how long it took, and whether
// it resolved to a non-empty schedule.
func (m *Metrics) RecordScheduling(taskCount int, candidates, permutations int, duration time.Duration, outcome string) {
	taskCountLabel := fmt.Sprintf("%d", taskCount)
	m.SchedulingRequestsTotal.WithLabelValues(outcome).Inc()
	m.SchedulingDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.SchedulingCandidatesTotal.WithLabelValues(taskCountLabel).Observe(float64(candidates))
	m.SchedulingPermutationsTotal.WithLabelValues(taskCountLabel).Observe(float64(permutations))
	if outcome == "unsatisfiable" {
		m.SchedulingUnsatisfiable.WithLabelValues().Inc()
	}
}

// RecordCacheState records the current size and staleness of a cached
// time series (price or emission).
func (m *Metrics) RecordCacheState(series string, points int, age time.Duration) {
	m.CacheSeriesLength.WithLabelValues(series).Set(float64(points))
	m.CacheSeriesAge.WithLabelValues(series).Set(age.Seconds())
}

// RecordCacheBackfill records a completed backfill attempt.
func (m *Metrics) RecordCacheBackfill(series, result string) {
	m.CacheBackfillsTotal.WithLabelValues(series, result).Inc()
}

// RecordUpstreamFetch records an upstream HTTP fetch attempt.
func (m *Metrics) RecordUpstreamFetch(series, result string, duration time.Duration) {
	m.UpstreamFetchTotal.WithLabelValues(series, result).Inc()
	m.UpstreamFetchDuration.WithLabelValues(series).Observe(duration.Seconds())
	if result != "success" {
		m.UpstreamFetchErrors.WithLabelValues(series, result).Inc()
	}
}

// UpdateSystemMetrics updates process-level gauges.
func (m *Metrics) UpdateSystemMetrics(uptime time.Duration, memoryUsage, cpuUsage float64, goroutines int) {
	m.SystemUptime.Set(uptime.Seconds())
	m.SystemMemoryUsage.Set(memoryUsage)
	m.SystemCPUUsage.Set(cpuUsage)
	m.SystemGoroutines.Set(float64(goroutines))

	m.cachedMetrics["system_uptime"] = uptime.Seconds()
	m.cachedMetrics["system_memory_usage"] = memoryUsage
	m.cachedMetrics["system_cpu_usage"] = cpuUsage
	m.cachedMetrics["system_goroutines"] = float64(goroutines)
}

// GetMetrics returns the cached system gauge values as a map. No HTTP
// route serves it; /metrics is the Prometheus handler over the registry.
func (m *Metrics) GetMetrics(ctx context.Context) (map[string]interface{}, error) {
	metrics := make(map[string]interface{})
	for key, value := range m.cachedMetrics {
		metrics[key] = value
	}
	return metrics, nil
}

// Health checks that the core metric collectors were initialized.
func (m *Metrics) Health(ctx context.Context) error {
	if m.HTTPRequestsTotal == nil {
		return fmt.Errorf("HTTP metrics not initialized")
	}
	if m.SchedulingRequestsTotal == nil {
		return fmt.Errorf("scheduling metrics not initialized")
	}
	if m.CacheSeriesLength == nil {
		return fmt.Errorf("cache metrics not initialized")
	}
	return nil
}
