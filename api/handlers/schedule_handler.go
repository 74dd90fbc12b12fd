package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kcloud-opt/loadsched/internal/cache"
	"github.com/kcloud-opt/loadsched/internal/config"
	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/engine/recommender"
	"github.com/kcloud-opt/loadsched/internal/engine/schedule"
	"github.com/kcloud-opt/loadsched/internal/engine/scheduler"
	"github.com/kcloud-opt/loadsched/internal/engine/task"
	"github.com/kcloud-opt/loadsched/internal/metrics"
	"github.com/kcloud-opt/loadsched/internal/types"
	"github.com/kcloud-opt/loadsched/internal/upstream"
	"github.com/kcloud-opt/loadsched/internal/validator"
)

// ScheduleHandler handles POST /api/v1/schedule: decodes the wire request,
// validates it against the JSON Schema, backfills the price/emission
// caches if they do not yet cover the requested horizon, runs the
// scheduling engine, and encodes the chosen schedule.
type ScheduleHandler struct {
	priceCache      *cache.PriceCache
	emissionCache   *cache.EmissionCache
	fetcher         *upstream.Fetcher
	schemaValidator *validator.SchemaValidator
	cfg             *config.Config
	metrics         *metrics.Metrics
	logger          types.Logger
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(
	priceCache *cache.PriceCache,
	emissionCache *cache.EmissionCache,
	fetcher *upstream.Fetcher,
	schemaValidator *validator.SchemaValidator,
	cfg *config.Config,
	m *metrics.Metrics,
	logger types.Logger,
) *ScheduleHandler {
	return &ScheduleHandler{
		priceCache:      priceCache,
		emissionCache:   emissionCache,
		fetcher:         fetcher,
		schemaValidator: schemaValidator,
		cfg:             cfg,
		metrics:         m,
		logger:          logger,
	}
}

// PostSchedule handles POST /api/v1/schedule.
func (h *ScheduleHandler) PostSchedule(c *gin.Context) {
	start := time.Now()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.respondError(c, &types.APIError{StatusCode: http.StatusBadRequest, Message: "failed to read request body", Err: err})
		return
	}

	if err := h.schemaValidator.ValidateScheduleRequest(body); err != nil {
		h.respondError(c, &types.APIError{StatusCode: http.StatusBadRequest, Message: "invalid request", Err: err})
		return
	}

	var req scheduleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondError(c, &types.APIError{StatusCode: http.StatusBadRequest, Message: "malformed JSON", Err: err})
		return
	}

	if h.cfg.Scheduler.MaxTasksPerRequest > 0 && len(req.Tasks) > h.cfg.Scheduler.MaxTasksPerRequest {
		h.respondError(c, &types.APIError{
			StatusCode: http.StatusUnprocessableEntity,
			Message:    "too many tasks for a single request: the permutation sweep is only feasible up to the configured limit",
			Err:        fmt.Errorf("task count %d exceeds scheduler.max_tasks_per_request=%d", len(req.Tasks), h.cfg.Scheduler.MaxTasksPerRequest),
		})
		return
	}

	now := time.Unix(req.Now, 0).UTC()

	tasks := make([]*task.Task, len(req.Tasks))
	maxDuration := time.Duration(0)
	for i, wt := range req.Tasks {
		t, err := wt.toTask()
		if err != nil {
			h.respondError(c, &types.APIError{StatusCode: http.StatusBadRequest, Message: "invalid task", Err: err})
			return
		}
		tasks[i] = t
		if d := t.Duration(); d > maxDuration {
			maxDuration = d
		}
	}

	base := &schedule.Schedule{}
	if req.BaseSchedule != nil {
		base, err = req.BaseSchedule.toSchedule()
		if err != nil {
			h.respondError(c, &types.APIError{StatusCode: http.StatusBadRequest, Message: "invalid base_schedule", Err: err})
			return
		}
	}

	ctx := c.Request.Context()
	if err := h.ensureFresh(ctx, now, maxDuration); err != nil {
		h.respondError(c, h.mapEngineError(err))
		return
	}

	horizon := h.priceCache.Horizon(now, h.cfg.Cache.PriceReleaseHour)

	priceFn, err := piecewise.NewPriceFunction(toPricePoints(h.priceCache.Get(now)))
	if err != nil {
		h.respondError(c, h.mapEngineError(err))
		return
	}
	emissionFn, err := piecewise.NewEmissionFunction(toEmissionPoints(h.emissionCache.Get(now)))
	if err != nil {
		h.respondError(c, h.mapEngineError(err))
		return
	}

	if now.Add(maxDuration).After(priceFn.MaxDomain()) || now.Add(maxDuration).After(emissionFn.MaxDomain()) {
		h.respondError(c, &types.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "requested window exceeds the available horizon", Err: types.ErrInputOutOfHorizon})
		h.metrics.RecordScheduling(len(tasks), 0, 0, time.Since(start), "out_of_horizon")
		return
	}

	schedules, err := scheduler.ScheduleTasks(tasks, base, priceFn, now, horizon)
	if err != nil {
		h.respondError(c, h.mapEngineError(err))
		h.metrics.RecordScheduling(len(tasks), 0, 0, time.Since(start), "error")
		return
	}

	result, err := recommender.Recommend(schedules, priceFn, emissionFn)
	if err != nil {
		h.respondError(c, h.mapEngineError(err))
		h.metrics.RecordScheduling(len(tasks), len(schedules), factorial(len(tasks)), time.Since(start), "error")
		return
	}

	outcome := "scheduled"
	if len(result.Schedule.Tasks) == 0 && len(tasks) > 0 {
		outcome = "unsatisfiable"
	}
	h.metrics.RecordScheduling(len(tasks), len(schedules), factorial(len(tasks)), time.Since(start), outcome)

	resp := scheduleResponse{
		Tasks:                    make([]wireTaskResult, len(result.Schedule.Tasks)),
		LatestAvailableSpotPrice: horizon.Unix(),
	}
	for i, st := range result.Schedule.Tasks {
		wc := result.WorstCase[st.Task.ID]
		resp.Tasks[i] = wireTaskResult{
			Task:               taskToWire(st.Task),
			StartInterval:      intervalToWire(st.StartInterval),
			Cost:               st.Cost,
			HighestPrice:       wc.Price,
			HighestCO2Emission: wc.Emission,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ensureFresh backfills the caches from upstream if the latest cached
// instant does not yet cover now+maxDuration. A cache miss is recovered
// here with the fetcher's retry/backoff; the engine itself never
// retries.
func (h *ScheduleHandler) ensureFresh(ctx context.Context, now time.Time, maxDuration time.Duration) error {
	need := now.Add(maxDuration)

	if h.priceCache.Latest().Before(need) {
		points, err := h.fetcher.FetchPrices(ctx, h.priceCache.Earliest())
		if err != nil {
			h.metrics.RecordCacheBackfill("price", "error")
			return err
		}
		if err := h.priceCache.Insert(points); err != nil {
			h.metrics.RecordCacheBackfill("price", "error")
			return err
		}
		h.metrics.RecordCacheBackfill("price", "success")
	}

	if h.emissionCache.Latest().Before(need) {
		points, err := h.fetcher.FetchEmissions(ctx, h.emissionCache.Earliest())
		if err != nil {
			h.metrics.RecordCacheBackfill("emission", "error")
			return err
		}
		if err := h.emissionCache.Insert(points); err != nil {
			h.metrics.RecordCacheBackfill("emission", "error")
			return err
		}
		h.metrics.RecordCacheBackfill("emission", "success")
	}

	return nil
}

func (h *ScheduleHandler) mapEngineError(err error) *types.APIError {
	switch {
	case errors.Is(err, types.ErrInputOutOfHorizon):
		return &types.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "requested window exceeds the available horizon", Err: err}
	case errors.Is(err, types.ErrInvalidTimeSeries):
		return &types.APIError{StatusCode: http.StatusBadGateway, Message: "cached time series is invalid", Err: err}
	case errors.Is(err, types.ErrUpstreamUnavailable):
		return &types.APIError{StatusCode: http.StatusBadGateway, Message: "upstream price/emission source unavailable", Err: err}
	case errors.Is(err, types.ErrDomainViolation):
		return &types.APIError{StatusCode: http.StatusInternalServerError, Message: "internal scheduling error", Err: err}
	default:
		return &types.APIError{StatusCode: http.StatusInternalServerError, Message: "unexpected error", Err: err}
	}
}

func (h *ScheduleHandler) respondError(c *gin.Context, apiErr *types.APIError) {
	h.logger.WithError(apiErr).Warn("schedule request failed", "status", apiErr.StatusCode)
	c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})
}

func toPricePoints(points []types.PricePoint) []piecewise.Point[time.Time, float64] {
	out := make([]piecewise.Point[time.Time, float64], len(points))
	for i, p := range points {
		out[i] = piecewise.Point[time.Time, float64]{At: p.Time, Value: p.Price}
	}
	return out
}

func toEmissionPoints(points []types.EmissionPoint) []piecewise.Point[time.Time, float64] {
	out := make([]piecewise.Point[time.Time, float64], len(points))
	for i, p := range points {
		out[i] = piecewise.Point[time.Time, float64]{At: p.Time, Value: p.Intensity}
	}
	return out
}

func factorial(n int) int {
	if n <= 1 {
		return 1
	}
	return n * factorial(n-1)
}
