package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcloud-opt/loadsched/internal/cache"
	"github.com/kcloud-opt/loadsched/internal/config"
	"github.com/kcloud-opt/loadsched/internal/metrics"
	"github.com/kcloud-opt/loadsched/internal/types"
	"github.com/kcloud-opt/loadsched/internal/upstream"
	"github.com/kcloud-opt/loadsched/internal/validator"
)

// noopLogger discards everything; used where a handler under test needs a
// types.Logger but assertions don't depend on what was logged.
type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})          {}
func (noopLogger) Warn(string, ...interface{})          {}
func (noopLogger) Error(string, ...interface{})         {}
func (noopLogger) Debug(string, ...interface{})         {}
func (noopLogger) Fatal(string, ...interface{})         {}
func (n noopLogger) WithError(error) types.Logger            { return n }
func (n noopLogger) WithDuration(time.Duration) types.Logger { return n }
func (n noopLogger) WithTask(string) types.Logger            { return n }
func (n noopLogger) WithSchedule(string) types.Logger        { return n }
func (n noopLogger) WithRequest(string) types.Logger         { return n }

// Collectors register against the default Prometheus registry, so the
// test metrics instance is initialized exactly once and shared.
var (
	testMetricsOnce sync.Once
	testMetrics     *metrics.Metrics
)

func sharedMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetrics = metrics.NewMetrics(noopLogger{})
		testMetrics.Initialize()
	})
	return testMetrics
}

func seededHandler(t *testing.T, base time.Time) *ScheduleHandler {
	t.Helper()

	priceCache := cache.NewPriceCache()
	emissionCache := cache.NewEmissionCache()

	pricePoints := make([]types.PricePoint, 0, 72)
	emissionPoints := make([]types.EmissionPoint, 0, 72)
	for i := 0; i < 72; i++ {
		pricePoints = append(pricePoints, types.PricePoint{Time: base.Add(time.Duration(i) * time.Hour), Price: 1.0})
		emissionPoints = append(emissionPoints, types.EmissionPoint{Time: base.Add(time.Duration(i) * time.Hour), Intensity: 100})
	}
	require.NoError(t, priceCache.Insert(pricePoints))
	require.NoError(t, emissionCache.Insert(emissionPoints))

	sv, err := validator.NewSchemaValidator(noopLogger{})
	require.NoError(t, err)

	cfg := &config.Config{Cache: config.CacheConfig{PriceReleaseHour: 13}}
	fetcher := upstream.New(config.UpstreamConfig{}, noopLogger{})

	return NewScheduleHandler(priceCache, emissionCache, fetcher, sv, cfg, sharedMetrics(), noopLogger{})
}

func TestPostScheduleRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := seededHandler(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))

	req, _ := http.NewRequest("POST", "/api/v1/schedule", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.PostSchedule(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostScheduleSchedulesASingleUnconstrainedTask(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	handler := seededHandler(t, base)

	reqBody := map[string]interface{}{
		"now": base.Unix(),
		"tasks": []map[string]interface{}{
			{"id": "t1", "duration": 3600, "power": 2.0},
		},
	}
	payload, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req, _ := http.NewRequest("POST", "/api/v1/schedule", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.PostSchedule(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp scheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "t1", resp.Tasks[0].Task.ID)
}

func TestPostScheduleRejectsTooManyTasks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	handler := seededHandler(t, base)
	handler.cfg.Scheduler.MaxTasksPerRequest = 2

	tasks := make([]map[string]interface{}, 0, 3)
	for i := 0; i < 3; i++ {
		tasks = append(tasks, map[string]interface{}{"id": "t", "duration": 3600, "power": 1.0})
	}
	reqBody := map[string]interface{}{"now": base.Unix(), "tasks": tasks}
	payload, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req, _ := http.NewRequest("POST", "/api/v1/schedule", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.PostSchedule(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// A request whose window outruns what the feed can supply must come back
// as a horizon rejection even after the backfill ran: the fetch here
// yields one extra hour, still short of now+duration.
func TestPostScheduleRejectsWindowBeyondHorizon(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)

	priceCache := cache.NewPriceCache()
	require.NoError(t, priceCache.Insert([]types.PricePoint{
		{Time: base, Price: 1.0},
		{Time: base.Add(time.Hour), Price: 1.0},
	}))

	emissionCache := cache.NewEmissionCache()
	emissionPoints := make([]types.EmissionPoint, 0, 8)
	for i := 0; i < 8; i++ {
		emissionPoints = append(emissionPoints, types.EmissionPoint{Time: base.Add(time.Duration(i) * time.Hour), Intensity: 100})
	}
	require.NoError(t, emissionCache.Insert(emissionPoints))

	upstreamServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"records": [{"HourUTC": "2026-07-01T17:00:00", "PriceArea": "DK1", "SpotPriceDKK": 1000}]}`))
	}))
	defer upstreamServer.Close()

	sv, err := validator.NewSchemaValidator(noopLogger{})
	require.NoError(t, err)
	cfg := &config.Config{Cache: config.CacheConfig{PriceReleaseHour: 13}}
	fetcher := upstream.New(config.UpstreamConfig{PriceBaseURL: upstreamServer.URL, RequestTimeout: time.Second}, noopLogger{})
	handler := NewScheduleHandler(priceCache, emissionCache, fetcher, sv, cfg, sharedMetrics(), noopLogger{})

	reqBody := map[string]interface{}{
		"now": base.Unix(),
		"tasks": []map[string]interface{}{
			{"id": "t1", "duration": 4 * 3600, "power": 1.0},
		},
	}
	payload, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req, _ := http.NewRequest("POST", "/api/v1/schedule", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.PostSchedule(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// A task whose constraints admit no start resolves as success with an
// empty schedule, not as an error.
func TestPostScheduleReturnsEmptyScheduleWhenUnsatisfiable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	handler := seededHandler(t, base)

	// must_start_between lies before every cached price point.
	reqBody := map[string]interface{}{
		"now": base.Unix(),
		"tasks": []map[string]interface{}{
			{
				"id": "t1", "duration": 3600, "power": 1.0,
				"must_start_between": []map[string]interface{}{
					{"start_interval": map[string]interface{}{"start": base.Add(-2 * time.Hour).Unix(), "duration": 0}},
				},
			},
		},
	}
	payload, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req, _ := http.NewRequest("POST", "/api/v1/schedule", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.PostSchedule(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp scheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Tasks)
}

func TestPostScheduleRejectsRequestMissingRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	handler := seededHandler(t, base)

	reqBody := map[string]interface{}{
		"tasks": []map[string]interface{}{
			{"duration": 3600, "power": 2.0},
		},
	}
	payload, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req, _ := http.NewRequest("POST", "/api/v1/schedule", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.PostSchedule(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
