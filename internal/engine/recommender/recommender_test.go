package recommender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/engine/schedule"
	"github.com/kcloud-opt/loadsched/internal/engine/task"
	"github.com/kcloud-opt/loadsched/internal/types"
)

func mustPrice(t *testing.T, base time.Time, vals []float64) *piecewise.PriceFunction {
	t.Helper()
	points := make([]piecewise.Point[time.Time, float64], len(vals))
	for i, v := range vals {
		points[i] = piecewise.Point[time.Time, float64]{At: base.Add(time.Duration(i) * time.Hour), Value: v}
	}
	fn, err := piecewise.NewPriceFunction(points)
	require.NoError(t, err)
	return fn
}

func mustEmission(t *testing.T, base time.Time, vals []float64) *piecewise.EmissionFunction {
	t.Helper()
	points := make([]piecewise.Point[time.Time, float64], len(vals))
	for i, v := range vals {
		points[i] = piecewise.Point[time.Time, float64]{At: base.Add(time.Duration(i) * 5 * time.Minute), Value: v}
	}
	fn, err := piecewise.NewEmissionFunction(points)
	require.NoError(t, err)
	return fn
}

func TestRecommendPicksLowestTotalCost(t *testing.T) {
	base := time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC)
	price := mustPrice(t, base, []float64{10, 10, 10})
	emission := mustEmission(t, base, make([]float64, 40))

	power, err := piecewise.NewConstantPowerTask(time.Hour, 1.0)
	require.NoError(t, err)
	tk := &task.Task{ID: "t1", Power: power}

	cheap := &schedule.Schedule{Tasks: []schedule.ScheduledTask{{
		Task:          tk,
		StartInterval: types.DatetimeInterval{Start: base, Duration: 0},
		Cost:          5,
	}}}
	expensive := &schedule.Schedule{Tasks: []schedule.ScheduledTask{{
		Task:          tk,
		StartInterval: types.DatetimeInterval{Start: base.Add(time.Hour), Duration: 0},
		Cost:          10,
	}}}

	result, err := Recommend([]*schedule.Schedule{expensive, cheap}, price, emission)
	require.NoError(t, err)
	assert.Same(t, cheap, result.Schedule)
	assert.Contains(t, result.WorstCase, "t1")
}

func TestRecommendReturnsEmptySchedulesWorstCaseWhenNoSchedules(t *testing.T) {
	base := time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC)
	price := mustPrice(t, base, []float64{10})
	emission := mustEmission(t, base, []float64{10})
	result, err := Recommend(nil, price, emission)
	require.NoError(t, err)
	assert.Empty(t, result.Schedule.Tasks)
	assert.Empty(t, result.WorstCase)
}
