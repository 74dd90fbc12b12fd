package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/engine/task"
	"github.com/kcloud-opt/loadsched/internal/types"
)

func mustTask(t *testing.T, id string, duration time.Duration, kw float64) *task.Task {
	t.Helper()
	power, err := piecewise.NewConstantPowerTask(duration, kw)
	require.NoError(t, err)
	return &task.Task{ID: id, Power: power}
}

func TestRunsAtIsHalfOpen(t *testing.T) {
	base := time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC)
	st := ScheduledTask{
		Task:          mustTask(t, "a", time.Hour, 1.0),
		StartInterval: types.DatetimeInterval{Start: base, Duration: 0},
	}
	assert.True(t, st.RunsAt(base))
	assert.True(t, st.RunsAt(base.Add(59*time.Minute)))
	assert.False(t, st.RunsAt(base.Add(time.Hour)))
}

func TestMaximumPowerConsumptionValidatorSerializesOverlappingTasks(t *testing.T) {
	base := time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC)
	s := &Schedule{Validator: MaximumPowerConsumptionValidator{MaxKW: 1}}
	first := ScheduledTask{
		Task:          mustTask(t, "a", time.Hour, 1.0),
		StartInterval: types.DatetimeInterval{Start: base, Duration: 0},
		Cost:          1,
	}
	s = s.With(first)

	second := mustTask(t, "b", time.Hour, 1.0)
	assert.False(t, s.CanSchedule(second, base.Add(30*time.Minute)))
	assert.True(t, s.CanSchedule(second, base.Add(time.Hour)))
}

func TestWorstCaseCostIsAtLeastCanonical(t *testing.T) {
	base := time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC)
	prices, err := piecewise.NewPriceFunction([]piecewise.Point[time.Time, float64]{
		{At: base, Value: 10},
		{At: base.Add(time.Hour), Value: 1},
	})
	require.NoError(t, err)
	tk := mustTask(t, "a", time.Hour, 1.0)
	rp := piecewise.NewPowerPriceFunction(prices, tk.Power)

	canonical, err := rp.IntegrateFromTo(base, time.Hour)
	require.NoError(t, err)

	st := ScheduledTask{
		Task:          tk,
		StartInterval: types.DatetimeInterval{Start: base, Duration: time.Hour},
		Cost:          canonical,
	}
	worst, err := WorstCaseCost(st, rp)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, worst, canonical)
}
