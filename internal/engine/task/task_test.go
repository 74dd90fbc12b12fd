package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/types"
)

func mustConstantTask(t *testing.T, id string, duration time.Duration, kw float64, v Validator) *Task {
	t.Helper()
	power, err := piecewise.NewConstantPowerTask(duration, kw)
	require.NoError(t, err)
	return &Task{ID: id, Power: power, Validator: v}
}

func TestMustStartBetweenValidatesInclusively(t *testing.T) {
	base := time.Date(2026, 7, 31, 17, 0, 0, 0, time.UTC)
	v := MustStartBetween{Interval: types.DatetimeInterval{Start: base, Duration: time.Hour}}
	tk := mustConstantTask(t, "a", time.Hour, 1.0, v)

	assert.True(t, tk.IsScheduleableAt(base))
	assert.True(t, tk.IsScheduleableAt(base.Add(time.Hour)))
	assert.False(t, tk.IsScheduleableAt(base.Add(-time.Minute)))
	assert.ElementsMatch(t, []time.Time{base, base.Add(time.Hour)}, tk.SeedStarts())
}

func TestMustEndBetweenShiftsSeedsByDuration(t *testing.T) {
	base := time.Date(2026, 7, 31, 17, 0, 0, 0, time.UTC)
	v := MustEndBetween{Interval: types.DatetimeInterval{Start: base, Duration: 0}}
	tk := mustConstantTask(t, "a", 75*time.Minute, 1.0, v)

	assert.True(t, tk.IsScheduleableAt(base.Add(-75*time.Minute)))
	assert.False(t, tk.IsScheduleableAt(base))
	assert.ElementsMatch(t, []time.Time{base.Add(-75 * time.Minute)}, tk.SeedStarts())
}

func TestConjunctionIntersectsSeeds(t *testing.T) {
	base := time.Date(2026, 7, 31, 17, 0, 0, 0, time.UTC)
	a := MustStartBetween{Interval: types.DatetimeInterval{Start: base, Duration: time.Hour}}
	b := MustStartBetween{Interval: types.DatetimeInterval{Start: base, Duration: 2 * time.Hour}}
	conj := Conjunction{Children: []Validator{a, b}}
	tk := mustConstantTask(t, "a", time.Hour, 1.0, conj)

	assert.True(t, tk.IsScheduleableAt(base))
	assert.False(t, tk.IsScheduleableAt(base.Add(90*time.Minute)))
	assert.ElementsMatch(t, []time.Time{base}, tk.SeedStarts())
}

func TestDisjunctionUnionsSeedsAndDedups(t *testing.T) {
	base := time.Date(2026, 7, 31, 17, 0, 0, 0, time.UTC)
	a := MustStartBetween{Interval: types.DatetimeInterval{Start: base, Duration: 0}}
	b := MustStartBetween{Interval: types.DatetimeInterval{Start: base, Duration: time.Hour}}
	disj := Disjunction{Children: []Validator{a, b}}
	tk := mustConstantTask(t, "a", time.Hour, 1.0, disj)

	assert.True(t, tk.IsScheduleableAt(base))
	assert.True(t, tk.IsScheduleableAt(base.Add(time.Hour)))
	assert.False(t, tk.IsScheduleableAt(base.Add(2*time.Hour)))
	assert.Len(t, tk.SeedStarts(), 2)
}

func TestSplitterFlattensNestedTree(t *testing.T) {
	base := time.Date(2026, 7, 31, 17, 0, 0, 0, time.UTC)
	startA := MustStartBetween{Interval: types.DatetimeInterval{Start: base, Duration: time.Hour}}
	startB := MustStartBetween{Interval: types.DatetimeInterval{Start: base.Add(time.Hour), Duration: time.Hour}}
	endA := MustEndBetween{Interval: types.DatetimeInterval{Start: base.Add(2 * time.Hour), Duration: time.Hour}}

	tree := Conjunction{Children: []Validator{
		Disjunction{Children: []Validator{startA, startB}},
		endA,
	}}

	split := Split(tree)
	assert.Len(t, split.MustStart, 2)
	assert.Len(t, split.MustEnd, 1)
}

func TestExpressionValidatorAdmitsAccordingToExpression(t *testing.T) {
	v, err := NewExpressionValidator(`duration <= duration`)
	require.NoError(t, err)
	tk := mustConstantTask(t, "a", time.Hour, 1.0, v)
	assert.True(t, tk.IsScheduleableAt(time.Now()))

	v2, err := NewExpressionValidator(`task_id == "only-this-one"`)
	require.NoError(t, err)
	tk2 := mustConstantTask(t, "a", time.Hour, 1.0, v2)
	assert.False(t, tk2.IsScheduleableAt(time.Now()))
}
