// Package schedule holds the placement and whole-schedule types: a
// ScheduledTask's canonical and worst-case cost accounting, and the
// Schedule aggregate with its pluggable ScheduleValidator.
package schedule

import (
	"time"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/engine/task"
	"github.com/kcloud-opt/loadsched/internal/types"
)

// ScheduledTask is a task placed at an earliest admissible start, with the
// slack interval over which that placement's cost is invariant and the
// canonical cost evaluated at StartInterval.Start.
type ScheduledTask struct {
	Task          *task.Task
	StartInterval types.DatetimeInterval
	Cost          float64
}

// EarliestStart is the first instant at which the task may begin running
// under this placement.
func (st ScheduledTask) EarliestStart() time.Time { return st.StartInterval.Start }

// LatestStart is the last instant, within slack, at which the task may
// begin running under this placement.
func (st ScheduledTask) LatestStart() time.Time { return st.StartInterval.End() }

// EarliestEnd/LatestEnd bound the window during which the task may be
// running, accounting for slack. Used by RunsAt's half-open check.
func (st ScheduledTask) EarliestEnd() time.Time {
	return st.EarliestStart().Add(st.Task.Duration())
}

func (st ScheduledTask) LatestEnd() time.Time {
	return st.LatestStart().Add(st.Task.Duration())
}

// RunsAt reports whether the task could be running at t under any start
// instant within its slack interval. The running window is half-open: a
// task that ends exactly at t does not count as running at t.
func (st ScheduledTask) RunsAt(t time.Time) bool {
	return !t.Before(st.EarliestStart()) && t.Before(st.LatestEnd())
}

// PowerAt returns the instantaneous draw (kW) the task contributes at
// wall-clock t, given it started at the earliest instant in its slack
// interval. Returns 0 if the task is not running at t.
func (st ScheduledTask) PowerAt(t time.Time) float64 {
	if !st.RunsAt(t) {
		return 0
	}
	elapsed := t.Sub(st.EarliestStart())
	if elapsed < 0 {
		elapsed = 0
	}
	maxElapsed := st.Task.Duration()
	if elapsed > maxElapsed {
		elapsed = maxElapsed
	}
	v, err := st.Task.Power.Apply(piecewise.Offset(elapsed))
	if err != nil {
		return 0
	}
	return v
}

// WorstCaseCost is the maximum of the zipped rate-power integral over
// every candidate start within the placement's slack interval: the
// runtime breakpoints of the task's own power curve are iterated as
// offsets into the slack window and the integral evaluated at each. The
// metric (price or emission) is determined entirely by which
// RatePowerFunction is passed in. The canonical value at
// StartInterval.Start is recomputed from ratePower rather than taken from
// st.Cost, since st.Cost is always denominated in price even when this is
// called for emission.
func WorstCaseCost(st ScheduledTask, ratePower *piecewise.RatePowerFunction) (float64, error) {
	worst, err := ratePower.IntegrateFromTo(st.EarliestStart(), st.Task.Duration())
	if err != nil {
		return 0, err
	}
	slack := st.StartInterval.Duration
	for _, rt := range st.Task.RuntimeBreakpoints() {
		if rt < 0 || rt > slack {
			continue
		}
		candidate := st.EarliestStart().Add(rt)
		cost, err := ratePower.IntegrateFromTo(candidate, st.Task.Duration())
		if err != nil {
			return 0, err
		}
		if cost > worst {
			worst = cost
		}
	}
	return worst, nil
}

// ScheduleValidator admits or rejects a candidate placement of a new task
// against an already-committed schedule.
type ScheduleValidator interface {
	Validate(s *Schedule, t *task.Task, at time.Time) bool
}

// Schedule is an ordered sequence of placements plus an optional
// schedule-level validator (typically MaximumPowerConsumption). Schedules
// are treated as immutable values; With returns a new Schedule with one
// additional placement rather than mutating the receiver.
type Schedule struct {
	Tasks     []ScheduledTask
	Validator ScheduleValidator
}

// CanSchedule reports whether t may be placed at `at`, checking both the
// task's own validator and, if present, the schedule validator.
func (s *Schedule) CanSchedule(t *task.Task, at time.Time) bool {
	if !t.IsScheduleableAt(at) {
		return false
	}
	if s.Validator != nil && !s.Validator.Validate(s, t, at) {
		return false
	}
	return true
}

// With returns a new Schedule carrying every existing placement plus st,
// leaving the receiver untouched. Extending is an O(n) slice copy rather
// than a structural-sharing sequence; per-request task counts are small
// (the HTTP handler rejects requests above scheduler.max_tasks_per_request,
// 7 by default), so the copy is never the bottleneck. Task pointers are shared across copies, which is what lets
// the recommender compare placements of the same task by identity.
func (s *Schedule) With(st ScheduledTask) *Schedule {
	tasks := make([]ScheduledTask, len(s.Tasks)+1)
	copy(tasks, s.Tasks)
	tasks[len(s.Tasks)] = st
	return &Schedule{Tasks: tasks, Validator: s.Validator}
}

// TotalCost sums the canonical cost of every placement.
func (s *Schedule) TotalCost() float64 {
	total := 0.0
	for _, st := range s.Tasks {
		total += st.Cost
	}
	return total
}
