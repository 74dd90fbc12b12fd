package handlers

import (
	"fmt"
	"time"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/engine/schedule"
	"github.com/kcloud-opt/loadsched/internal/engine/task"
	"github.com/kcloud-opt/loadsched/internal/types"
)

// wireInterval is the {start, duration} shape every interval takes on
// the wire: Unix seconds in, time.Duration seconds out.
type wireInterval struct {
	Start    int64 `json:"start"`
	Duration int64 `json:"duration"`
}

func (w wireInterval) toDatetimeInterval() types.DatetimeInterval {
	return types.DatetimeInterval{
		Start:    time.Unix(w.Start, 0).UTC(),
		Duration: time.Duration(w.Duration) * time.Second,
	}
}

// wireStartConstraint and wireEndConstraint wrap a single interval each,
// matching the shape of the request's constraint list entries.
type wireStartConstraint struct {
	StartInterval wireInterval `json:"start_interval"`
}

type wireEndConstraint struct {
	EndInterval wireInterval `json:"end_interval"`
}

// wireTask is the wire representation of a Task.
type wireTask struct {
	ID               string                `json:"id"`
	Duration         int64                 `json:"duration"`
	Power            float64               `json:"power"`
	MustStartBetween []wireStartConstraint `json:"must_start_between,omitempty"`
	MustEndBetween   []wireEndConstraint   `json:"must_end_between,omitempty"`
}

// toTask builds the engine's Task from a wire document. A constant-power
// task is a single breakpoint at (duration, power) with extend-by zero.
// Multiple MustStartBetween entries form a disjunction; the start- and
// end-lists are ANDed; an empty pair of lists leaves the task
// unconstrained.
func (w wireTask) toTask() (*task.Task, error) {
	power, err := piecewise.NewConstantPowerTask(time.Duration(w.Duration)*time.Second, w.Power)
	if err != nil {
		return nil, fmt.Errorf("task %q: invalid power curve: %w", w.ID, err)
	}

	var branches []task.Validator
	if len(w.MustStartBetween) > 0 {
		children := make([]task.Validator, len(w.MustStartBetween))
		for i, e := range w.MustStartBetween {
			children[i] = task.MustStartBetween{Interval: e.StartInterval.toDatetimeInterval()}
		}
		branches = append(branches, task.Disjunction{Children: children})
	}
	if len(w.MustEndBetween) > 0 {
		children := make([]task.Validator, len(w.MustEndBetween))
		for i, e := range w.MustEndBetween {
			children[i] = task.MustEndBetween{Interval: e.EndInterval.toDatetimeInterval()}
		}
		branches = append(branches, task.Disjunction{Children: children})
	}

	var validator task.Validator
	switch len(branches) {
	case 0:
		validator = nil
	case 1:
		validator = branches[0]
	default:
		validator = task.Conjunction{Children: branches}
	}

	return &task.Task{ID: w.ID, Power: power, Validator: validator}, nil
}

// wireScheduledTask is the wire representation of one Schedule entry.
type wireScheduledTask struct {
	Task          wireTask     `json:"task"`
	StartInterval wireInterval `json:"start_interval"`
	Cost          float64      `json:"cost"`
}

// wireSchedule is the optional pre-existing base schedule a request may
// carry, plus its optional MaximumPowerConsumption validator.
type wireSchedule struct {
	Tasks                   []wireScheduledTask `json:"tasks"`
	MaximumPowerConsumption *struct {
		MaximumConsumption float64 `json:"maximum_consumption"`
	} `json:"maximum_power_consumption"`
}

func (w wireSchedule) toSchedule() (*schedule.Schedule, error) {
	tasks := make([]schedule.ScheduledTask, len(w.Tasks))
	for i, wst := range w.Tasks {
		t, err := wst.Task.toTask()
		if err != nil {
			return nil, err
		}
		tasks[i] = schedule.ScheduledTask{
			Task:          t,
			StartInterval: wst.StartInterval.toDatetimeInterval(),
			Cost:          wst.Cost,
		}
	}
	var validator schedule.ScheduleValidator
	if w.MaximumPowerConsumption != nil {
		validator = schedule.MaximumPowerConsumptionValidator{MaxKW: w.MaximumPowerConsumption.MaximumConsumption}
	}
	return &schedule.Schedule{Tasks: tasks, Validator: validator}, nil
}

// scheduleRequest is the engine-level request triple: an ordered task
// list, an optional pre-existing base schedule, and the effective "now"
// instant used to trim the horizon.
type scheduleRequest struct {
	Now          int64         `json:"now"`
	Tasks        []wireTask    `json:"tasks"`
	BaseSchedule *wireSchedule `json:"base_schedule"`
}

// wireTaskResult is one entry of the response schedule: the placement
// plus the worst-case price and emission observed for the task identity
// across the discarded alternatives.
type wireTaskResult struct {
	Task               wireTask     `json:"task"`
	StartInterval      wireInterval `json:"start_interval"`
	Cost               float64      `json:"cost"`
	HighestPrice       float64      `json:"highest_price"`
	HighestCO2Emission float64      `json:"highest_co2_emission"`
}

// scheduleResponse is the selected Schedule augmented with per-task
// worst-case figures and the horizon the engine used.
type scheduleResponse struct {
	Tasks                    []wireTaskResult `json:"tasks"`
	LatestAvailableSpotPrice int64            `json:"latest_available_spot_price"`
}

// taskToWire flattens the task's validator tree back into the two wire
// constraint lists. The flattening loses which branches were ANDed vs
// ORed, so a round-trip through the wire format is lossy for nested
// trees.
func taskToWire(t *task.Task) wireTask {
	w := wireTask{ID: t.ID, Duration: int64(t.Duration() / time.Second), Power: 0}
	if bps := t.Power.Breakpoints(); len(bps) > 0 {
		w.Power = bps[len(bps)-1].Value
	}
	if t.Validator != nil {
		split := task.Split(t.Validator)
		for _, v := range split.MustStart {
			w.MustStartBetween = append(w.MustStartBetween, wireStartConstraint{StartInterval: intervalToWire(v.Interval)})
		}
		for _, v := range split.MustEnd {
			w.MustEndBetween = append(w.MustEndBetween, wireEndConstraint{EndInterval: intervalToWire(v.Interval)})
		}
	}
	return w
}

func intervalToWire(d types.DatetimeInterval) wireInterval {
	return wireInterval{Start: d.Start.Unix(), Duration: int64(d.Duration / time.Second)}
}
