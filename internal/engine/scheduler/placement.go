package scheduler

import (
	"time"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/engine/schedule"
	"github.com/kcloud-opt/loadsched/internal/engine/task"
	"github.com/kcloud-opt/loadsched/internal/types"
)

// PlaceTask produces one ScheduledTask per surviving candidate start:
// zero slack, with cost equal to the zipped rate-power integral evaluated
// at that exact start. A placement could instead be extended forward by
// the largest slack over which the cost integral does not change; either
// way Cost is always the integral at StartInterval.Start.
func PlaceTask(t *task.Task, base *schedule.Schedule, price *piecewise.PriceFunction, now, horizon time.Time) ([]schedule.ScheduledTask, error) {
	ratePower := piecewise.NewPowerPriceFunction(price, t.Power)
	starts := CandidateStarts(t, base, price, now, horizon)

	placements := make([]schedule.ScheduledTask, 0, len(starts))
	for _, s := range starts {
		cost, err := ratePower.IntegrateFromTo(s, t.Duration())
		if err != nil {
			return nil, err
		}
		placements = append(placements, schedule.ScheduledTask{
			Task:          t,
			StartInterval: types.DatetimeInterval{Start: s, Duration: 0},
			Cost:          cost,
		})
	}
	return placements, nil
}
