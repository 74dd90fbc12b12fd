package scheduler

import (
	"time"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/engine/schedule"
	"github.com/kcloud-opt/loadsched/internal/engine/task"
)

// ScheduleTasks enumerates every feasible multi-task schedule: for each
// permutation of tasks, a frontier of partial schedules is expanded task
// by task (every placement of the next task against every schedule
// currently in the frontier); the union of final frontiers across all
// permutations is returned. Permuting is required because
// MaximumPowerConsumptionValidator is order-sensitive in what it admits:
// placing one task in a peak-hour slot can block another task's cheapest
// window.
func ScheduleTasks(tasks []*task.Task, base *schedule.Schedule, price *piecewise.PriceFunction, now, horizon time.Time) ([]*schedule.Schedule, error) {
	var all []*schedule.Schedule
	for _, perm := range permutations(tasks) {
		frontier := []*schedule.Schedule{base}
		for _, t := range perm {
			var next []*schedule.Schedule
			for _, s := range frontier {
				placements, err := PlaceTask(t, s, price, now, horizon)
				if err != nil {
					return nil, err
				}
				for _, p := range placements {
					next = append(next, s.With(p))
				}
			}
			frontier = next
			if len(frontier) == 0 {
				break
			}
		}
		all = append(all, frontier...)
	}
	return all, nil
}

// permutations returns every ordering of tasks via Heap's algorithm. The
// permutation sweep is feasible for n <= 7; callers orchestrating a
// request are expected to cap above that, since the core here is purely
// computational and intentionally does not log.
func permutations(tasks []*task.Task) [][]*task.Task {
	n := len(tasks)
	if n == 0 {
		return [][]*task.Task{{}}
	}
	work := make([]*task.Task, n)
	copy(work, tasks)

	var out [][]*task.Task
	var generate func(k int)
	generate = func(k int) {
		if k == 1 {
			snapshot := make([]*task.Task, n)
			copy(snapshot, work)
			out = append(out, snapshot)
			return
		}
		for i := 0; i < k; i++ {
			generate(k - 1)
			if k%2 == 0 {
				work[i], work[k-1] = work[k-1], work[i]
			} else {
				work[0], work[k-1] = work[k-1], work[0]
			}
		}
	}
	generate(n)
	return out
}
