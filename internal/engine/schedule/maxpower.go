package schedule

import (
	"time"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/engine/task"
)

// MaximumPowerConsumptionValidator admits a candidate placement (t, at)
// iff at every checkpoint where any involved power curve changes — the
// committed tasks' or the candidate's own — the sum of instantaneous
// kilowatts across everything running at that instant does not exceed
// MaxKW. The running-window check uses the half-open convention (RunsAt)
// so a task ending exactly when another starts never double-counts.
type MaximumPowerConsumptionValidator struct {
	MaxKW float64
}

func (v MaximumPowerConsumptionValidator) Validate(s *Schedule, t *task.Task, at time.Time) bool {
	end := at.Add(t.Duration())

	checkpoints := make([]time.Time, 0, len(t.RuntimeBreakpoints())+4*len(s.Tasks))
	for _, rt := range t.RuntimeBreakpoints() {
		cp := at.Add(rt)
		if !cp.Before(at) && cp.Before(end) {
			checkpoints = append(checkpoints, cp)
		}
	}
	for _, committed := range s.Tasks {
		for _, rt := range committed.Task.RuntimeBreakpoints() {
			cp := committed.EarliestStart().Add(rt)
			if !cp.Before(at) && cp.Before(end) {
				checkpoints = append(checkpoints, cp)
			}
		}
	}

	for _, cp := range dedupCheckpoints(checkpoints) {
		total := 0.0
		for _, committed := range s.Tasks {
			total += committed.PowerAt(cp)
		}
		elapsed := cp.Sub(at)
		candidatePower, err := t.Power.Apply(piecewise.Offset(elapsed))
		if err != nil {
			// Outside the candidate's own domain means it is not running
			// at cp; contributes nothing.
			candidatePower = 0
		}
		total += candidatePower
		if total > v.MaxKW {
			return false
		}
	}
	return true
}

func dedupCheckpoints(in []time.Time) []time.Time {
	seen := make(map[int64]bool, len(in))
	out := make([]time.Time, 0, len(in))
	for _, t := range in {
		key := t.UnixNano()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
