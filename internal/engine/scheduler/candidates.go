// Package scheduler enumerates candidate start times for a task against
// a base schedule, places the task at each surviving candidate, and
// combines placements across multiple tasks by permutation sweep.
package scheduler

import (
	"sort"
	"time"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/engine/schedule"
	"github.com/kcloud-opt/loadsched/internal/engine/task"
)

// CandidateStarts computes the finite set of start instants worth trying
// for t against base: the union of price breakpoints within [now, horizon],
// committed-task change-points (each placement's interval bounds shifted
// by the committed task's own runtime breakpoints, so a new task can line
// up with a committed task's start, end, or any piecewise change of its
// draw), and validator-seeded instants, each
// shifted forward and back by every runtime breakpoint of t's own power
// curve, then filtered by domain membership and by base.CanSchedule. The
// cost integral is piecewise-constant in the start instant and can only
// change at these points, so evaluating them finds the minimum over the
// continuous start axis.
func CandidateStarts(t *task.Task, base *schedule.Schedule, price *piecewise.PriceFunction, now, horizon time.Time) []time.Time {
	seeds := priceBreakpointsBetween(price, now, horizon)

	// A committed task's power draw changes at every runtime breakpoint of
	// its own curve, so each of those instants (shifted both ways from the
	// placement's interval bounds) is a seed too — not just the bounds
	// themselves. rt zero keeps the plain bounds in the set.
	for _, committed := range base.Tasks {
		for _, rt := range committed.Task.RuntimeBreakpoints() {
			seeds = append(seeds,
				committed.EarliestStart().Add(rt),
				committed.EarliestStart().Add(-rt),
				committed.LatestStart().Add(rt),
				committed.LatestStart().Add(-rt),
			)
		}
	}

	seeds = append(seeds, t.SeedStarts()...)

	breakpoints := t.RuntimeBreakpoints()
	var candidates []time.Time
	for _, s := range seeds {
		for _, rt := range breakpoints {
			for _, shifted := range [2]time.Time{s.Add(rt), s.Add(-rt)} {
				if !priceDomainContains(price, shifted) || !priceDomainContains(price, shifted.Add(t.Duration())) {
					continue
				}
				candidates = append(candidates, shifted)
			}
		}
	}

	candidates = dedupTimes(candidates)
	surviving := candidates[:0]
	for _, c := range candidates {
		if base.CanSchedule(t, c) {
			surviving = append(surviving, c)
		}
	}
	sort.Slice(surviving, func(i, j int) bool { return surviving[i].Before(surviving[j]) })
	return surviving
}

func priceBreakpointsBetween(price *piecewise.PriceFunction, from, to time.Time) []time.Time {
	var out []time.Time
	for _, p := range price.Breakpoints() {
		if !p.At.Before(from) && !p.At.After(to) {
			out = append(out, p.At)
		}
	}
	return out
}

func priceDomainContains(price *piecewise.PriceFunction, t time.Time) bool {
	return price.IsValid(t)
}

func dedupTimes(in []time.Time) []time.Time {
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
