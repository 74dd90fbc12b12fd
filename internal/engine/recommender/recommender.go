// Package recommender selects the cheapest of the candidate schedules the
// scheduler produced and reports, per task, the worst-case price and
// emission observed for that task identity across every candidate
// considered — including the ones discarded — so a caller can present a
// savings figure.
package recommender

import (
	"sort"
	"time"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
	"github.com/kcloud-opt/loadsched/internal/engine/schedule"
)

// WorstCase is the highest price and emission observed for a task
// identity across all candidate schedules, regardless of which schedule
// was ultimately selected.
type WorstCase struct {
	Price    float64
	Emission float64
}

// Result is the recommender's output: the selected schedule plus the
// worst-case figures keyed by task ID.
type Result struct {
	Schedule  *schedule.Schedule
	WorstCase map[string]WorstCase
}

// Recommend runs a two-pass selection. Pass 1 tracks, per task identity,
// the maximum worst-case price and emission seen across every candidate
// schedule. Pass 2 picks the schedule with the lowest total cost, ties
// broken by lowest total emission, then lowest total worst-case price,
// then lexicographically by task start order. price and emission are the
// rate curves shared by every candidate; the schedules themselves only
// carry canonical price cost.
func Recommend(schedules []*schedule.Schedule, price *piecewise.PriceFunction, emission *piecewise.EmissionFunction) (*Result, error) {
	if len(schedules) == 0 {
		return &Result{Schedule: &schedule.Schedule{}, WorstCase: map[string]WorstCase{}}, nil
	}

	worst := map[string]WorstCase{}
	for _, s := range schedules {
		for _, st := range s.Tasks {
			ratePrice := piecewise.NewPowerPriceFunction(price, st.Task.Power)
			worstPrice, err := schedule.WorstCaseCost(st, ratePrice)
			if err != nil {
				return nil, err
			}
			rateEmission := piecewise.NewPowerEmissionFunction(emission, st.Task.Power)
			worstEmission, err := schedule.WorstCaseCost(st, rateEmission)
			if err != nil {
				return nil, err
			}
			id := st.Task.ID
			prev := worst[id]
			if worstPrice > prev.Price {
				prev.Price = worstPrice
			}
			if worstEmission > prev.Emission {
				prev.Emission = worstEmission
			}
			worst[id] = prev
		}
	}

	best := schedules[0]
	bestEmission := scheduleTotalCanonicalEmission(best, emission)
	bestWorst := scheduleTotalWorstCasePrice(best, price)
	for _, s := range schedules[1:] {
		cost := s.TotalCost()
		bestCost := best.TotalCost()
		switch {
		case cost < bestCost:
			best, bestEmission, bestWorst = s, scheduleTotalCanonicalEmission(s, emission), scheduleTotalWorstCasePrice(s, price)
		case cost > bestCost:
			continue
		default:
			candidateEmission := scheduleTotalCanonicalEmission(s, emission)
			if candidateEmission < bestEmission {
				best, bestEmission, bestWorst = s, candidateEmission, scheduleTotalWorstCasePrice(s, price)
				continue
			}
			if candidateEmission > bestEmission {
				continue
			}
			candidateWorst := scheduleTotalWorstCasePrice(s, price)
			if candidateWorst < bestWorst {
				best, bestEmission, bestWorst = s, candidateEmission, candidateWorst
				continue
			}
			if candidateWorst > bestWorst {
				continue
			}
			if lexicographicallyEarlier(s, best) {
				best, bestEmission, bestWorst = s, candidateEmission, candidateWorst
			}
		}
	}

	return &Result{Schedule: best, WorstCase: worst}, nil
}

func scheduleTotalCanonicalEmission(s *schedule.Schedule, emission *piecewise.EmissionFunction) float64 {
	total := 0.0
	for _, st := range s.Tasks {
		rate := piecewise.NewPowerEmissionFunction(emission, st.Task.Power)
		e, err := rate.IntegrateFromTo(st.EarliestStart(), st.Task.Duration())
		if err != nil {
			continue
		}
		total += e
	}
	return total
}

func scheduleTotalWorstCasePrice(s *schedule.Schedule, price *piecewise.PriceFunction) float64 {
	total := 0.0
	for _, st := range s.Tasks {
		rate := piecewise.NewPowerPriceFunction(price, st.Task.Power)
		w, err := schedule.WorstCaseCost(st, rate)
		if err != nil {
			continue
		}
		total += w
	}
	return total
}

// lexicographicallyEarlier breaks a final tie by comparing each
// schedule's task start times, earliest first, in ascending sorted order.
func lexicographicallyEarlier(a, b *schedule.Schedule) bool {
	as := startTimes(a)
	bs := startTimes(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i].Before(bs[i]) {
			return true
		}
		if bs[i].Before(as[i]) {
			return false
		}
	}
	return len(as) < len(bs)
}

func startTimes(s *schedule.Schedule) []time.Time {
	out := make([]time.Time, len(s.Tasks))
	for i, st := range s.Tasks {
		out[i] = st.EarliestStart()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
