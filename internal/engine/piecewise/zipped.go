package piecewise

import (
	"fmt"
	"time"

	"github.com/kcloud-opt/loadsched/internal/types"
)

// Pair is the domain of a zipped rate/power function: a wall-clock instant
// paired with the elapsed runtime it corresponds to. The two coordinates
// are required to advance in lockstep — see RatePowerFunction.
type Pair struct {
	Time   time.Time
	Offset Offset
}

func (p Pair) Compare(q Pair) int { return p.Time.Compare(q.Time) }
func (p Pair) Add(delta time.Duration) Pair {
	return Pair{Time: p.Time.Add(delta), Offset: p.Offset.Add(delta)}
}
func (p Pair) Sub(q Pair) time.Duration { return p.Time.Sub(q.Time) }

// RatePowerFunction zips a wall-clock rate function (price or emission)
// against a task's power curve: at each instant it evaluates the rate and
// multiplies by the power integral, so IntegrateFromTo yields the task's
// total cost or emission for a given start and duration.
//
// The two functions step independently — the rate function on calendar
// breakpoints, the power curve on elapsed-runtime breakpoints — so walking
// the zipped domain always advances both coordinates by whichever next
// step is smaller. An invariant holds at every step: the wall-clock delta
// must equal the elapsed-runtime delta, since the power curve is anchored
// to the task's actual start. A mismatch signals a construction bug
// upstream (a Pair built from inconsistent coordinates) rather than a
// normal scheduling outcome, so it surfaces as ErrDomainViolation.
type RatePowerFunction struct {
	rate  *Function[time.Time, float64, float64]
	power *PowerUsageFunction
}

// NewPowerPriceFunction zips a spot-price function against a power curve.
func NewPowerPriceFunction(price *PriceFunction, power *PowerUsageFunction) *RatePowerFunction {
	return &RatePowerFunction{rate: price, power: power}
}

// NewPowerEmissionFunction zips a carbon-intensity function against a
// power curve.
func NewPowerEmissionFunction(emission *EmissionFunction, power *PowerUsageFunction) *RatePowerFunction {
	return &RatePowerFunction{rate: emission, power: power}
}

func (z *RatePowerFunction) minDomain() Pair {
	return Pair{Time: z.rate.MinDomain(), Offset: z.power.MinDomain()}
}

func (z *RatePowerFunction) maxDomain() Pair {
	return Pair{Time: z.rate.MaxDomain(), Offset: z.power.MaxDomain()}
}

// nextFrom returns the next breakpoint following cur on either coordinate,
// whichever comes first, bounded by bounds.
func (z *RatePowerFunction) nextFrom(cur, bounds Pair) (Pair, bool) {
	rateNext, rateOk := z.rate.NextDiscretePointFrom(z.rate.MinDomain(), cur.Time, bounds.Time)
	powerNext, powerOk := z.power.NextDiscretePointFrom(z.power.MinDomain(), cur.Offset, bounds.Offset)
	if !rateOk && !powerOk {
		return Pair{}, false
	}
	rateDelta := time.Duration(1<<63 - 1)
	if rateOk {
		rateDelta = rateNext.At.Sub(cur.Time)
	}
	powerDelta := time.Duration(1<<63 - 1)
	if powerOk {
		powerDelta = powerNext.At.Sub(cur.Offset)
	}
	delta := rateDelta
	if powerDelta < delta {
		delta = powerDelta
	}
	if delta <= 0 {
		return Pair{}, false
	}
	return cur.Add(delta), true
}

// IntegrateFromTo returns the accumulated cost (or emission) of running
// the power curve starting at `start` for `duration`.
func (z *RatePowerFunction) IntegrateFromTo(start time.Time, duration time.Duration) (float64, error) {
	startPair := Pair{Time: start, Offset: z.power.MinDomain()}
	endPair := Pair{Time: start.Add(duration), Offset: z.power.MinDomain().Add(duration)}
	if !z.rate.IsValid(startPair.Time) || !z.rate.IsValid(endPair.Time) {
		return 0, fmt.Errorf("%w: rate-power window [%v, %v) outside rate domain", types.ErrDomainViolation, startPair.Time, endPair.Time)
	}
	if !z.power.IsValid(startPair.Offset) || !z.power.IsValid(endPair.Offset) {
		return 0, fmt.Errorf("%w: rate-power window outside power domain", types.ErrDomainViolation)
	}

	total := 0.0
	cur := startPair
	bounds := Pair{Time: endPair.Time, Offset: endPair.Offset}
	for cur.Time.Before(endPair.Time) {
		next, ok := z.nextFrom(cur, bounds)
		segEnd := endPair
		if ok && next.Time.Before(endPair.Time) {
			segEnd = next
		}
		if segEnd.Time.Sub(cur.Time) != segEnd.Offset.Sub(cur.Offset) {
			return 0, fmt.Errorf("%w: zipped step mismatch: time delta %v != offset delta %v",
				types.ErrDomainViolation, segEnd.Time.Sub(cur.Time), segEnd.Offset.Sub(cur.Offset))
		}
		price, err := z.rate.Apply(cur.Time)
		if err != nil {
			return 0, err
		}
		energy, err := z.power.Integrate(cur.Offset, segEnd.Offset)
		if err != nil {
			return 0, err
		}
		total += price * energy
		cur = segEnd
	}
	return total, nil
}
