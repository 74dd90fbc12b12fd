package piecewise

import "time"

// PowerUsageFunction maps elapsed runtime (Offset, zero-anchored at task
// start) to instantaneous draw in kW, and integrates into energy in kWh.
// It wraps the generic step function rather than aliasing it so the
// runtime-domain helpers below can live on the type itself.
type PowerUsageFunction struct {
	Function[Offset, float64, float64]
}

// NewPowerUsageFunction builds a task's power curve. If the first given
// breakpoint is not at offset zero, one is synthesized there by repeating
// the first power value — a task's draw is defined from the instant it
// starts, and the caller is not required to state that redundantly. A
// constant-power task is the degenerate case: a single breakpoint at
// (duration, power) with extendBy zero, which synthesizes (0, power) and
// yields a domain of exactly [0, duration].
func NewPowerUsageFunction(breakpoints []Point[Offset, float64], extendBy time.Duration) (*PowerUsageFunction, error) {
	points := breakpoints
	if len(points) == 0 || points[0].At != 0 {
		first := float64(0)
		if len(points) > 0 {
			first = points[0].Value
		}
		synthesized := make([]Point[Offset, float64], 0, len(points)+1)
		synthesized = append(synthesized, Point[Offset, float64]{At: 0, Value: first})
		synthesized = append(synthesized, points...)
		points = synthesized
	}
	fn, err := New[Offset, float64, float64](
		points,
		extendBy,
		func(a, b float64) float64 { return a + b },
		0,
		func(a, b float64) float64 { return a + b },
		0,
		func(start, end Offset, power float64) float64 {
			return power * end.Sub(start).Hours()
		},
	)
	if err != nil {
		return nil, err
	}
	return &PowerUsageFunction{Function: *fn}, nil
}

// NewConstantPowerTask builds the degenerate single-breakpoint power curve
// for a task that draws a constant kW for its entire duration.
func NewConstantPowerTask(duration time.Duration, power float64) (*PowerUsageFunction, error) {
	return NewPowerUsageFunction([]Point[Offset, float64]{{At: Offset(duration), Value: power}}, 0)
}

// Duration is the task's total runtime: the power curve's domain span.
func (f *PowerUsageFunction) Duration() time.Duration {
	return f.MaxDomain().Sub(f.MinDomain())
}

// RuntimeBreakpoints returns the elapsed-runtime offsets at which the
// power draw changes, used both for worst-case cost accounting and to
// shift candidate start-time seeds.
func (f *PowerUsageFunction) RuntimeBreakpoints() []time.Duration {
	bps := f.Breakpoints()
	out := make([]time.Duration, len(bps))
	for i, p := range bps {
		out[i] = p.At.Duration()
	}
	return out
}

// MinStep is the smallest breakpoint-to-breakpoint gap in the curve, the
// finest granularity at which the draw can change.
func (f *PowerUsageFunction) MinStep() time.Duration {
	bps := f.Breakpoints()
	if len(bps) < 2 {
		return f.Duration()
	}
	min := bps[1].At.Sub(bps[0].At)
	for i := 2; i < len(bps); i++ {
		if step := bps[i].At.Sub(bps[i-1].At); step < min {
			min = step
		}
	}
	return min
}
