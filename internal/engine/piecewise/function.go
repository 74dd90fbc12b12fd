// Package piecewise implements the step-function algebra the scheduler is
// built on: a domain of breakpoints, each holding a codomain value until
// superseded by the next breakpoint, optionally held for a further
// extend-by span past the last breakpoint. The generic Function is
// parameterized over domain, codomain, and integral types, with the
// "integral of one piece" rule supplied as a closure at construction
// time so the innermost integration loop stays monomorphic.
package piecewise

import (
	"fmt"
	"sort"
	"time"

	"github.com/kcloud-opt/loadsched/internal/types"
)

// Domain is the constraint a function's x-axis type must satisfy: a total
// order plus the ability to advance and measure distance by a wall-clock
// duration. time.Time satisfies this natively; Offset (below) satisfies it
// for elapsed-runtime domains.
type Domain[D any] interface {
	Compare(other D) int
	Add(delta time.Duration) D
	Sub(other D) time.Duration
}

// Offset is elapsed runtime since a task's start, used as the domain of a
// PowerUsageFunction. It is a distinct type from time.Duration so it can
// carry Domain's method set without colliding with time.Time's.
type Offset time.Duration

func (o Offset) Compare(p Offset) int {
	switch {
	case o < p:
		return -1
	case o > p:
		return 1
	default:
		return 0
	}
}

func (o Offset) Add(delta time.Duration) Offset { return o + Offset(delta) }
func (o Offset) Sub(p Offset) time.Duration     { return time.Duration(o - p) }
func (o Offset) Duration() time.Duration        { return time.Duration(o) }

// Point is one breakpoint: the function holds Value from At until the next
// breakpoint (or the extend-by tail expires).
type Point[D any, C any] struct {
	At    D
	Value C
}

// Function is a piecewise-constant map from D to C, with an injected rule
// for integrating C over a sub-interval into an accumulator of type I.
// combineI/zeroI form the monoid the integral accumulates into. combineC
// is stored but never called, and Function exposes no accessor for it;
// zeroC is the value Apply returns alongside an error.
type Function[D Domain[D], C any, I any] struct {
	points     []Point[D, C]
	extendBy   time.Duration
	combineC   func(a, b C) C
	zeroC      C
	combineI   func(a, b I) I
	zeroI      I
	integralOf func(start, end D, pieceValue C) I
}

// New builds a Function from breakpoints already sorted strictly ascending
// by domain value. extendBy must be non-negative; it is the span past the
// final breakpoint over which the last value is still considered valid
// (e.g. a day-ahead price quoted hourly is good for the following hour).
func New[D Domain[D], C any, I any](
	points []Point[D, C],
	extendBy time.Duration,
	combineC func(a, b C) C,
	zeroC C,
	combineI func(a, b I) I,
	zeroI I,
	integralOf func(start, end D, pieceValue C) I,
) (*Function[D, C, I], error) {
	if len(points) == 0 {
		return nil, &types.TimeSeriesError{Series: "piecewise", Reason: "empty point list"}
	}
	for i := 1; i < len(points); i++ {
		if points[i-1].At.Compare(points[i].At) >= 0 {
			return nil, &types.TimeSeriesError{Series: "piecewise", Reason: "breakpoints are not strictly ascending"}
		}
	}
	if extendBy < 0 {
		return nil, &types.TimeSeriesError{Series: "piecewise", Reason: "extend-by must be non-negative"}
	}
	return &Function[D, C, I]{
		points:     points,
		extendBy:   extendBy,
		combineC:   combineC,
		zeroC:      zeroC,
		combineI:   combineI,
		zeroI:      zeroI,
		integralOf: integralOf,
	}, nil
}

// MinDomain is the first breakpoint's x-value.
func (f *Function[D, C, I]) MinDomain() D { return f.points[0].At }

// MaxDomain is the last breakpoint's x-value plus the extend-by span.
func (f *Function[D, C, I]) MaxDomain() D { return f.points[len(f.points)-1].At.Add(f.extendBy) }

// IsValid reports whether arg falls within [MinDomain, MaxDomain].
func (f *Function[D, C, I]) IsValid(arg D) bool {
	return arg.Compare(f.MinDomain()) >= 0 && arg.Compare(f.MaxDomain()) <= 0
}

// ExtendBy returns the configured tail span.
func (f *Function[D, C, I]) ExtendBy() time.Duration { return f.extendBy }

// Breakpoints exposes the raw point list (callers must not mutate it).
func (f *Function[D, C, I]) Breakpoints() []Point[D, C] { return f.points }

// DiscretePointAt returns the breakpoint in effect at arg: the greatest
// breakpoint whose At is <= arg. Because MaxDomain extends past the last
// breakpoint by extendBy, any arg within the tail resolves to the last
// breakpoint's value.
func (f *Function[D, C, I]) DiscretePointAt(arg D) (Point[D, C], error) {
	if !f.IsValid(arg) {
		return Point[D, C]{}, fmt.Errorf("%w: %v outside [%v, %v]", types.ErrDomainViolation, arg, f.MinDomain(), f.MaxDomain())
	}
	idx := sort.Search(len(f.points), func(i int) bool {
		return f.points[i].At.Compare(arg) > 0
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return f.points[idx], nil
}

// NextDiscretePointFrom returns the breakpoint strictly following arg,
// provided arg lies in [min, max] and that breakpoint does not lie past
// max. If arg sits in the extend-by tail and has not yet reached
// MaxDomain(), a synthetic point is returned at MaxDomain() carrying the
// last breakpoint's value; this synthetic point is not checked against
// max. It lets breakpoint-walking callers (Integrate, the zipped
// rate-power walk) treat the tail boundary as a real step.
func (f *Function[D, C, I]) NextDiscretePointFrom(min, arg, max D) (Point[D, C], bool) {
	if arg.Compare(min) < 0 || arg.Compare(max) > 0 {
		return Point[D, C]{}, false
	}
	idx := sort.Search(len(f.points), func(i int) bool {
		return f.points[i].At.Compare(arg) > 0
	}) - 1
	if idx < 0 {
		idx = 0
	}
	if idx+1 < len(f.points) {
		next := f.points[idx+1]
		if next.At.Compare(max) > 0 {
			return Point[D, C]{}, false
		}
		return next, true
	}
	last := f.points[idx]
	if arg.Compare(last.At) >= 0 && f.extendBy > 0 {
		if arg.Compare(f.MaxDomain()) >= 0 {
			return Point[D, C]{}, false
		}
		return Point[D, C]{At: f.MaxDomain(), Value: last.Value}, true
	}
	return Point[D, C]{}, false
}

// Apply evaluates the function pointwise at arg.
func (f *Function[D, C, I]) Apply(arg D) (C, error) {
	p, err := f.DiscretePointAt(arg)
	if err != nil {
		return f.zeroC, err
	}
	return p.Value, nil
}

// Integrate accumulates the function's value over [start, end) by walking
// breakpoints between the two and summing the injected per-piece integral.
// Splitting exactly at breakpoints means no piece boundary ever falls
// strictly inside a summed segment, which is what keeps repeated float
// accumulation from drifting at the seams.
func (f *Function[D, C, I]) Integrate(start, end D) (I, error) {
	if !f.IsValid(start) {
		return f.zeroI, fmt.Errorf("%w: integrate start %v outside domain", types.ErrDomainViolation, start)
	}
	if !f.IsValid(end) {
		return f.zeroI, fmt.Errorf("%w: integrate end %v outside domain", types.ErrDomainViolation, end)
	}
	if start.Compare(end) > 0 {
		return f.zeroI, fmt.Errorf("%w: integrate start %v after end %v", types.ErrDomainViolation, start, end)
	}
	total := f.zeroI
	cur := start
	minD, maxD := f.MinDomain(), f.MaxDomain()
	for cur.Compare(end) < 0 {
		piece, err := f.DiscretePointAt(cur)
		if err != nil {
			return f.zeroI, err
		}
		next, ok := f.NextDiscretePointFrom(minD, cur, maxD)
		segEnd := end
		if ok && next.At.Compare(end) < 0 {
			segEnd = next.At
		}
		total = f.combineI(total, f.integralOf(cur, segEnd, piece.Value))
		cur = segEnd
	}
	return total, nil
}
