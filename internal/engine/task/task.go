// Package task defines the deferrable task model and its validator DSL: a
// predicate tree over a task's start instant that also seeds the
// candidate start times the scheduler must consider.
package task

import (
	"time"

	"github.com/kcloud-opt/loadsched/internal/engine/piecewise"
)

// Task is immutable once constructed. Identity (ID) is opaque to the
// engine but is required by the recommender to report per-task worst-case
// cost across discarded alternatives.
type Task struct {
	ID        string
	Power     *piecewise.PowerUsageFunction
	Validator Validator // nil means unconstrained: every instant is admissible.
}

// Duration is the task's total runtime, taken from its power curve's
// domain span.
func (t *Task) Duration() time.Duration {
	return t.Power.Duration()
}

// RuntimeBreakpoints are the elapsed-runtime offsets at which the task's
// power draw changes, used both for worst-case cost accounting and to
// shift candidate start-time seeds.
func (t *Task) RuntimeBreakpoints() []time.Duration {
	return t.Power.RuntimeBreakpoints()
}

// IsScheduleableAt reports whether the task may legally start at t,
// deferring to its validator tree (or admitting unconditionally if none
// was given).
func (t *Task) IsScheduleableAt(at time.Time) bool {
	if t.Validator == nil {
		return true
	}
	return t.Validator.Validate(t, at)
}

// SeedStarts returns the task's validator-seeded candidate start instants,
// or nil if the task carries no validator.
func (t *Task) SeedStarts() []time.Time {
	if t.Validator == nil {
		return nil
	}
	return t.Validator.SeedStarts(t)
}
