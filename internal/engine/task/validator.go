package task

import (
	"fmt"
	"time"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"github.com/kcloud-opt/loadsched/internal/types"
)

// Validator is a predicate tree over a task's start instant that also
// seeds the candidate start times the scheduler must consider.
type Validator interface {
	// Validate reports whether t is a legal start instant for task.
	Validate(task *Task, t time.Time) bool
	// SeedStarts returns a finite, possibly empty, set of candidate start
	// instants this validator (or subtree) contributes.
	SeedStarts(task *Task) []time.Time
}

// MustStartBetween admits t iff it falls within the closed-closed
// Interval. Its seed is the interval's own endpoints.
type MustStartBetween struct {
	Interval types.DatetimeInterval
}

func (v MustStartBetween) Validate(_ *Task, t time.Time) bool {
	return v.Interval.Contains(t)
}

func (v MustStartBetween) SeedStarts(_ *Task) []time.Time {
	return dedupTimes([]time.Time{v.Interval.Start, v.Interval.End()})
}

// MustEndBetween admits a start t iff t+task.Duration() falls within
// Interval. Its seeds are the interval's endpoints shifted back by the
// task's own duration, since the seed set is expressed in start-time
// terms.
type MustEndBetween struct {
	Interval types.DatetimeInterval
}

func (v MustEndBetween) Validate(task *Task, t time.Time) bool {
	return v.Interval.Contains(t.Add(task.Duration()))
}

func (v MustEndBetween) SeedStarts(task *Task) []time.Time {
	d := task.Duration()
	return dedupTimes([]time.Time{v.Interval.Start.Add(-d), v.Interval.End().Add(-d)})
}

// Conjunction requires every child to hold; its seed set is the
// list-intersection of the children's seed sets.
type Conjunction struct {
	Children []Validator
}

func (v Conjunction) Validate(task *Task, t time.Time) bool {
	for _, c := range v.Children {
		if !c.Validate(task, t) {
			return false
		}
	}
	return true
}

func (v Conjunction) SeedStarts(task *Task) []time.Time {
	if len(v.Children) == 0 {
		return nil
	}
	result := v.Children[0].SeedStarts(task)
	for _, c := range v.Children[1:] {
		result = intersectTimes(result, c.SeedStarts(task))
	}
	return result
}

// Disjunction requires any child to hold; its seed set is the list-union
// of the children's seed sets.
type Disjunction struct {
	Children []Validator
}

func (v Disjunction) Validate(task *Task, t time.Time) bool {
	for _, c := range v.Children {
		if c.Validate(task, t) {
			return true
		}
	}
	return false
}

func (v Disjunction) SeedStarts(task *Task) []time.Time {
	var result []time.Time
	for _, c := range v.Children {
		result = append(result, c.SeedStarts(task)...)
	}
	return dedupTimes(result)
}

// ExpressionValidator admits a start instant iff a user-supplied
// antonmedv/expr boolean expression evaluates true against an environment
// exposing the task's identity, duration, and the candidate start/end
// instants. It contributes no structural seeds: an opaque predicate has
// no endpoints to report, so candidate enumeration must rely on the other
// seed sources to find instants worth trying.
type ExpressionValidator struct {
	Expression string
	program    *vm.Program
}

// NewExpressionValidator compiles expression once so repeated Validate
// calls (one per candidate start) do not re-parse it.
func NewExpressionValidator(expression string) (*ExpressionValidator, error) {
	env := map[string]interface{}{
		"task_id":  "",
		"start":    time.Time{},
		"end":      time.Time{},
		"duration": time.Duration(0),
	}
	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling task validator expression: %w", err)
	}
	return &ExpressionValidator{Expression: expression, program: program}, nil
}

// Validate runs the compiled expression against the candidate start. A
// runtime evaluation error is treated as a rejection rather than a panic,
// since Validate has no error return and a misbehaving expression should
// not be able to take down a scheduling request.
func (v *ExpressionValidator) Validate(task *Task, t time.Time) bool {
	env := map[string]interface{}{
		"task_id":  task.ID,
		"start":    t,
		"end":      t.Add(task.Duration()),
		"duration": task.Duration(),
	}
	result, err := expr.Run(v.program, env)
	if err != nil {
		return false
	}
	admit, ok := result.(bool)
	return ok && admit
}

func (v *ExpressionValidator) SeedStarts(_ *Task) []time.Time { return nil }

func intersectTimes(a, b []time.Time) []time.Time {
	set := make(map[int64]bool, len(b))
	for _, t := range b {
		set[t.UnixNano()] = true
	}
	var out []time.Time
	for _, t := range a {
		if set[t.UnixNano()] {
			out = append(out, t)
		}
	}
	return out
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
