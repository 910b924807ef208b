// Package registry defines the declared shape of a test suite: tests,
// per-phase hooks and their options, held in registration order.
//
// A Registry is mutated only during the declaration phase; once handed to
// the scheduler it is read-only. This mirrors the split between immutable
// definition and mutable execution state used throughout the engine.
package registry

import (
	"context"
	"time"
)

// TestFunc is a test or hook body. It is invoked once per attempt; a nil
// return is a pass, a non-nil return (or a panic, recovered at the
// attempt boundary) is a failure.
type TestFunc func(ctx context.Context) error

// Predicate is the callable form of a conditional gate. It is awaited
// before the gated test runs; a false (or error) outcome decides the
// test's fate before any attempt starts.
type Predicate func(ctx context.Context) (bool, error)

// Phase tags a hook's position in the suite lifecycle.
type Phase string

const (
	PhaseBeforeAll  Phase = "beforeAll"
	PhaseBeforeEach Phase = "beforeEach"
	PhaseAfterAll   Phase = "afterAll"
	PhaseAfterEach  Phase = "afterEach"
)

// NoTimeout marks a test as explicitly unbounded. Unlike the zero value,
// which means "unset" to a configuration layer merging run-wide defaults,
// NoTimeout survives the merge and keeps the attempt untimed.
const NoTimeout time.Duration = -1

// Options is per-test (and per-hook) execution policy.
//
// Retry semantics: Retry = N allows up to N+1 total attempts. A negative
// Retry is normalized to zero at registration; a negative Timeout is
// normalized to NoTimeout.
type Options struct {
	// Timeout bounds one attempt; zero means no timeout, NoTimeout means
	// no timeout even when a default timeout is configured. A timed-out
	// attempt counts as a failed attempt for the retry loop.
	Timeout time.Duration

	// Skip forces a skipped result with zero attempts, independent of If
	// and Cond.
	Skip bool

	// If is a literal conditional gate; nil means unconditioned.
	If *bool

	// Cond is the predicate form of the gate, awaited at execution time.
	// When both If and Cond are set, either evaluating false skips.
	Cond Predicate

	// SoftFail turns a terminal failure into a soft-fail: recorded as
	// such, never flipping the overall run status.
	SoftFail bool

	// Retry is the number of additional attempts after a failed first
	// one.
	Retry int
}

func (o Options) normalized() Options {
	if o.Retry < 0 {
		o.Retry = 0
	}
	if o.Timeout < 0 {
		o.Timeout = NoTimeout
	}
	return o
}

// Test is one registered test or hook. Immutable once registered, except
// for description updates through Registry.Rename.
type Test struct {
	Description string
	Fn          TestFunc
	Options     Options
}

// Registry holds a suite's declared tests and hooks in registration
// order.
type Registry struct {
	description string
	tests       []Test
	only        []bool
	hasOnly     bool
	hooks       map[Phase]Test
}

// New creates an empty registry for a suite with the given description.
func New(description string) *Registry {
	return &Registry{description: description, hooks: make(map[Phase]Test)}
}

// Description returns the suite description.
func (r *Registry) Description() string { return r.description }

// Add registers a test at the end of the declaration order.
func (r *Registry) Add(description string, fn TestFunc, opts Options) {
	r.tests = append(r.tests, Test{Description: description, Fn: fn, Options: opts.normalized()})
	r.only = append(r.only, false)
}

// AddOnly registers a test and marks it exclusive: once any test is
// marked, the run set is restricted to the marked subset.
func (r *Registry) AddOnly(description string, fn TestFunc, opts Options) {
	r.Add(description, fn, opts)
	r.only[len(r.only)-1] = true
	r.hasOnly = true
}

// SetHook registers the hook for a phase. At most one hook per phase is
// retained; a later registration replaces the earlier one.
func (r *Registry) SetHook(phase Phase, description string, fn TestFunc, opts Options) {
	r.hooks[phase] = Test{Description: description, Fn: fn, Options: opts.normalized()}
}

// Hook returns the registered hook for a phase, if any.
func (r *Registry) Hook(phase Phase) (Test, bool) {
	h, ok := r.hooks[phase]
	return h, ok
}

// Rename updates the description of the i-th registered test (in
// declaration order). Out-of-range indices are ignored.
func (r *Registry) Rename(i int, description string) {
	if i < 0 || i >= len(r.tests) {
		return
	}
	r.tests[i].Description = description
}

// Len returns the number of registered tests, ignoring only-marking.
func (r *Registry) Len() int { return len(r.tests) }

// Selected returns the tests the scheduler should run, in declaration
// order: the only-marked subset when one exists, otherwise all tests.
// The returned slice is a copy.
func (r *Registry) Selected() []Test {
	out := make([]Test, 0, len(r.tests))
	for i, t := range r.tests {
		if r.hasOnly && !r.only[i] {
			continue
		}
		out = append(out, t)
	}
	return out
}
