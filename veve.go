// Package veve is a structural test-execution engine: suites declare
// tests with per-test timeout, retry, skip and conditional policy; the
// engine runs them in bounded-parallel batches and hands back a single
// report. Assertions compare values structurally and render readable
// diffs on failure.
//
// Declaration and execution are two phases. A Suite is mutated only
// while declaring; Run never mutates it, so a suite can be run more
// than once and every run gets a fresh report.
package veve

import (
	"context"

	"github.com/solo-fox/veve/internal/assertion"
	"github.com/solo-fox/veve/internal/config"
	"github.com/solo-fox/veve/internal/registry"
	"github.com/solo-fox/veve/internal/reporting"
	"github.com/solo-fox/veve/internal/schedule"
	"github.com/solo-fox/veve/internal/track"
)

// Aliases for the engine's core types, so callers only import this
// package.
type (
	// TestFunc is a test or hook body.
	TestFunc = registry.TestFunc

	// Predicate is the callable form of a conditional gate.
	Predicate = registry.Predicate

	// Options is per-test execution policy.
	Options = registry.Options

	// Defaults is the run-wide option defaults surface, loadable from
	// YAML via LoadDefaults.
	Defaults = config.Defaults

	// Report is the outcome of one run.
	Report = schedule.Report

	// Result is the terminal outcome of one test or hook.
	Result = schedule.Result

	// Stats aggregates terminal test statuses.
	Stats = schedule.Stats

	// Status is a terminal execution status.
	Status = schedule.Status

	// Assertion is a single assertion expression under construction.
	Assertion = assertion.Assertion

	// Failure is the panic payload of a failed throwing assertion.
	Failure = assertion.Failure

	// Future is an awaitable value for Resolves/Rejects assertions.
	Future = assertion.Future

	// Tracker wraps a callable and records every invocation.
	Tracker = track.Tracker

	// Callable is the function shape a Tracker wraps.
	Callable = track.Callable
)

const (
	StatusPassed   = schedule.StatusPassed
	StatusFailed   = schedule.StatusFailed
	StatusSkipped  = schedule.StatusSkipped
	StatusSoftFail = schedule.StatusSoftFail

	// NoTimeout pins a test as unbounded even when Configure sets a
	// default timeout; a zero Timeout means "use the default".
	NoTimeout = registry.NoTimeout
)

// Expect starts a throwing assertion: a failed matcher panics with a
// *Failure, which the scheduler recovers at the attempt boundary and
// records as the test's failure.
func Expect(v any) *Assertion { return assertion.Expect(v) }

// Check starts a boolean assertion: matchers return pass/fail and never
// panic on a mismatch.
func Check(v any) *Assertion { return assertion.Check(v) }

// Fn wraps a callable in a Tracker.
func Fn(fn Callable) *Tracker { return track.Fn(fn) }

// LoadDefaults reads run defaults from a YAML file. A missing file
// yields the zero Defaults.
func LoadDefaults(path string) (Defaults, error) { return config.Load(path) }

// Suite is a declared collection of tests and hooks. Declaration
// methods are not safe for concurrent use; Run is.
type Suite struct {
	reg      *registry.Registry
	defaults Defaults
}

// New creates an empty suite.
func New(description string) *Suite {
	return &Suite{reg: registry.New(description)}
}

// Configure sets run-wide defaults. Explicit per-test options keep
// precedence; the defaults fill whatever a test left unset. May be
// called at any point before Run.
func (s *Suite) Configure(d Defaults) { s.defaults = d }

func first(opts []Options) Options {
	if len(opts) == 0 {
		return Options{}
	}
	return opts[0]
}

// Test declares a test at the end of the suite.
func (s *Suite) Test(description string, fn TestFunc, opts ...Options) {
	s.reg.Add(description, fn, first(opts))
}

// Only declares a test and restricts the run to only-marked tests.
func (s *Suite) Only(description string, fn TestFunc, opts ...Options) {
	s.reg.AddOnly(description, fn, first(opts))
}

// BeforeAll declares the hook run once before the first batch. Its
// failure is recorded but does not abort the run.
func (s *Suite) BeforeAll(fn TestFunc, opts ...Options) {
	s.reg.SetHook(registry.PhaseBeforeAll, "beforeAll", fn, first(opts))
}

// BeforeEach declares the hook run before every test.
func (s *Suite) BeforeEach(fn TestFunc, opts ...Options) {
	s.reg.SetHook(registry.PhaseBeforeEach, "beforeEach", fn, first(opts))
}

// AfterEach declares the hook run after every test, regardless of the
// test's outcome.
func (s *Suite) AfterEach(fn TestFunc, opts ...Options) {
	s.reg.SetHook(registry.PhaseAfterEach, "afterEach", fn, first(opts))
}

// AfterAll declares the hook run once after the last batch.
func (s *Suite) AfterAll(fn TestFunc, opts ...Options) {
	s.reg.SetHook(registry.PhaseAfterAll, "afterAll", fn, first(opts))
}

// Rename updates the description of the i-th declared test. Out-of-range
// indices are ignored.
func (s *Suite) Rename(i int, description string) { s.reg.Rename(i, description) }

// Len returns the number of declared tests.
func (s *Suite) Len() int { return s.reg.Len() }

// Run executes the suite and returns its report. The error return is
// reserved for faults of the machinery itself, such as a condition
// predicate that fails to evaluate; test failures live in the report.
func (s *Suite) Run(ctx context.Context) (*Report, error) {
	sched := &schedule.Scheduler{
		Registry: s.resolved(),
		Width:    s.defaults.BatchWidth(),
	}
	return sched.Run(ctx)
}

// resolved builds the execution-time registry: the selected tests and
// hooks with the suite defaults folded into their options. The declared
// registry stays untouched, so defaults reconfigured between runs take
// effect on the next Run.
func (s *Suite) resolved() *registry.Registry {
	out := registry.New(s.reg.Description())
	for _, t := range s.reg.Selected() {
		out.Add(t.Description, t.Fn, s.defaults.Apply(t.Options))
	}
	for _, phase := range []registry.Phase{
		registry.PhaseBeforeAll,
		registry.PhaseBeforeEach,
		registry.PhaseAfterEach,
		registry.PhaseAfterAll,
	} {
		if h, ok := s.reg.Hook(phase); ok {
			out.SetHook(phase, h.Description, h.Fn, s.defaults.Apply(h.Options))
		}
	}
	return out
}

// Render formats a report for the terminal.
func Render(report *Report, verbose bool) string {
	return reporting.Console{Verbose: verbose}.Render(report)
}
