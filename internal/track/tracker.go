// Package track wraps callables to record their invocation history and
// allow behavior overrides, without altering observable return/throw
// behavior unless explicitly overridden.
package track

import (
	"sync"

	"github.com/solo-fox/veve/internal/compare"
)

// Callable is the function shape a Tracker wraps.
type Callable func(args ...any) (any, error)

// Record is one observed invocation. Records are append-only and owned by
// the Tracker; Args is a snapshot taken at call time, not a live reference.
// A call either returned or erred, never both.
type Record struct {
	Args     []any
	Returned any
	Err      error

	// Ordinal is the zero-based invocation sequence number.
	Ordinal int
}

// Tracker wraps a Callable and intercepts every invocation.
//
// Recording is guarded by a single mutex so the Tracker itself never
// corrupts its records, but invoking one Tracker from multiple tests
// running concurrently in the same batch is a caller error: the observed
// interleaving of records is then meaningless to assert on.
type Tracker struct {
	mu      sync.Mutex
	wrapped Callable
	records []Record

	// everCalled survives Clear so "was it ever invoked" remains
	// answerable after the record log is emptied.
	everCalled bool

	// Behavior override, exclusive: forced return, forced error, or a
	// replacement implementation. Reset removes all three.
	forcedRet    any
	hasForcedRet bool
	forcedErr    error
	replacement  Callable
}

// Fn wraps a callable in a new Tracker. A nil fn is tracked as a no-op
// that returns nil.
func Fn(fn Callable) *Tracker {
	return &Tracker{wrapped: fn}
}

// Call invokes the tracked function, recording arguments and the outcome.
// The wrapped body executes outside the tracker's lock.
func (t *Tracker) Call(args ...any) (any, error) {
	t.mu.Lock()
	fn := t.wrapped
	if t.replacement != nil {
		fn = t.replacement
	}
	forcedRet, hasForcedRet := t.forcedRet, t.hasForcedRet
	forcedErr := t.forcedErr
	snap := make([]any, len(args))
	for i, a := range args {
		snap[i] = compare.Snapshot(a)
	}
	t.mu.Unlock()

	var ret any
	var err error
	switch {
	case forcedErr != nil:
		err = forcedErr
	case hasForcedRet:
		ret = forcedRet
	case fn != nil:
		ret, err = fn(args...)
	}
	if err != nil {
		ret = nil
	}

	t.mu.Lock()
	t.records = append(t.records, Record{Args: snap, Returned: ret, Err: err, Ordinal: len(t.records)})
	t.everCalled = true
	t.mu.Unlock()

	return ret, err
}

// Count returns the number of recorded invocations.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// WasCalled reports whether the tracker was ever invoked. Unlike Count it
// is not reset by Clear, only by Reset.
func (t *Tracker) WasCalled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.everCalled
}

// WasCalledTimes reports whether exactly n invocations are recorded.
func (t *Tracker) WasCalledTimes(n int) bool {
	return t.Count() == n
}

// WasCalledWith reports whether any recorded call received exactly the
// given argument list, compared structurally. Comparator faults (circular
// or over-deep arguments) propagate.
func (t *Tracker) WasCalledWith(args ...any) (bool, error) {
	for _, rec := range t.AllArgs() {
		ok, err := compare.Equal(rec, args)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// NthArgs returns the arguments of the nth call, 1-indexed to match the
// assertion vocabulary. The second return is false when no such call
// exists.
func (t *Tracker) NthArgs(n int) ([]any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 1 || n > len(t.records) {
		return nil, false
	}
	return t.records[n-1].Args, true
}

// LastArgs returns the most recent call's arguments.
func (t *Tracker) LastArgs() ([]any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.records) == 0 {
		return nil, false
	}
	return t.records[len(t.records)-1].Args, true
}

// AllArgs returns the argument lists of every recorded call, in invocation
// order.
func (t *Tracker) AllArgs() [][]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]any, len(t.records))
	for i, r := range t.records {
		out[i] = r.Args
	}
	return out
}

// ReturnValues returns every recorded return value, in invocation order.
// Calls that erred contribute nothing.
func (t *Tracker) ReturnValues() []any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]any, 0, len(t.records))
	for _, r := range t.records {
		if r.Err == nil {
			out = append(out, r.Returned)
		}
	}
	return out
}

// Errors returns every recorded error, in invocation order.
func (t *Tracker) Errors() []error {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]error, 0)
	for _, r := range t.records {
		if r.Err != nil {
			out = append(out, r.Err)
		}
	}
	return out
}

// Records returns a copy of the full invocation log.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Return forces all future invocations to return v without executing the
// wrapped body.
func (t *Tracker) Return(v any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forcedRet, t.hasForcedRet = v, true
	t.forcedErr = nil
}

// Throw forces all future invocations to fail with err without executing
// the wrapped body.
func (t *Tracker) Throw(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forcedErr = err
	t.forcedRet, t.hasForcedRet = nil, false
}

// Use replaces the wrapped implementation entirely.
func (t *Tracker) Use(fn Callable) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replacement = fn
	t.forcedRet, t.hasForcedRet = nil, false
	t.forcedErr = nil
}

// Reset clears all recorded calls and removes any override, restoring the
// original wrapped implementation.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = nil
	t.everCalled = false
	t.forcedRet, t.hasForcedRet = nil, false
	t.forcedErr = nil
	t.replacement = nil
}

// Clear empties the record log but preserves any override or
// implementation swap.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = nil
}
