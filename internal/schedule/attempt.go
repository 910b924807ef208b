package schedule

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"

	"github.com/solo-fox/veve/internal/registry"
)

// timeoutFault is the synthetic failure injected when an attempt loses
// the race against its timer. The retry/soft-fail logic consumes it
// exactly like any other attempt failure.
type timeoutFault struct {
	description string
	timeout     time.Duration
}

func (f *timeoutFault) Error() string {
	return fmt.Sprintf("%s exceeded %d ms.", f.description, f.timeout.Milliseconds())
}

// panicError preserves the goroutine stack captured at the recovery
// point, so the report can show where a panicking test body actually
// failed.
type panicError struct {
	cause error
	stack []byte
}

func (e *panicError) Error() string { return e.cause.Error() }

func (e *panicError) Unwrap() error { return e.cause }

// runItem drives one test or hook through the gate and the attempt loop
// and returns its terminal Result.
//
// The non-nil error return is reserved for faults of the scheduling
// machinery itself: a condition predicate that fails to evaluate, or an
// invalid state transition. Those are fatal to the whole run, not
// per-item failures.
func (s *Scheduler) runItem(ctx context.Context, item registry.Test) (Result, error) {
	lc := newLifecycle()
	if err := lc.transition(StateEvaluating); err != nil {
		return Result{}, err
	}

	skip := item.Options.Skip
	if !skip && item.Options.If != nil && !*item.Options.If {
		skip = true
	}
	if !skip && item.Options.Cond != nil {
		ok, err := item.Options.Cond(ctx)
		if err != nil {
			return Result{}, errors.Wrapf(err, "evaluating condition for %q", item.Description)
		}
		skip = !ok
	}
	if skip {
		if err := lc.transition(StateSkipped); err != nil {
			return Result{}, err
		}
		return Result{Description: item.Description, Status: StatusSkipped}, nil
	}

	if err := lc.transition(StateRunning); err != nil {
		return Result{}, err
	}

	retries := 0
	for attempt := 0; ; attempt++ {
		attemptErr := s.attempt(ctx, item)
		if attemptErr == nil {
			if err := lc.transition(StatePassed); err != nil {
				return Result{}, err
			}
			return Result{Description: item.Description, Status: StatusPassed, Retries: retries}, nil
		}

		if attempt < item.Options.Retry {
			retries++
			if err := lc.transition(StateRetrying); err != nil {
				return Result{}, err
			}
			if err := lc.transition(StateRunning); err != nil {
				return Result{}, err
			}
			continue
		}

		status := StatusFailed
		terminal := StateFailed
		if item.Options.SoftFail {
			status = StatusSoftFail
			terminal = StateSoftFailed
		}
		if err := lc.transition(terminal); err != nil {
			return Result{}, err
		}
		return Result{
			Description: item.Description,
			Status:      status,
			Retries:     retries,
			Error:       detailOf(attemptErr),
		}, nil
	}
}

// attempt runs one invocation of the item's body, racing it against the
// configured timeout.
//
// A timed-out invocation is NOT cancelled: the goroutine keeps running in
// the background and its eventual outcome is discarded (the channel is
// buffered so it can always complete). Side effects of an abandoned
// attempt — mutated shared state, held resources — can therefore still
// land after the attempt was already marked failed.
func (s *Scheduler) attempt(ctx context.Context, item registry.Test) error {
	done := make(chan error, 1)
	go func() {
		done <- runGuarded(ctx, item.Fn)
	}()

	if item.Options.Timeout <= 0 {
		return <-done
	}

	timer := time.NewTimer(item.Options.Timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return &timeoutFault{description: item.Description, timeout: item.Options.Timeout}
	}
}

// runGuarded invokes a body and converts panics — assertion failures,
// comparator faults, anything else a test throws — into errors at the
// attempt boundary, so nothing escapes one item's execution to affect
// its siblings.
func runGuarded(ctx context.Context, fn registry.TestFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			cause, ok := rec.(error)
			if !ok {
				cause = fmt.Errorf("%v", rec)
			}
			err = &panicError{cause: cause, stack: debug.Stack()}
		}
	}()
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// detailOf turns the last attempt failure into the report payload: the
// message plus the most precise stack available — the recovery-point
// stack for panics, the error's own stack when it carries one, and a
// here-stack as a last resort.
func detailOf(err error) *ErrorDetail {
	var pe *panicError
	if errors.As(err, &pe) {
		return &ErrorDetail{Message: pe.Error(), Stack: string(pe.stack)}
	}
	if _, ok := err.(stackTracer); ok {
		return &ErrorDetail{Message: err.Error(), Stack: fmt.Sprintf("%+v", err)}
	}
	return &ErrorDetail{Message: err.Error(), Stack: fmt.Sprintf("%+v", errors.WithStack(err))}
}
