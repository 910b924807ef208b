// Package schedule runs a registered suite to completion: lifecycle
// hooks, bounded-parallel batches, per-item timeout/retry/condition/
// soft-fail policy, and report aggregation.
package schedule

import "fmt"

// ExecState is the runtime execution state of one test or hook.
type ExecState string

const (
	StatePending    ExecState = "PENDING"
	StateEvaluating ExecState = "EVALUATING_CONDITION"
	StateRunning    ExecState = "RUNNING"
	StateRetrying   ExecState = "RETRYING"
	StatePassed     ExecState = "PASSED"
	StateFailed     ExecState = "FAILED"
	StateSkipped    ExecState = "SKIPPED"
	StateSoftFailed ExecState = "SOFT_FAILED"
)

// IsTerminal reports whether the state is terminal (finished).
func IsTerminal(s ExecState) bool {
	switch s {
	case StatePassed, StateFailed, StateSkipped, StateSoftFailed:
		return true
	default:
		return false
	}
}

// lifecycle tracks one execution through the per-item state machine and
// validates every transition, making sequencing bugs observable instead
// of silently producing a wrong terminal status.
type lifecycle struct {
	cur ExecState
}

func newLifecycle() *lifecycle { return &lifecycle{cur: StatePending} }

func (l *lifecycle) transition(to ExecState) error {
	if !allowedTransition(l.cur, to) {
		return fmt.Errorf("disallowed execution transition: %s -> %s", l.cur, to)
	}
	l.cur = to
	return nil
}

func allowedTransition(from, to ExecState) bool {
	switch from {
	case StatePending:
		return to == StateEvaluating
	case StateEvaluating:
		return to == StateSkipped || to == StateRunning
	case StateRunning:
		return to == StatePassed || to == StateFailed || to == StateSoftFailed || to == StateRetrying
	case StateRetrying:
		return to == StateRunning
	default:
		return false
	}
}
