package schedule

import "testing"

func TestLifecycleHappyPath(t *testing.T) {
	steps := []ExecState{StateEvaluating, StateRunning, StateRetrying, StateRunning, StatePassed}
	lc := newLifecycle()
	for _, to := range steps {
		if err := lc.transition(to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if !IsTerminal(lc.cur) {
		t.Fatalf("expected terminal state, got %s", lc.cur)
	}
}

func TestLifecycleSkipPath(t *testing.T) {
	lc := newLifecycle()
	if err := lc.transition(StateEvaluating); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := lc.transition(StateSkipped); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := lc.transition(StateRunning); err == nil {
		t.Fatalf("expected error leaving terminal state")
	}
}

func TestLifecycleRejectsInvalidTransitions(t *testing.T) {
	cases := []struct {
		from ExecState
		to   ExecState
	}{
		{StatePending, StateRunning},
		{StatePending, StatePassed},
		{StateEvaluating, StateFailed},
		{StateRunning, StateSkipped},
		{StateRetrying, StatePassed},
		{StatePassed, StateRunning},
		{StateFailed, StateRetrying},
	}
	for _, tc := range cases {
		if allowedTransition(tc.from, tc.to) {
			t.Errorf("transition %s -> %s should be rejected", tc.from, tc.to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []ExecState{StatePassed, StateFailed, StateSkipped, StateSoftFailed}
	for _, s := range terminal {
		if !IsTerminal(s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	active := []ExecState{StatePending, StateEvaluating, StateRunning, StateRetrying}
	for _, s := range active {
		if IsTerminal(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
