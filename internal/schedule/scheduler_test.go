package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solo-fox/veve/internal/registry"
)

func pass(ctx context.Context) error { return nil }

func fail(ctx context.Context) error { return errors.New("boom") }

func runSuite(t *testing.T, reg *registry.Registry, width int) *Report {
	t.Helper()
	s := &Scheduler{Registry: reg, Width: width}
	report, err := s.Run(context.Background())
	require.NoError(t, err)
	return report
}

func findTest(t *testing.T, report *Report, description string) Result {
	t.Helper()
	for _, res := range report.Tests {
		if res.Description == description {
			return res
		}
	}
	t.Fatalf("no result for %q", description)
	return Result{}
}

func TestBatchesPartition(t *testing.T) {
	got := Batches(5, 2)
	want := [][]int{{0, 1}, {2, 3}, {4}}
	assert.Equal(t, want, got)

	assert.Nil(t, Batches(0, 2))
	assert.Nil(t, Batches(3, 0))
	assert.Equal(t, [][]int{{0, 1, 2}}, Batches(3, 8))
}

func TestDefaultWidthFloor(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultWidth(), MinWidth)
}

func TestRunAllPassing(t *testing.T) {
	reg := registry.New("arithmetic")
	for i := 0; i < 3; i++ {
		reg.Add(fmt.Sprintf("test %d", i), pass, registry.Options{})
	}

	report := runSuite(t, reg, 2)
	assert.Equal(t, StatusPassed, report.Status)
	assert.Equal(t, Stats{Total: 3, Passed: 3}, report.Stats)
	assert.Len(t, report.Tests, 3)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "arithmetic", report.Description)
	for _, res := range report.Tests {
		assert.Nil(t, res.Error)
		assert.Zero(t, res.Retries)
	}
}

func TestRunFailureFlipsReportStatus(t *testing.T) {
	reg := registry.New("mixed")
	reg.Add("ok", pass, registry.Options{})
	reg.Add("broken", fail, registry.Options{})

	report := runSuite(t, reg, 2)
	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, Stats{Total: 2, Passed: 1, Failed: 1}, report.Stats)

	res := findTest(t, report, "broken")
	require.NotNil(t, res.Error)
	assert.Equal(t, "boom", res.Error.Message)
	assert.NotEmpty(t, res.Error.Stack)
}

func TestRetryCountsAdditionalAttempts(t *testing.T) {
	var attempts atomic.Int32
	reg := registry.New("flaky")
	reg.Add("third time lucky", func(ctx context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("not yet")
		}
		return nil
	}, registry.Options{Retry: 2})

	report := runSuite(t, reg, 1)
	res := findTest(t, report, "third time lucky")
	assert.Equal(t, StatusPassed, res.Status)
	assert.Equal(t, 2, res.Retries)
	assert.EqualValues(t, 3, attempts.Load())
}

func TestRetryExhaustionFails(t *testing.T) {
	var attempts atomic.Int32
	reg := registry.New("stubborn")
	reg.Add("never passes", func(ctx context.Context) error {
		attempts.Add(1)
		return errors.New("still broken")
	}, registry.Options{Retry: 2})

	report := runSuite(t, reg, 1)
	res := findTest(t, report, "never passes")
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 2, res.Retries)
	assert.EqualValues(t, 3, attempts.Load())
}

func TestSoftFailNeverFlipsRunStatus(t *testing.T) {
	reg := registry.New("tolerant")
	reg.Add("allowed to break", fail, registry.Options{SoftFail: true})
	reg.Add("ok", pass, registry.Options{})

	report := runSuite(t, reg, 2)
	assert.Equal(t, StatusPassed, report.Status)
	assert.Equal(t, Stats{Total: 2, Passed: 1, SoftFailed: 1}, report.Stats)

	res := findTest(t, report, "allowed to break")
	assert.Equal(t, StatusSoftFail, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, "boom", res.Error.Message)
}

func TestSkipWinsOverEverything(t *testing.T) {
	var ran atomic.Bool
	yes := true
	reg := registry.New("skipping")
	reg.Add("skipped despite gates", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}, registry.Options{
		Skip:  true,
		If:    &yes,
		Cond:  func(ctx context.Context) (bool, error) { return true, nil },
		Retry: 5,
	})

	report := runSuite(t, reg, 1)
	res := findTest(t, report, "skipped despite gates")
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Nil(t, res.Error)
	assert.Zero(t, res.Retries)
	assert.False(t, ran.Load(), "body must not run for a skipped test")
	assert.Equal(t, Stats{Total: 1, Skipped: 1}, report.Stats)
}

func TestConditionGates(t *testing.T) {
	no := false
	reg := registry.New("gated")
	reg.Add("literal false", pass, registry.Options{If: &no})
	reg.Add("predicate false", pass, registry.Options{
		Cond: func(ctx context.Context) (bool, error) { return false, nil },
	})
	reg.Add("predicate true", pass, registry.Options{
		Cond: func(ctx context.Context) (bool, error) { return true, nil },
	})

	report := runSuite(t, reg, 3)
	assert.Equal(t, StatusSkipped, findTest(t, report, "literal false").Status)
	assert.Equal(t, StatusSkipped, findTest(t, report, "predicate false").Status)
	assert.Equal(t, StatusPassed, findTest(t, report, "predicate true").Status)
	assert.Equal(t, StatusPassed, report.Status, "skips never fail a run")
}

func TestConditionPredicateFaultIsFatal(t *testing.T) {
	reg := registry.New("broken gate")
	reg.Add("unreachable verdict", pass, registry.Options{
		Cond: func(ctx context.Context) (bool, error) {
			return false, errors.New("flag service down")
		},
	})

	s := &Scheduler{Registry: reg, Width: 1}
	report, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag service down")
	assert.Contains(t, err.Error(), "unreachable verdict")
	require.NotNil(t, report, "partial report still returned")
	assert.Empty(t, report.Tests)
}

func TestTimeoutMessage(t *testing.T) {
	reg := registry.New("slow")
	reg.Add("sleeper", func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	}, registry.Options{Timeout: 20 * time.Millisecond})

	report := runSuite(t, reg, 1)
	res := findTest(t, report, "sleeper")
	assert.Equal(t, StatusFailed, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, "sleeper exceeded 20 ms.", res.Error.Message)
}

func TestPanicRecoveredAtAttemptBoundary(t *testing.T) {
	reg := registry.New("panicky")
	reg.Add("panics", func(ctx context.Context) error {
		panic("kaboom")
	}, registry.Options{})
	reg.Add("survivor", pass, registry.Options{})

	report := runSuite(t, reg, 2)
	assert.Equal(t, StatusFailed, report.Status)

	res := findTest(t, report, "panics")
	require.NotNil(t, res.Error)
	assert.Equal(t, "kaboom", res.Error.Message)
	assert.NotEmpty(t, res.Error.Stack)

	assert.Equal(t, StatusPassed, findTest(t, report, "survivor").Status)
}

func TestBatchesSettleSequentially(t *testing.T) {
	var mu sync.Mutex
	started := make([]int, 0, 5)

	reg := registry.New("batched")
	for i := 0; i < 5; i++ {
		reg.Add(fmt.Sprintf("test %d", i), func(ctx context.Context) error {
			mu.Lock()
			started = append(started, i)
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			return nil
		}, registry.Options{})
	}

	report := runSuite(t, reg, 2)
	assert.Len(t, report.Tests, 5)

	// With width 2 the start order must respect the batch boundaries
	// {0,1} {2,3} {4} even though order inside a batch is free.
	require.Len(t, started, 5)
	batchOf := func(i int) int { return i / 2 }
	for pos := 1; pos < len(started); pos++ {
		assert.GreaterOrEqual(t, batchOf(started[pos]), batchOf(started[pos-1]),
			"test %d started before an earlier batch finished", started[pos])
	}
}

func TestOnlySubsetRuns(t *testing.T) {
	var ran atomic.Int32
	reg := registry.New("focused")
	reg.Add("ignored", func(ctx context.Context) error { ran.Add(1); return nil }, registry.Options{})
	reg.AddOnly("focused", func(ctx context.Context) error { ran.Add(1); return nil }, registry.Options{})

	report := runSuite(t, reg, 2)
	assert.Equal(t, Stats{Total: 1, Passed: 1}, report.Stats)
	assert.EqualValues(t, 1, ran.Load())
	assert.Equal(t, "focused", report.Tests[0].Description)
}

func TestHooksBracketTests(t *testing.T) {
	var mu sync.Mutex
	var order []string
	log := func(tag string) registry.TestFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, tag)
			mu.Unlock()
			return nil
		}
	}

	reg := registry.New("hooked")
	reg.SetHook(registry.PhaseBeforeAll, "beforeAll", log("beforeAll"), registry.Options{})
	reg.SetHook(registry.PhaseAfterAll, "afterAll", log("afterAll"), registry.Options{})
	reg.SetHook(registry.PhaseBeforeEach, "beforeEach", log("beforeEach"), registry.Options{})
	reg.SetHook(registry.PhaseAfterEach, "afterEach", log("afterEach"), registry.Options{})
	reg.Add("t1", log("t1"), registry.Options{})
	reg.Add("t2", log("t2"), registry.Options{})

	report := runSuite(t, reg, 1)
	assert.Equal(t, []string{
		"beforeAll",
		"beforeEach", "t1", "afterEach",
		"beforeEach", "t2", "afterEach",
		"afterAll",
	}, order)

	// beforeAll + afterAll + 2x(beforeEach, afterEach).
	assert.Len(t, report.Hooks, 6)
	assert.Len(t, report.Tests, 2)
}

func TestFailingBeforeAllDoesNotAbortRun(t *testing.T) {
	reg := registry.New("resilient")
	reg.SetHook(registry.PhaseBeforeAll, "doomed setup", fail, registry.Options{})
	reg.Add("still runs", pass, registry.Options{})

	report := runSuite(t, reg, 1)
	assert.Equal(t, StatusPassed, report.Status, "hook failures never flip the run status")
	assert.Equal(t, Stats{Total: 1, Passed: 1}, report.Stats)

	require.Len(t, report.Hooks, 1)
	hook := report.Hooks[0]
	assert.Equal(t, "doomed setup", hook.Description)
	assert.Equal(t, StatusFailed, hook.Status)
	require.NotNil(t, hook.Error)
	assert.Equal(t, "boom", hook.Error.Message)
}

func TestHookOptionsApply(t *testing.T) {
	var attempts atomic.Int32
	reg := registry.New("retrying hook")
	reg.SetHook(registry.PhaseBeforeAll, "flaky setup", func(ctx context.Context) error {
		if attempts.Add(1) < 2 {
			return errors.New("warming up")
		}
		return nil
	}, registry.Options{Retry: 3})
	reg.Add("test", pass, registry.Options{})

	report := runSuite(t, reg, 1)
	require.Len(t, report.Hooks, 1)
	assert.Equal(t, StatusPassed, report.Hooks[0].Status)
	assert.Equal(t, 1, report.Hooks[0].Retries)
	assert.EqualValues(t, 2, attempts.Load())
}

func TestDurationRecorded(t *testing.T) {
	reg := registry.New("timed")
	reg.Add("nap", func(ctx context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	}, registry.Options{})

	report := runSuite(t, reg, 1)
	assert.GreaterOrEqual(t, report.Duration, 5*time.Millisecond)
}

func TestAbandonedTimeoutAttemptStillFinishes(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	reg := registry.New("background")
	reg.Add("outlived", func(ctx context.Context) error {
		<-release
		close(finished)
		return nil
	}, registry.Options{Timeout: 10 * time.Millisecond})

	report := runSuite(t, reg, 1)
	res := findTest(t, report, "outlived")
	assert.Equal(t, StatusFailed, res.Status)
	require.NotNil(t, res.Error)
	assert.True(t, strings.HasSuffix(res.Error.Message, "exceeded 10 ms."))

	// The abandoned goroutine is not cancelled; it completes once
	// unblocked, after the run already finished.
	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("abandoned attempt never completed")
	}
}
