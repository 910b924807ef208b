package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Status is the terminal status of one test/hook execution, or of the
// whole report.
type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
	StatusSoftFail Status = "soft-fail"
)

// ErrorDetail is the human-readable failure payload of a failed or
// soft-failed execution. Skipped and passed executions carry none.
type ErrorDetail struct {
	Message string
	Stack   string
}

// Result is the terminal outcome of one test or hook: created fresh per
// attempt-sequence, immutable once the scheduler finalizes it, owned by
// the report.
type Result struct {
	Description string

	// Retries is attempts-1: zero for a first-attempt pass, N for a
	// test that exhausted retry = N.
	Retries int

	Status Status
	Error  *ErrorDetail
}

// Stats aggregates terminal test statuses. Total counts selected tests;
// every terminal status increments exactly one counter.
type Stats struct {
	Total      int
	Passed     int
	Failed     int
	Skipped    int
	SoftFailed int
}

// Report is the sole output contract of a run. Tests and Hooks are
// ordered by completion: batch members settle concurrently, so order
// within a batch reflects when each finished, not declaration order.
//
// Status is failed iff any test result is failed; hook failures,
// soft-fails and skips never flip it. Once Run returns, the report is
// safe to hand off read-only to reporting collaborators.
type Report struct {
	RunID       string
	Description string
	Status      Status
	Stats       Stats
	Tests       []Result
	Hooks       []Result
	Duration    time.Duration
}

func newReport(description string) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		Description: description,
		Status:      StatusPassed,
	}
}

// addTest folds one terminal test result into the report. Not
// synchronized; the scheduler serializes access.
func (r *Report) addTest(res Result) {
	r.Tests = append(r.Tests, res)
	switch res.Status {
	case StatusPassed:
		r.Stats.Passed++
	case StatusFailed:
		r.Stats.Failed++
		r.Status = StatusFailed
	case StatusSkipped:
		r.Stats.Skipped++
	case StatusSoftFail:
		r.Stats.SoftFailed++
	}
}

func (r *Report) addHook(res Result) {
	r.Hooks = append(r.Hooks, res)
}
