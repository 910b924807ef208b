package schedule

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/solo-fox/veve/internal/registry"
)

// MinWidth is the floor on batch width: even on narrow machines a batch
// runs at least this many tests concurrently.
const MinWidth = 4

// DefaultWidth derives the batch width from the available execution
// units, clamped to MinWidth.
func DefaultWidth() int {
	w := runtime.NumCPU()
	if w < MinWidth {
		w = MinWidth
	}
	return w
}

// Batches partitions n tests (by declaration index) into consecutive
// groups of at most width: test i is always a member of batch i/width.
//
// Pure: the partition depends only on n and width, never on outcomes.
func Batches(n, width int) [][]int {
	if width <= 0 || n <= 0 {
		return nil
	}
	out := make([][]int, 0, (n+width-1)/width)
	for start := 0; start < n; start += width {
		end := start + width
		if end > n {
			end = n
		}
		batch := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, i)
		}
		out = append(out, batch)
	}
	return out
}

// Scheduler runs one registered suite to completion and produces its
// Report.
//
// Width is the batch concurrency; zero means DefaultWidth. The registry
// must not be mutated once Run starts.
type Scheduler struct {
	Registry *registry.Registry
	Width    int

	mu     sync.Mutex
	report *Report
}

// New creates a scheduler over a populated registry.
func New(reg *registry.Registry) (*Scheduler, error) {
	if reg == nil {
		return nil, errors.New("nil registry")
	}
	return &Scheduler{Registry: reg}, nil
}

// Run executes the suite: beforeAll, then every selected test in
// strictly sequential batches of Width concurrent members (each wrapped
// in beforeEach/afterEach when registered), then afterAll.
//
// Policy decisions this engine commits to:
//   - A failing beforeAll does NOT abort the run; its failure is
//     recorded in the hooks sequence and every test still executes.
//   - A condition predicate that itself fails to evaluate is fatal to
//     the whole run: Run returns a non-nil error (alongside the partial
//     report). In-flight batch members settle before Run returns.
//
// Batch i+1 does not start until every member of batch i, including its
// beforeEach/afterEach invocations, has settled. Within a batch,
// completion order is non-deterministic and the report's Tests/Hooks
// sequences record it as observed.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	width := s.Width
	if width <= 0 {
		width = DefaultWidth()
	}

	report := newReport(s.Registry.Description())
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()

	start := time.Now()
	finish := func() { report.Duration = time.Since(start) }

	selected := s.Registry.Selected()
	report.Stats.Total = len(selected)

	if hook, ok := s.Registry.Hook(registry.PhaseBeforeAll); ok {
		res, err := s.runItem(ctx, hook)
		if err != nil {
			finish()
			return report, err
		}
		s.recordHook(res)
	}

	for _, batch := range Batches(len(selected), width) {
		g, gctx := errgroup.WithContext(ctx)
		for _, idx := range batch {
			test := selected[idx]
			g.Go(func() error {
				return s.runBatchMember(gctx, test)
			})
		}
		if err := g.Wait(); err != nil {
			finish()
			return report, err
		}
	}

	if hook, ok := s.Registry.Hook(registry.PhaseAfterAll); ok {
		res, err := s.runItem(ctx, hook)
		if err != nil {
			finish()
			return report, err
		}
		s.recordHook(res)
	}

	finish()
	return report, nil
}

// runBatchMember executes one test with its per-test hooks. The hooks
// run through the identical attempt-loop machinery and record their own
// results; a hook failure never fails the test it brackets.
func (s *Scheduler) runBatchMember(ctx context.Context, test registry.Test) error {
	if hook, ok := s.Registry.Hook(registry.PhaseBeforeEach); ok {
		res, err := s.runItem(ctx, hook)
		if err != nil {
			return err
		}
		s.recordHook(res)
	}

	res, err := s.runItem(ctx, test)
	if err != nil {
		return err
	}
	s.recordTest(res)

	if hook, ok := s.Registry.Hook(registry.PhaseAfterEach); ok {
		res, err := s.runItem(ctx, hook)
		if err != nil {
			return err
		}
		s.recordHook(res)
	}
	return nil
}

func (s *Scheduler) recordTest(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report.addTest(res)
}

func (s *Scheduler) recordHook(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report.addHook(res)
}
