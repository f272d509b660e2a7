package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one unit of periodic work, typically a full monitor run.
type Job func(ctx context.Context) error

// CycleResult holds the outcome of one scheduled run of a [Job].
type CycleResult struct {
	// Cycle counts runs since Start, starting at 1.
	Cycle uint64

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is how long the run took.
	Duration time.Duration

	// Err is the error returned by the job, or a panic turned into an error.
	Err error
}

// Scheduler runs a [Job] periodically.
//
// The job runs immediately on start and then once per interval. Runs never
// overlap: a run that takes longer than the interval delays the next one,
// and ticks missed in the meantime are dropped. Each outcome is emitted on
// the [Scheduler.Results] channel.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	job      Job
	interval time.Duration
	results  chan CycleResult
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	cycle uint64
}

// NewScheduler creates a new [Scheduler].
//
// Parameters:
//   - job: Work to run every cycle
//   - interval: Time between the starts of two runs
//   - logger: Logger for scheduler events (panic recovery, etc.)
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Results are available via [Scheduler.Results].
func NewScheduler(job Job, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		job:      job,
		interval: interval,
		results:  make(chan CycleResult, 1),
		logger:   logger,
	}
}

// Results returns a receive-only channel that emits [CycleResult] values.
//
// The channel is closed when the scheduler stops. Consumers should read from
// this channel until it is closed; the next run waits until the previous
// result has been received.
func (s *Scheduler) Results() <-chan CycleResult {
	return s.results
}

// Start begins the run loop in a background goroutine.
//
// Start is non-blocking and returns immediately. If ctx is nil,
// context.Background() is used as the parent context. Start is idempotent;
// subsequent calls after the first are no-ops. If Stop was called before
// Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		if !s.runCycle(runCtx) {
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if !s.runCycle(runCtx) {
					return
				}
			}
		}
	}()
}

// Stop halts the scheduler and waits for the running job to return.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	// ensure channel is closed even if Start() was never called
	s.closeOnce.Do(func() { close(s.results) })
}

// runCycle runs the job once and delivers the result.
// It reports false when the context ended before the result was delivered.
func (s *Scheduler) runCycle(ctx context.Context) bool {
	s.cycle++
	result := CycleResult{
		Cycle:     s.cycle,
		StartedAt: time.Now(),
	}
	result.Err = s.safeRun(ctx)
	result.Duration = time.Since(result.StartedAt)

	select {
	case s.results <- result:
		return true
	case <-ctx.Done():
		return false
	}
}

// safeRun calls the job with panic recovery.
// If the job panics, it logs the full stack trace with a correlation ID
// and returns an error containing the ID.
func (s *Scheduler) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			s.logger.Error("job panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)

			err = fmt.Errorf("job panic (correlation_id: %s)", correlationID)
		}
	}()
	return s.job(ctx)
}
