package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopJob(context.Context) error { return nil }

// TestScheduler_StopBeforeStart verifies that calling Stop() on a scheduler
// that was never started does not panic and is a safe no-op.
func TestScheduler_StopBeforeStart(t *testing.T) {
	scheduler := NewScheduler(noopJob, time.Minute, testLogger())

	// this must not panic
	scheduler.Stop()
}

// TestScheduler_StopTwice verifies that Stop() is idempotent and can be
// called multiple times without panic or deadlock.
func TestScheduler_StopTwice(t *testing.T) {
	scheduler := NewScheduler(noopJob, time.Minute, testLogger())
	scheduler.Start(context.Background())

	// both calls must complete without panic or deadlock
	scheduler.Stop()
	scheduler.Stop()
}

// TestScheduler_StopAfterStart verifies the normal lifecycle: Start followed
// by Stop results in clean shutdown with the results channel closed.
func TestScheduler_StopAfterStart(t *testing.T) {
	scheduler := NewScheduler(noopJob, time.Minute, testLogger())
	scheduler.Start(context.Background())

	// drain results channel to prevent blocking
	go func() {
		for range scheduler.Results() {
		}
	}()

	time.Sleep(50 * time.Millisecond)

	scheduler.Stop()

	select {
	case _, ok := <-scheduler.Results():
		if ok {
			t.Error("expected results channel to be closed after Stop()")
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for results channel to close")
	}
}

// TestScheduler_ConcurrentStartStop verifies that calling Start() and Stop()
// concurrently does not cause a race condition or panic.
// Run with: go test -race ./internal/poller/...
func TestScheduler_ConcurrentStartStop(t *testing.T) {
	// run multiple iterations to increase chance of catching races
	for i := 0; i < 100; i++ {
		scheduler := NewScheduler(noopJob, time.Minute, testLogger())

		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			scheduler.Start(context.Background())
		}()

		go func() {
			defer wg.Done()
			scheduler.Stop()
		}()

		wg.Wait()

		// drain any remaining results
		for range scheduler.Results() {
		}
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	var runs atomic.Int32
	job := func(context.Context) error {
		runs.Add(1)
		return nil
	}

	scheduler := NewScheduler(job, time.Hour, testLogger())
	scheduler.Start(context.Background())
	scheduler.Start(context.Background())

	<-scheduler.Results()
	scheduler.Stop()

	if got := runs.Load(); got != 1 {
		t.Errorf("job ran %d times, want 1", got)
	}
}

// TestScheduler_StopBeforeStartThenStart verifies that Start after Stop is
// a no-op and the job never runs.
func TestScheduler_StopBeforeStartThenStart(t *testing.T) {
	var runs atomic.Int32
	job := func(context.Context) error {
		runs.Add(1)
		return nil
	}

	scheduler := NewScheduler(job, time.Millisecond, testLogger())
	scheduler.Stop()
	scheduler.Start(context.Background())

	time.Sleep(20 * time.Millisecond)

	if got := runs.Load(); got != 0 {
		t.Errorf("job ran %d times after Stop, want 0", got)
	}
}

func TestScheduler_ImmediateRunOnStart(t *testing.T) {
	scheduler := NewScheduler(noopJob, time.Hour, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	select {
	case result := <-scheduler.Results():
		if result.Cycle != 1 {
			t.Errorf("Cycle = %d, want 1", result.Cycle)
		}
		if result.Err != nil {
			t.Errorf("Err = %v, want nil", result.Err)
		}
		if result.StartedAt.IsZero() {
			t.Error("StartedAt is zero")
		}
	case <-time.After(time.Second):
		t.Fatal("job did not run immediately on start")
	}
}

func TestScheduler_RunsEveryInterval(t *testing.T) {
	scheduler := NewScheduler(noopJob, 20*time.Millisecond, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	for want := uint64(1); want <= 3; want++ {
		select {
		case result := <-scheduler.Results():
			if result.Cycle != want {
				t.Errorf("Cycle = %d, want %d", result.Cycle, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for cycle %d", want)
		}
	}
}

func TestScheduler_JobErrorIsReported(t *testing.T) {
	job := func(context.Context) error {
		return errors.New("twitter: 401")
	}

	scheduler := NewScheduler(job, time.Hour, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	result := <-scheduler.Results()
	if result.Err == nil || result.Err.Error() != "twitter: 401" {
		t.Errorf("Err = %v, want job error", result.Err)
	}
}

// TestScheduler_RunsDoNotOverlap verifies that a job slower than the
// interval is never started twice at the same time.
func TestScheduler_RunsDoNotOverlap(t *testing.T) {
	var running, maxRunning atomic.Int32
	job := func(context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		time.Sleep(30 * time.Millisecond)
		return nil
	}

	scheduler := NewScheduler(job, 5*time.Millisecond, testLogger())
	scheduler.Start(context.Background())

	for i := 0; i < 3; i++ {
		<-scheduler.Results()
	}
	scheduler.Stop()

	if got := maxRunning.Load(); got != 1 {
		t.Errorf("max concurrent runs = %d, want 1", got)
	}
}

func TestScheduler_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	scheduler := NewScheduler(noopJob, time.Minute, testLogger())
	scheduler.Start(ctx)

	go func() {
		for range scheduler.Results() {
		}
	}()

	cancel()

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Stop() did not complete after parent context cancellation")
	}
}

// TestScheduler_StopCancelsRunningJob verifies that Stop cancels the context
// handed to a job in progress.
func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	job := func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}

	scheduler := NewScheduler(job, time.Hour, testLogger())
	scheduler.Start(context.Background())
	<-started

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not cancel the running job")
	}
}

func TestScheduler_JobPanicRecovery(t *testing.T) {
	job := func(context.Context) error {
		panic("job panic: simulated failure")
	}

	scheduler := NewScheduler(job, time.Hour, testLogger())
	scheduler.Start(context.Background())

	var result CycleResult
	select {
	case result = <-scheduler.Results():
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for cycle result")
	}

	scheduler.Stop()

	if result.Err == nil {
		t.Fatal("Err = nil, want error describing panic")
	}
	errMsg := result.Err.Error()
	if !strings.Contains(errMsg, "job panic") {
		t.Errorf("Err = %q, want to contain 'job panic'", errMsg)
	}
	if !strings.Contains(errMsg, "correlation_id") {
		t.Errorf("Err = %q, want to contain 'correlation_id'", errMsg)
	}
}

func TestNewScheduler_NilLogger(t *testing.T) {
	scheduler := NewScheduler(noopJob, time.Minute, nil)
	if scheduler.logger == nil {
		t.Error("logger = nil, want slog.Default()")
	}
	scheduler.Stop()
}
