package quadbench

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Task is a unit of work run by a harness worker goroutine.
// Implementations should return promptly once ctx is cancelled.
type Task func(ctx context.Context) error

// Harness runs groups of Tasks on dedicated goroutines, one per task, and
// waits for them with different barrier primitives. The zero value is ready
// to use and logs to slog.Default().
type Harness struct {
	Logger  *slog.Logger
	Metrics *Metrics
}

func (h Harness) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// RunJoined starts every task and then joins the workers one by one, in task
// order. It returns once the last worker has finished, with the task errors
// joined in order. If ctx is cancelled while joining, RunJoined stops waiting
// and returns an error wrapping ErrInterrupted; workers are expected to
// observe the same cancellation.
func (h Harness) RunJoined(ctx context.Context, tasks ...Task) error {
	const mode = "join"
	log, start := h.begin(mode, len(tasks))

	errs := make([]error, len(tasks))
	done := make([]chan struct{}, len(tasks))
	for i, task := range tasks {
		done[i] = make(chan struct{})
		go func() {
			defer close(done[i])
			errs[i] = h.run(ctx, mode, task)
		}()
	}

	for i := range done {
		select {
		case <-done[i]:
		case <-ctx.Done():
			err := interrupted(ctx.Err())
			log.Warn("harness interrupted", "joined", i, "error", err)
			return err
		}
	}

	return h.end(log, start, errors.Join(errs...))
}

// RunCountdown starts every task and waits on a CountDownLatch that each
// worker decrements when it finishes, whether it returned, failed or panicked.
func (h Harness) RunCountdown(ctx context.Context, tasks ...Task) error {
	const mode = "countdown"
	log, start := h.begin(mode, len(tasks))

	errs := make([]error, len(tasks))
	latch := NewCountDownLatch(len(tasks))
	for i, task := range tasks {
		go func() {
			defer latch.CountDown()
			errs[i] = h.run(ctx, mode, task)
		}()
	}

	if err := latch.Await(ctx); err != nil {
		log.Warn("harness interrupted", "remaining", latch.Count(), "error", err)
		return err
	}

	return h.end(log, start, errors.Join(errs...))
}

// RunReadWrite runs reader and writer concurrently. The first failure cancels
// the context passed to the other task.
func (h Harness) RunReadWrite(ctx context.Context, reader, writer Task) error {
	const mode = "readwrite"
	log, start := h.begin(mode, 2)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.run(gctx, mode, reader) })
	g.Go(func() error { return h.run(gctx, mode, writer) })

	return h.end(log, start, g.Wait())
}

// run executes one task, turning a panic into a *PanicError.
func (h Harness) run(ctx context.Context, mode string, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
		h.Metrics.task(mode, err)
	}()
	return task(ctx)
}

func (h Harness) begin(mode string, tasks int) (*slog.Logger, time.Time) {
	log := h.logger().With("run_id", uuid.NewString(), "mode", mode)
	log.Debug("harness started", "tasks", tasks)
	return log, time.Now()
}

func (h Harness) end(log *slog.Logger, start time.Time, err error) error {
	if err != nil {
		log.Warn("harness finished with errors", "elapsed", time.Since(start), "error", err)
		return err
	}
	log.Debug("harness finished", "elapsed", time.Since(start))
	return nil
}

// RunJoined runs tasks with a zero Harness. See Harness.RunJoined.
func RunJoined(ctx context.Context, tasks ...Task) error {
	return Harness{}.RunJoined(ctx, tasks...)
}

// RunCountdown runs tasks with a zero Harness. See Harness.RunCountdown.
func RunCountdown(ctx context.Context, tasks ...Task) error {
	return Harness{}.RunCountdown(ctx, tasks...)
}

// RunReadWrite runs a reader/writer pair with a zero Harness.
func RunReadWrite(ctx context.Context, reader, writer Task) error {
	return Harness{}.RunReadWrite(ctx, reader, writer)
}
