package quadbench

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrInvalidArgument is returned when a partition count or parallelism
	// level is not positive, or a table is constructed from bad samples.
	ErrInvalidArgument = errors.New("quadbench: invalid argument")

	// ErrIndexOutOfBounds is returned by indexed table access.
	ErrIndexOutOfBounds = errors.New("quadbench: index out of bounds")

	// ErrIteratorExhausted is returned by SnapshotIterator.Next past the last point.
	ErrIteratorExhausted = errors.New("quadbench: iterator exhausted")

	// ErrInterrupted is returned when a wait was cancelled through its context.
	// It always wraps the context error as well.
	ErrInterrupted = errors.New("quadbench: interrupted")

	// ErrTaskPanicked is returned when a Function or Task panicked inside a worker.
	ErrTaskPanicked = errors.New("quadbench: task panicked")

	// ErrPoolShutdown is returned when work is submitted to a pool after Shutdown.
	ErrPoolShutdown = errors.New("quadbench: pool is shut down")
)

// PanicError carries a value recovered from a worker goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTaskPanicked, e.Value)
}

func (e *PanicError) Unwrap() error { return ErrTaskPanicked }

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func interrupted(cause error) error {
	return fmt.Errorf("%w: %w", ErrInterrupted, cause)
}
