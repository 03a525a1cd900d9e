package quadbench

import (
	"context"
	"math"
	"time"
)

// Integrate approximates ∫ₐᵇ f dx with the composite Simpson rule over n
// sub-intervals, using the shared AmbientPool.
//
// The bounds may be given in either order; a > b yields the negated integral
// of [b, a] and a == b yields exactly 0 without scheduling any work. An odd n
// is raised to the next even number. n <= 0 fails with ErrInvalidArgument.
//
// The ambient pool has no cancellation path: callers that need to abandon a
// running integration should use IntegrateWithFixedPool with a context.
func Integrate(f Function, a, b float64, n int) (float64, error) {
	return AmbientPool().Integrate(context.Background(), f, a, b, n)
}

// IntegrateWithFixedPool is like Integrate but runs on a dedicated pool of
// exactly parallelism workers that exists only for the duration of the call.
//
// Both arguments are validated before the pool is created. The pool is shut
// down on every exit path, waiting up to DefaultShutdownTimeout (or the value
// given with WithShutdownTimeout) before forcing cancellation; teardown never
// fails the call. The returned duration covers the compute phase only, not
// pool startup or teardown.
func IntegrateWithFixedPool(ctx context.Context, f Function, a, b float64, n, parallelism int, opts ...PoolOption) (float64, time.Duration, error) {
	if err := validate(f, n); err != nil {
		return 0, 0, err
	}
	if parallelism <= 0 {
		return 0, 0, invalidArgument("parallelism must be positive, got %d", parallelism)
	}

	pool, err := NewPool(parallelism, opts...)
	if err != nil {
		return 0, 0, err
	}
	defer pool.Close()

	start := time.Now()
	v, err := pool.Integrate(ctx, f, a, b, n)
	elapsed := time.Since(start)
	if err != nil {
		return 0, elapsed, err
	}
	return v, elapsed, nil
}

// Integrate approximates ∫ₐᵇ f dx on p. See the package-level Integrate for
// argument handling. Cancelling ctx aborts the task tree and returns an error
// wrapping ErrInterrupted.
func (p *Pool) Integrate(ctx context.Context, f Function, a, b float64, n int) (float64, error) {
	if err := validate(f, n); err != nil {
		return 0, err
	}
	if a == b {
		return 0, nil
	}

	sign := 1.0
	if a > b {
		a, b = b, a
		sign = -1
	}

	n = evenCeil(n)
	task := simpsonTask{f: f, a: a, b: b, n: n, threshold: thresholdFor(n)}
	tr := newTree(ctx, p)

	start := time.Now()
	v, err := p.submit(ctx, tr, func() (float64, error) {
		return task.compute(tr)
	})
	p.metrics.integration(time.Since(start), err)
	if err != nil {
		p.logger.Debug("integration failed", "interval", describe(a, b, n), "error", err)
		return 0, err
	}
	return sign * v, nil
}

func validate(f Function, n int) error {
	if f == nil {
		return invalidArgument("function is nil")
	}
	if n <= 0 {
		return invalidArgument("partition count must be positive, got %d", n)
	}
	// n is rounded up to even; MaxInt would wrap.
	if n > math.MaxInt-1 {
		return invalidArgument("partition count too large, got %d", n)
	}
	return nil
}
