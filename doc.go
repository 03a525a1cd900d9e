// Package quadbench provides parallel numerical integration and a
// concurrency-safe tabulated function.
//
// # Overview
//
// quadbench approximates definite integrals with the composite Simpson rule,
// splitting the interval recursively across a fork/join worker pool, and
// wraps mutable tabulated functions so that many goroutines can read and
// update them at once.
//
// # Architecture
//
// The package components:
//
//   - function.go     - Function type and stock functions
//   - simpson.go      - Recursive Simpson task
//   - pool.go         - Fork/join worker pool (ambient and dedicated)
//   - integrator.go   - Integrate, IntegrateWithFixedPool
//   - tabulated.go    - TabulatedFunction
//   - synchronized.go - SynchronizedTabulatedFunction, WithLock, snapshots
//   - latch.go        - CountDownLatch
//   - harness.go      - Join, countdown and reader/writer task runners
//   - tasks.go        - Stock harness tasks over tables
//   - metrics.go      - Prometheus collectors
//   - errors.go       - Sentinel errors and PanicError
//   - profile.go      - Parallelism profiles and USL fitting
//   - assertions.go   - Test helpers for integration properties
//
// The quadbench command (cmd/quadbench) drives all of the above from the
// shell.
//
// # Quick Start
//
// Integrate on the shared pool:
//
//	v, err := quadbench.Integrate(math.Sin, 0, math.Pi, 100_000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("∫sin = %.12f\n", v) // ≈ 2
//
// Integrate on a dedicated pool of four workers, torn down before return:
//
//	v, elapsed, err := quadbench.IntegrateWithFixedPool(ctx, math.Exp, 0, 1, 1_000_000, 4)
//
// # Partition Counts
//
// Composite Simpson needs an even number of sub-intervals, so an odd n is
// raised by one. n <= 0 and parallelism <= 0 fail with ErrInvalidArgument;
// nothing else is clamped.
//
// A task with n above the threshold max(5000, n₀/50), where n₀ is the
// top-level count, forks its left half and computes its right half itself.
// The threshold is fixed per integration.
//
// # Pools
//
// AmbientPool is created lazily with GOMAXPROCS workers and lives for the
// whole process. IntegrateWithFixedPool creates a pool per call and always
// shuts it down: it waits up to DefaultShutdownTimeout for the workers and
// then cancels whatever is still running.
//
// A panic in the integrand aborts the whole task tree and is returned as a
// *PanicError (errors.Is(err, ErrTaskPanicked)).
//
// # Tabulated Functions
//
//	table, _ := quadbench.Tabulate(math.Sin, 0, math.Pi, 1000)
//	shared := quadbench.Synchronize(table)
//
//	// Per-call operations lock once each.
//	y, _ := shared.Y(10)
//
//	// Composite operations lock once for the whole closure.
//	err := quadbench.WithLock(shared, func(t quadbench.Table) error {
//	    y, err := t.Y(10)
//	    if err != nil {
//	        return err
//	    }
//	    return t.SetY(10, y*2)
//	})
//
//	// Snapshot iteration never observes later writes.
//	for it := shared.Iterator(); it.HasNext(); {
//	    p, _ := it.Next()
//	    _ = p
//	}
//
// The lock is not reentrant: inside WithLock use the Table argument, never
// the accessor itself.
//
// # Harness
//
// Harness runs one goroutine per Task and waits with ordered joins
// (RunJoined), a CountDownLatch (RunCountdown) or an errgroup
// (RunReadWrite).
//
// # Testing
//
//	func TestScaling(t *testing.T) {
//	    results, _ := quadbench.Profile(ctx, math.Sin, 0, math.Pi, 1<<20, quadbench.DefaultProfileConfig())
//	    quadbench.AssertAgreement(t, results, quadbench.DefaultAssertionConfig())
//	}
package quadbench
