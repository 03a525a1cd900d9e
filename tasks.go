package quadbench

import (
	"context"
)

// MultiplyTask multiplies every y value of s by factor. Each point is
// read, scaled and written back under one lock acquisition, so concurrent
// MultiplyTasks never lose an update.
func MultiplyTask(s *SynchronizedTabulatedFunction, factor float64) Task {
	return func(ctx context.Context) error {
		n := s.Count()
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return interrupted(err)
			}
			err := WithLock(s, func(t Table) error {
				y, err := t.Y(i)
				if err != nil {
					return err
				}
				return t.SetY(i, y*factor)
			})
			if err != nil {
				return err
			}
		}
		return nil
	}
}

// UpdateRangeTask replaces y with fn(i, y) for every index in [from, to).
// The read and the write are separate calls, so callers running several of
// these concurrently must give them disjoint ranges.
func UpdateRangeTask(t Table, from, to int, fn func(i int, y float64) float64) Task {
	return func(ctx context.Context) error {
		for i := from; i < to; i++ {
			if err := ctx.Err(); err != nil {
				return interrupted(err)
			}
			y, err := t.Y(i)
			if err != nil {
				return err
			}
			if err := t.SetY(i, fn(i, y)); err != nil {
				return err
			}
		}
		return nil
	}
}

// WriteTask sets every y value of t to value, rounds times over.
func WriteTask(t Table, value float64, rounds int) Task {
	return func(ctx context.Context) error {
		for r := 0; r < rounds; r++ {
			n := t.Count()
			for i := 0; i < n; i++ {
				if err := ctx.Err(); err != nil {
					return interrupted(err)
				}
				if err := t.SetY(i, value); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// ReadTask reads every point of t with per-call accessors, rounds times over,
// passing each one to visit (which may be nil).
func ReadTask(t Table, rounds int, visit func(i int, p Point)) Task {
	return func(ctx context.Context) error {
		for r := 0; r < rounds; r++ {
			n := t.Count()
			for i := 0; i < n; i++ {
				if err := ctx.Err(); err != nil {
					return interrupted(err)
				}
				x, err := t.X(i)
				if err != nil {
					return err
				}
				y, err := t.Y(i)
				if err != nil {
					return err
				}
				if visit != nil {
					visit(i, Point{X: x, Y: y})
				}
			}
		}
		return nil
	}
}

// SnapshotTask walks one snapshot of s, passing each point to visit.
func SnapshotTask(s *SynchronizedTabulatedFunction, visit func(p Point)) Task {
	return func(ctx context.Context) error {
		it := s.Iterator()
		for it.HasNext() {
			if err := ctx.Err(); err != nil {
				return interrupted(err)
			}
			p, err := it.Next()
			if err != nil {
				return err
			}
			if visit != nil {
				visit(p)
			}
		}
		return nil
	}
}

// IntegrateTask integrates the interpolation of s over its own bounds on pool
// with n partitions and hands the result to report.
func IntegrateTask(s *SynchronizedTabulatedFunction, pool *Pool, n int, report func(float64)) Task {
	return func(ctx context.Context) error {
		v, err := pool.Integrate(ctx, s.AsFunction(), s.LeftBound(), s.RightBound(), n)
		if err != nil {
			return err
		}
		if report != nil {
			report(v)
		}
		return nil
	}
}
