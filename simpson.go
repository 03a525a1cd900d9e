package quadbench

// Composite Simpson's rule:
//
//	∫ₐᵇ f dx ≈ h/3 · [f(x₀) + 4f(x₁) + 2f(x₂) + 4f(x₃) + … + 4f(xₙ₋₁) + f(xₙ)]
//
// with h = (b-a)/n and n even. The error of the composite rule is
// O(h⁴·f⁽⁴⁾), so polynomials up to degree three are integrated exactly
// (modulo rounding).

const (
	// minThreshold is the smallest partition count that is always integrated
	// sequentially.
	minThreshold = 5000

	// thresholdDivisor scales the sequential cutoff with the requested n so
	// that large integrations fork into at most ~50 leaves per level.
	thresholdDivisor = 50

	// checkEvery is how many samples a sequential pass evaluates between
	// abort checks.
	checkEvery = 4096
)

// evenCeil rounds n up to the next even number.
func evenCeil(n int) int {
	if n%2 != 0 {
		return n + 1
	}
	return n
}

// thresholdFor returns the sequential cutoff for a root partition count.
// It is computed once per integration and inherited unchanged by every
// sub-task.
func thresholdFor(n int) int {
	return max(minThreshold, n/thresholdDivisor)
}

// simpsonTask integrates f over [a, b] with n (even) sub-intervals.
type simpsonTask struct {
	f         Function
	a, b      float64
	n         int
	threshold int
}

// split halves the interval and the partition count. Halves are rounded up
// to even so every leaf is a valid composite Simpson pass.
func (t simpsonTask) split() (left, right simpsonTask) {
	mid := t.a + (t.b-t.a)/2
	half := evenCeil(t.n / 2)
	left = simpsonTask{f: t.f, a: t.a, b: mid, n: half, threshold: t.threshold}
	right = simpsonTask{f: t.f, a: mid, b: t.b, n: half, threshold: t.threshold}
	return left, right
}

// compute runs the task on tr's pool: small tasks sequentially, large ones by
// forking the left half and computing the right half on this goroutine.
func (t simpsonTask) compute(tr *tree) (float64, error) {
	if err := tr.check(); err != nil {
		return 0, err
	}
	if t.n <= t.threshold {
		return t.leaf(tr)
	}

	left, right := t.split()
	fut := tr.pool.fork(func() (float64, error) {
		return left.compute(tr)
	})

	rv, rerr := right.compute(tr)
	lv, lerr := tr.pool.join(fut)

	switch {
	case lerr != nil:
		tr.abort(lerr)
		return 0, tr.cause()
	case rerr != nil:
		tr.abort(rerr)
		return 0, tr.cause()
	}
	return lv + rv, nil
}

// leaf runs the sequential pass. A panic from f aborts the whole tree so that
// sibling tasks stop instead of finishing work nobody will read.
func (t simpsonTask) leaf(tr *tree) (v float64, err error) {
	tr.pool.metrics.leaf()
	defer func() {
		if r := recover(); r != nil {
			tr.abort(newPanicError(r))
			v, err = 0, tr.cause()
		}
	}()
	return simpson(t.f, t.a, t.b, t.n, tr)
}

// simpson is the sequential composite Simpson pass. tr may be nil; when set,
// the pass stops early once the tree is aborted.
func simpson(f Function, a, b float64, n int, tr *tree) (float64, error) {
	h := (b - a) / float64(n)
	sum := f(a) + f(b)

	for i := 1; i < n; i++ {
		if tr != nil && i%checkEvery == 0 {
			if err := tr.check(); err != nil {
				return 0, err
			}
		}
		x := a + float64(i)*h
		if i%2 == 0 {
			sum += 2 * f(x)
		} else {
			sum += 4 * f(x)
		}
	}

	return sum * h / 3, nil
}
