package quadbench

import (
	"fmt"
	"math"
	"sort"
)

// Point is one (x, y) sample of a tabulated function.
type Point struct {
	X float64
	Y float64
}

// Table is the read/write surface shared by TabulatedFunction and
// SynchronizedTabulatedFunction. Harness tasks are written against it.
type Table interface {
	Count() int
	X(i int) (float64, error)
	Y(i int) (float64, error)
	SetY(i int, v float64) error
	LeftBound() float64
	RightBound() float64
	IndexOfX(x float64) int
	IndexOfY(y float64) int
	Apply(x float64) float64
}

// TabulatedFunction is an ordered table of samples with strictly increasing x.
// The x values are fixed at construction; y values may be changed with SetY.
//
// TabulatedFunction is not safe for concurrent use. Wrap it with Synchronize
// before sharing it between goroutines, and stop using it directly while it
// is wrapped.
type TabulatedFunction struct {
	xs []float64
	ys []float64
}

// NewTabulatedFunction builds a table from parallel slices. At least two
// points are required and xs must be strictly increasing. The slices are
// copied.
func NewTabulatedFunction(xs, ys []float64) (*TabulatedFunction, error) {
	if len(xs) != len(ys) {
		return nil, invalidArgument("got %d x values and %d y values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, invalidArgument("need at least 2 points, got %d", len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, invalidArgument("x values must be strictly increasing (x[%d]=%g, x[%d]=%g)",
				i-1, xs[i-1], i, xs[i])
		}
	}

	return &TabulatedFunction{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}, nil
}

// Tabulate samples f at count evenly spaced points on [from, to].
// The bounds may be given in either order.
func Tabulate(f Function, from, to float64, count int) (*TabulatedFunction, error) {
	if f == nil {
		return nil, invalidArgument("function is nil")
	}
	if count < 2 {
		return nil, invalidArgument("need at least 2 points, got %d", count)
	}
	if !isFinite(from) || !isFinite(to) {
		return nil, invalidArgument("bounds must be finite, got [%g, %g]", from, to)
	}
	if from == to {
		return nil, invalidArgument("empty interval [%g, %g]", from, to)
	}
	if from > to {
		from, to = to, from
	}

	xs := make([]float64, count)
	ys := make([]float64, count)
	step := (to - from) / float64(count-1)
	for i := range xs {
		xs[i] = from + float64(i)*step
		ys[i] = f(xs[i])
	}
	xs[count-1] = to
	ys[count-1] = f(to)

	return &TabulatedFunction{xs: xs, ys: ys}, nil
}

// Count returns the number of points.
func (t *TabulatedFunction) Count() int { return len(t.xs) }

func (t *TabulatedFunction) checkIndex(i int) error {
	if i < 0 || i >= len(t.xs) {
		return fmt.Errorf("%w: index %d, count %d", ErrIndexOutOfBounds, i, len(t.xs))
	}
	return nil
}

// X returns the abscissa of point i.
func (t *TabulatedFunction) X(i int) (float64, error) {
	if err := t.checkIndex(i); err != nil {
		return 0, err
	}
	return t.xs[i], nil
}

// Y returns the ordinate of point i.
func (t *TabulatedFunction) Y(i int) (float64, error) {
	if err := t.checkIndex(i); err != nil {
		return 0, err
	}
	return t.ys[i], nil
}

// SetY replaces the ordinate of point i.
func (t *TabulatedFunction) SetY(i int, v float64) error {
	if err := t.checkIndex(i); err != nil {
		return err
	}
	t.ys[i] = v
	return nil
}

// LeftBound returns the smallest x.
func (t *TabulatedFunction) LeftBound() float64 { return t.xs[0] }

// RightBound returns the largest x.
func (t *TabulatedFunction) RightBound() float64 { return t.xs[len(t.xs)-1] }

// IndexOfX returns the index of the point whose x equals x exactly, or -1.
func (t *TabulatedFunction) IndexOfX(x float64) int {
	i := sort.SearchFloat64s(t.xs, x)
	if i < len(t.xs) && t.xs[i] == x {
		return i
	}
	return -1
}

// IndexOfY returns the index of the first point whose y equals y exactly, or -1.
func (t *TabulatedFunction) IndexOfY(y float64) int {
	for i, v := range t.ys {
		if v == y {
			return i
		}
	}
	return -1
}

// floorIndex returns the index of the last point with x <= target, clamped
// so that floorIndex and floorIndex+1 are both valid.
func (t *TabulatedFunction) floorIndex(x float64) int {
	i := sort.SearchFloat64s(t.xs, x)
	if i < len(t.xs) && t.xs[i] == x {
		return min(i, len(t.xs)-2)
	}
	return min(max(i-1, 0), len(t.xs)-2)
}

// Apply evaluates the table at x: exact samples are returned as is, points
// between samples are linearly interpolated and points outside the bounds are
// linearly extrapolated from the two nearest samples.
func (t *TabulatedFunction) Apply(x float64) float64 {
	if i := t.IndexOfX(x); i != -1 {
		return t.ys[i]
	}
	i := t.floorIndex(x)
	return interpolate(x, t.xs[i], t.xs[i+1], t.ys[i], t.ys[i+1])
}

func interpolate(x, x0, x1, y0, y1 float64) float64 {
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// Points returns a copy of all samples in order.
func (t *TabulatedFunction) Points() []Point {
	pts := make([]Point, len(t.xs))
	for i := range t.xs {
		pts[i] = Point{X: t.xs[i], Y: t.ys[i]}
	}
	return pts
}

// AsFunction exposes the table's interpolation as a Function.
// The result reads the live table, so it inherits the table's concurrency
// rules: use the synchronized wrapper's AsFunction when y values may change
// during integration.
func (t *TabulatedFunction) AsFunction() Function {
	return t.Apply
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
