package quadbench

import (
	"errors"
	"math"
	"testing"
)

func TestNewTabulatedFunction_Validation(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
	}{
		{"length mismatch", []float64{0, 1}, []float64{0}},
		{"single point", []float64{0}, []float64{1}},
		{"empty", nil, nil},
		{"not increasing", []float64{0, 2, 1}, []float64{0, 0, 0}},
		{"duplicate x", []float64{0, 1, 1}, []float64{0, 0, 0}},
		{"NaN x", []float64{0, math.NaN()}, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTabulatedFunction(tt.xs, tt.ys); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestNewTabulatedFunction_CopiesInput(t *testing.T) {
	xs := []float64{0, 1, 2}
	ys := []float64{5, 6, 7}
	table, err := NewTabulatedFunction(xs, ys)
	if err != nil {
		t.Fatalf("NewTabulatedFunction: %v", err)
	}

	xs[0], ys[0] = -100, -100
	if x, _ := table.X(0); x != 0 {
		t.Errorf("X(0) = %g after caller mutation, want 0", x)
	}
	if y, _ := table.Y(0); y != 5 {
		t.Errorf("Y(0) = %g after caller mutation, want 5", y)
	}
}

func TestTabulate(t *testing.T) {
	table, err := Tabulate(Power(2), 4, 0, 5)
	if err != nil {
		t.Fatalf("Tabulate: %v", err)
	}
	if table.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", table.Count())
	}
	if table.LeftBound() != 0 || table.RightBound() != 4 {
		t.Errorf("bounds = [%g, %g], want [0, 4]", table.LeftBound(), table.RightBound())
	}
	for i, want := range []float64{0, 1, 4, 9, 16} {
		if y, _ := table.Y(i); y != want {
			t.Errorf("Y(%d) = %g, want %g", i, y, want)
		}
	}

	if _, err := Tabulate(Identity(), 0, 1, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("count=1 error = %v, want ErrInvalidArgument", err)
	}
	if _, err := Tabulate(Identity(), 2, 2, 10); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty interval error = %v, want ErrInvalidArgument", err)
	}
	if _, err := Tabulate(nil, 0, 1, 10); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil function error = %v, want ErrInvalidArgument", err)
	}

	calls := 0
	counting := func(x float64) float64 { calls++; return x }
	for _, bounds := range [][2]float64{
		{math.NaN(), 1},
		{0, math.NaN()},
		{0, math.Inf(1)},
		{math.Inf(-1), 0},
		{math.Inf(-1), math.Inf(1)},
	} {
		if _, err := Tabulate(counting, bounds[0], bounds[1], 10); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("bounds [%g, %g] error = %v, want ErrInvalidArgument", bounds[0], bounds[1], err)
		}
	}
	if calls != 0 {
		t.Errorf("function called %d times for non-finite bounds, want 0", calls)
	}
}

func TestTabulatedFunction_IndexBounds(t *testing.T) {
	table, _ := NewTabulatedFunction([]float64{0, 1, 2}, []float64{0, 1, 4})

	for _, i := range []int{-1, 3, 100} {
		if _, err := table.X(i); !errors.Is(err, ErrIndexOutOfBounds) {
			t.Errorf("X(%d) error = %v, want ErrIndexOutOfBounds", i, err)
		}
		if _, err := table.Y(i); !errors.Is(err, ErrIndexOutOfBounds) {
			t.Errorf("Y(%d) error = %v, want ErrIndexOutOfBounds", i, err)
		}
		if err := table.SetY(i, 1); !errors.Is(err, ErrIndexOutOfBounds) {
			t.Errorf("SetY(%d) error = %v, want ErrIndexOutOfBounds", i, err)
		}
	}

	if err := table.SetY(2, 9); err != nil {
		t.Fatalf("SetY: %v", err)
	}
	if y, _ := table.Y(2); y != 9 {
		t.Errorf("Y(2) = %g after SetY, want 9", y)
	}
}

func TestTabulatedFunction_IndexOf(t *testing.T) {
	table, _ := NewTabulatedFunction([]float64{-1, 0, 2.5, 7}, []float64{3, 1, 3, 8})

	if i := table.IndexOfX(2.5); i != 2 {
		t.Errorf("IndexOfX(2.5) = %d, want 2", i)
	}
	if i := table.IndexOfX(2.4); i != -1 {
		t.Errorf("IndexOfX(2.4) = %d, want -1", i)
	}
	if i := table.IndexOfY(3); i != 0 {
		t.Errorf("IndexOfY(3) = %d, want first match 0", i)
	}
	if i := table.IndexOfY(42); i != -1 {
		t.Errorf("IndexOfY(42) = %d, want -1", i)
	}
}

func TestTabulatedFunction_Apply(t *testing.T) {
	// y = 2x + 1 sampled at uneven x.
	table, _ := NewTabulatedFunction([]float64{0, 1, 3, 6}, []float64{1, 3, 7, 13})

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"exact sample", 3, 7},
		{"left bound", 0, 1},
		{"right bound", 6, 13},
		{"interpolated", 2, 5},
		{"interpolated last segment", 4.5, 10},
		{"extrapolated left", -2, -3},
		{"extrapolated right", 10, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Apply(tt.x); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Apply(%g) = %g, want %g", tt.x, got, tt.want)
			}
		})
	}
}

func TestTabulatedFunction_PointsIsACopy(t *testing.T) {
	table, _ := NewTabulatedFunction([]float64{0, 1}, []float64{2, 3})
	pts := table.Points()
	pts[0].Y = 99

	if y, _ := table.Y(0); y != 2 {
		t.Errorf("Y(0) = %g after mutating Points(), want 2", y)
	}
}

func TestTabulatedFunction_IntegrateInterpolation(t *testing.T) {
	// A piecewise-linear table of x² on [0,1]: the trapezoid sum of the samples
	// is the exact integral of the interpolant.
	table, err := Tabulate(Power(2), 0, 1, 11)
	if err != nil {
		t.Fatalf("Tabulate: %v", err)
	}

	var want float64
	pts := table.Points()
	for i := 1; i < len(pts); i++ {
		want += (pts[i].X - pts[i-1].X) * (pts[i].Y + pts[i-1].Y) / 2
	}

	got, err := Integrate(table.AsFunction(), 0, 1, 100_000)
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("∫ interpolant = %.12f, want %.12f", got, want)
	}
}
