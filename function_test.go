package quadbench

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestStockFunctions(t *testing.T) {
	tests := []struct {
		name string
		f    Function
		x    float64
		want float64
	}{
		{"constant", Constant(2.5), 100, 2.5},
		{"identity", Identity(), -3, -3},
		{"power", Power(3), 2, 8},
		{"sin", Sin(), math.Pi / 2, 1},
		{"cos", Cos(), 0, 1},
		{"exp", Exp(), 1, math.E},
		{"compose", Compose(Power(2), Sin()), math.Pi / 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f(tt.x); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("f(%g) = %g, want %g", tt.x, got, tt.want)
			}
		})
	}
}

func TestLookupFunction(t *testing.T) {
	names := FunctionNames()
	if !slices.IsSorted(names) {
		t.Errorf("FunctionNames() not sorted: %v", names)
	}

	for _, name := range names {
		f, err := LookupFunction(name)
		if err != nil {
			t.Errorf("LookupFunction(%q): %v", name, err)
			continue
		}
		if v := f(0.5); math.IsNaN(v) {
			t.Errorf("%s(0.5) is NaN", name)
		}
	}

	if _, err := LookupFunction("tan"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown function error = %v, want ErrInvalidArgument", err)
	}
}
