package quadbench

import (
	"math"
	"testing"
)

func TestSimpson_ExactForCubics(t *testing.T) {
	tests := []struct {
		name string
		f    Function
		a, b float64
		n    int
		want float64
	}{
		{"constant", Constant(3), -1, 1, 2, 6},
		{"linear", Identity(), 0, 1, 2, 0.5},
		{"quadratic", func(x float64) float64 { return x * x }, 0, 3, 2, 9},
		{"cubic", func(x float64) float64 { return x * x * x }, 0, 2, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := simpson(tt.f, tt.a, tt.b, tt.n, nil)
			if err != nil {
				t.Fatalf("simpson: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("simpson = %.15f, want %.15f", got, tt.want)
			}
		})
	}
}

func TestEvenCeil(t *testing.T) {
	for n, want := range map[int]int{1: 2, 2: 2, 3: 4, 5000: 5000, 5001: 5002} {
		if got := evenCeil(n); got != want {
			t.Errorf("evenCeil(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestThresholdFor(t *testing.T) {
	tests := []struct{ n, want int }{
		{2, 5000},
		{250_000, 5000},
		{1_000_000, 20_000},
		{10_000_000, 200_000},
	}
	for _, tt := range tests {
		if got := thresholdFor(tt.n); got != tt.want {
			t.Errorf("thresholdFor(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestSimpsonTask_SplitKeepsLeavesEven(t *testing.T) {
	task := simpsonTask{f: Identity(), a: 0, b: 1, n: 10_002, threshold: 5000}
	left, right := task.split()

	if left.n != 5002 || right.n != 5002 {
		t.Errorf("split n = (%d, %d), want (5002, 5002)", left.n, right.n)
	}
	if left.b != right.a || left.a != 0 || right.b != 1 {
		t.Errorf("split intervals [%g,%g] [%g,%g] do not tile [0,1]", left.a, left.b, right.a, right.b)
	}
	if left.threshold != task.threshold || right.threshold != task.threshold {
		t.Error("threshold must be inherited unchanged")
	}
}
