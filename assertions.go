package quadbench

import (
	"context"
	"fmt"
	"math"
	"testing"
)

// AssertionConfig contains tolerances for integration properties.
type AssertionConfig struct {
	// Maximum spread between results computed at different parallelism levels
	AgreementTolerance float64

	// Tolerance for antisymmetry: I(a,b) + I(b,a) ≈ 0
	SymmetryTolerance float64

	// Minimum R² for USL model fit quality
	MinRSquared float64

	// Linear scaling tolerance (1.0 = perfect)
	MinEfficiency float64

	// Maximum parallelism considered by scaling assertions
	MaxN int
}

// DefaultAssertionConfig returns conservative thresholds.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		AgreementTolerance: 1e-6, // floating-point non-associativity across splits
		SymmetryTolerance:  1e-9,
		MinRSquared:        0.90,
		MinEfficiency:      0.50,
		MaxN:               16,
	}
}

// AssertAgreement verifies that every profiled parallelism level produced the
// same integral within cfg.AgreementTolerance and that no run reported a
// negative duration.
//
// Summation order differs with the split tree, so results are expected to
// agree only up to rounding.
func AssertAgreement(t *testing.T, results []ProfileResult, cfg AssertionConfig) {
	t.Helper()

	if len(results) == 0 {
		t.Fatal("no profile results")
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range results {
		lo = math.Min(lo, r.Value)
		hi = math.Max(hi, r.Value)
		for i, d := range r.Durations {
			if d < 0 {
				t.Errorf("parallelism=%d run %d: negative duration %v", r.Parallelism, i, d)
			}
		}
	}

	if spread := hi - lo; spread > cfg.AgreementTolerance {
		t.Errorf("results disagree across parallelism levels: spread = %.3e (max: %.3e)\n%s",
			spread, cfg.AgreementTolerance, formatValues(results))
	}

	t.Logf("✓ Agreement: %d levels within %.1e", len(results), cfg.AgreementTolerance)
}

// AssertAntisymmetric verifies I(a,b) = -I(b,a) on the ambient pool.
func AssertAntisymmetric(t *testing.T, f Function, a, b float64, n int, cfg AssertionConfig) {
	t.Helper()

	forward, err := Integrate(f, a, b, n)
	if err != nil {
		t.Fatalf("Integrate(%g, %g): %v", a, b, err)
	}
	backward, err := Integrate(f, b, a, n)
	if err != nil {
		t.Fatalf("Integrate(%g, %g): %v", b, a, err)
	}

	if math.Abs(forward+backward) > cfg.SymmetryTolerance {
		t.Errorf("I(%g,%g) = %.12g but I(%g,%g) = %.12g", a, b, forward, b, a, backward)
	}

	t.Logf("✓ Antisymmetric: I(%g,%g) = %.12g", a, b, forward)
}

// AssertConvergence verifies that the absolute error against want never grows
// as the partition count increases through ns. A small slack absorbs rounding
// once the error reaches machine precision.
func AssertConvergence(t *testing.T, f Function, a, b, want float64, ns []int) {
	t.Helper()

	const slack = 1e-12
	prev := math.Inf(1)
	for _, n := range ns {
		v, _, err := IntegrateWithFixedPool(context.Background(), f, a, b, n, 2)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		e := math.Abs(v - want)
		if e > prev+slack {
			t.Errorf("error grew at n=%d: %.3e > %.3e", n, e, prev)
		}
		t.Logf("  n=%-8d value=%.15f error=%.3e", n, v, e)
		prev = e
	}

	t.Logf("✓ Convergence toward %.15f over %d partition counts", want, len(ns))
}

// AssertLinearScaling fits the USL to a profile and fails for every level up
// to cfg.MaxN whose predicted efficiency C(N)/(λN) falls below
// cfg.MinEfficiency.
func AssertLinearScaling(t *testing.T, results []ProfileResult, cfg AssertionConfig) {
	t.Helper()

	coeffs, err := FitUSL(results)
	if err != nil {
		t.Fatalf("FitUSL: %v", err)
	}

	checked := 0
	for _, r := range results {
		if r.Parallelism > cfg.MaxN {
			continue
		}
		checked++
		if e := coeffs.Efficiency(r.Parallelism); e < cfg.MinEfficiency {
			t.Errorf("parallelism=%d: efficiency %.1f%% below %.1f%% (α=%.4f, β=%.4f)",
				r.Parallelism, e*100, cfg.MinEfficiency*100, coeffs.Alpha, coeffs.Beta)
		}
	}

	t.Logf("✓ Linear scaling: %d levels ≤ %d above %.0f%% efficiency (α=%.6f, β=%.6f, R²=%.4f)",
		checked, cfg.MaxN, cfg.MinEfficiency*100, coeffs.Alpha, coeffs.Beta, coeffs.RSquared)
}

// PrintAnalysis outputs the profile and its USL fit to the test log.
func PrintAnalysis(t *testing.T, results []ProfileResult) {
	t.Helper()

	t.Logf("\n=== Profile ===")
	t.Logf("  N    Value                 Mean          Throughput")
	t.Logf("  --   --------------------  ------------  ----------")
	for _, r := range results {
		stats := CalculateStatistics(r)
		t.Logf("  %-4d %20.15f  %12v  %8.2f/s", r.Parallelism, r.Value, stats.Mean, r.Throughput)
	}

	coeffs, err := FitUSL(results)
	if err != nil {
		t.Logf("USL fit skipped: %v", err)
		return
	}

	t.Logf("\nUSL:")
	t.Logf("  λ (lambda)  = %.2f integrations/sec", coeffs.Lambda)
	t.Logf("  α (alpha)   = %.6f (contention)", coeffs.Alpha)
	t.Logf("  β (beta)    = %.6f (coordination)", coeffs.Beta)
	t.Logf("  R²          = %.4f", coeffs.RSquared)
	t.Logf("  N_peak      = %.1f", coeffs.PeakParallelism())
}

func formatValues(results []ProfileResult) string {
	s := ""
	for _, r := range results {
		s += fmt.Sprintf("  N=%d: %.15f\n", r.Parallelism, r.Value)
	}
	return s
}
