package quadbench

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"
)

// A profile runs the same integration on dedicated pools of increasing size
// and fits the Universal Scalability Law (USL) to the measured throughput:
//
//	C(N) = λN / (1 + α(N-1) + βN(N-1))
//
// Where:
//   - λ (lambda): integrations per second with one worker
//   - α (alpha): contention (queue hand-off, joiners waiting on siblings)
//   - β (beta): coherency (cache traffic between workers)
//   - N: pool parallelism
//
// CRITICAL: levels above GOMAXPROCS measure the Go scheduler, not the pool.

// ProfileResult contains measurements from a single parallelism level.
type ProfileResult struct {
	Parallelism int             `yaml:"parallelism"`
	Value       float64         `yaml:"value"`
	Durations   []time.Duration `yaml:"durations"`
	Throughput  float64         `yaml:"throughput"` // integrations per second
}

// Statistics contains percentile latency data.
type Statistics struct {
	Mean   time.Duration `yaml:"mean"`
	Stddev time.Duration `yaml:"stddev"`
	P50    time.Duration `yaml:"p50"`
	P95    time.Duration `yaml:"p95"`
	P99    time.Duration `yaml:"p99"`

	// TailRatio is P99/P50 (1 when P50 is zero).
	//   - < 3: Gaussian, the mean is meaningful
	//   - > 10: power-law tail, the pool or the machine is saturated
	TailRatio float64 `yaml:"tail_ratio"`
}

// HeavyTailed reports whether the run times look power-law distributed,
// in which case Mean should not be trusted.
func (s Statistics) HeavyTailed() bool {
	return s.TailRatio > 10
}

// USLCoefficients contains the Universal Scalability Law parameters.
type USLCoefficients struct {
	Lambda   float64 `yaml:"lambda"`    // λ: Serial throughput (integrations/sec at N=1)
	Alpha    float64 `yaml:"alpha"`     // α: Contention coefficient
	Beta     float64 `yaml:"beta"`      // β: Coordination coefficient
	RSquared float64 `yaml:"r_squared"` // R²: Goodness of fit (1.0 = perfect)
}

// ProfileConfig controls profile execution.
type ProfileConfig struct {
	Levels  []int // Parallelism levels to test (default: [1,2,4,8])
	Repeats int   // Measured integrations per level
	Warmup  int   // Unmeasured integrations per level
}

// DefaultProfileConfig returns sensible defaults.
func DefaultProfileConfig() ProfileConfig {
	return ProfileConfig{
		Levels:  []int{1, 2, 4, 8},
		Repeats: 3,
		Warmup:  1,
	}
}

// Profile integrates f over [a, b] with n partitions on a fresh dedicated
// pool for every run, at every level in cfg.Levels.
func Profile(ctx context.Context, f Function, a, b float64, n int, cfg ProfileConfig, opts ...PoolOption) ([]ProfileResult, error) {
	if len(cfg.Levels) == 0 {
		return nil, invalidArgument("no parallelism levels")
	}
	if cfg.Repeats <= 0 {
		return nil, invalidArgument("repeats must be positive, got %d", cfg.Repeats)
	}

	results := make([]ProfileResult, 0, len(cfg.Levels))
	for _, level := range cfg.Levels {
		result, err := profileLevel(ctx, f, a, b, n, level, cfg, opts)
		if err != nil {
			return nil, fmt.Errorf("failed at parallelism=%d: %w", level, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func profileLevel(ctx context.Context, f Function, a, b float64, n, level int, cfg ProfileConfig, opts []PoolOption) (ProfileResult, error) {
	for i := 0; i < cfg.Warmup; i++ {
		if _, _, err := IntegrateWithFixedPool(ctx, f, a, b, n, level, opts...); err != nil {
			return ProfileResult{}, err
		}
	}

	result := ProfileResult{
		Parallelism: level,
		Durations:   make([]time.Duration, 0, cfg.Repeats),
	}

	var total time.Duration
	for i := 0; i < cfg.Repeats; i++ {
		v, elapsed, err := IntegrateWithFixedPool(ctx, f, a, b, n, level, opts...)
		if err != nil {
			return ProfileResult{}, err
		}
		result.Value = v
		result.Durations = append(result.Durations, elapsed)
		total += elapsed
	}

	if total > 0 {
		result.Throughput = float64(cfg.Repeats) / total.Seconds()
	}
	return result, nil
}

// CalculateStatistics computes percentile latencies.
func CalculateStatistics(result ProfileResult) Statistics {
	n := len(result.Durations)
	if n == 0 {
		return Statistics{}
	}

	sorted := slices.Clone(result.Durations)
	slices.Sort(sorted)
	at := func(pct int) time.Duration { return sorted[n*pct/100] }

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	mean := sum / time.Duration(n)

	var variance float64
	for _, d := range sorted {
		diff := float64(d - mean)
		variance += diff * diff
	}

	stats := Statistics{
		Mean:      mean,
		Stddev:    time.Duration(math.Sqrt(variance / float64(n))),
		P50:       at(50),
		P95:       at(95),
		P99:       at(99),
		TailRatio: 1,
	}
	if stats.P50 > 0 {
		stats.TailRatio = float64(stats.P99) / float64(stats.P50)
	}
	return stats
}

// FitUSL fits λ, α, β to the measured throughput.
//
// The model is linear after dividing N by C(N):
//
//	N/C(N) = 1/λ + (α/λ)(N-1) + (β/λ)N(N-1)
//
// so ordinary least squares on y = N/C(N) against x₁ = N-1, x₂ = N(N-1)
// gives b₀ = 1/λ, b₁ = α/λ, b₂ = β/λ. Levels with zero throughput are skipped.
func FitUSL(results []ProfileResult) (USLCoefficients, error) {
	if len(results) < 3 {
		return USLCoefficients{}, fmt.Errorf("need at least 3 data points, got %d", len(results))
	}

	samples := uslSamples(results)
	b, ok := leastSquares(samples, 3)
	if !ok {
		return USLCoefficients{
			Lambda:   results[0].Throughput,
			Alpha:    0.01,
			Beta:     0.0,
			RSquared: 0.0,
		}, nil
	}
	c := USLCoefficients{Lambda: 1 / b[0], Alpha: b[1] / b[0], Beta: b[2] / b[0]}

	// β < 0 with α > 0 is usually noise in the linearization: refit the
	// contention-only model.
	if c.Beta < 0 && c.Alpha > 0 {
		if b, ok := leastSquares(samples, 2); ok {
			c = USLCoefficients{Lambda: 1 / b[0], Alpha: b[1] / b[0]}
		}
	}

	c.RSquared = rSquared(results, c)
	return c, nil
}

// uslSample is one linearized level: y = N/C(N) with regressors 1, N-1, N(N-1).
type uslSample struct {
	x [3]float64
	y float64
}

func uslSamples(results []ProfileResult) []uslSample {
	samples := make([]uslSample, 0, len(results))
	for _, r := range results {
		if r.Throughput == 0 {
			continue
		}
		n := float64(r.Parallelism)
		samples = append(samples, uslSample{
			x: [3]float64{1, n - 1, n * (n - 1)},
			y: n / r.Throughput,
		})
	}
	return samples
}

// leastSquares solves the normal equations for the first k (2 or 3)
// regressors with Cramer's rule. Unused coefficients are zero. ok is false
// when the system is singular.
func leastSquares(samples []uslSample, k int) (b [3]float64, ok bool) {
	var m [3][3]float64
	var v [3]float64
	for _, s := range samples {
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				m[i][j] += s.x[i] * s.x[j]
			}
			v[i] += s.x[i] * s.y
		}
	}
	// Pad a 2×2 system to 3×3 with an identity row so det3 applies to both.
	for i := k; i < 3; i++ {
		m[i][i] = 1
	}

	d := det3(m)
	if math.Abs(d) < 1e-10 {
		return b, false
	}
	for col := 0; col < k; col++ {
		mc := m
		for row := range mc {
			mc[row][col] = v[row]
		}
		b[col] = det3(mc) / d
	}
	return b, true
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// rSquared measures the fit against the raw (not linearized) throughput.
func rSquared(results []ProfileResult, c USLCoefficients) float64 {
	var mean float64
	for _, r := range results {
		mean += r.Throughput
	}
	mean /= float64(len(results))

	var ssRes, ssTot float64
	for _, r := range results {
		res := r.Throughput - c.PredictThroughput(r.Parallelism)
		dev := r.Throughput - mean
		ssRes += res * res
		ssTot += dev * dev
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func uslModel(n, lambda, alpha, beta float64) float64 {
	return (lambda * n) / (1 + alpha*(n-1) + beta*n*(n-1))
}

// PredictThroughput estimates integrations per second at a parallelism level.
func (c USLCoefficients) PredictThroughput(n int) float64 {
	return uslModel(float64(n), c.Lambda, c.Alpha, c.Beta)
}

// Efficiency returns the ratio of predicted to ideal throughput.
// 1.0 = perfect linear scaling.
func (c USLCoefficients) Efficiency(n int) float64 {
	ideal := c.Lambda * float64(n)
	if ideal == 0 {
		return 0
	}
	return c.PredictThroughput(n) / ideal
}

// PeakParallelism is where dC/dN = 0: N_peak = sqrt((1-α)/β).
// Without a coherency penalty (β <= 0) there is no peak and +Inf is returned;
// with α >= 1 the workload cannot scale at all and 0 is returned.
func (c USLCoefficients) PeakParallelism() float64 {
	if c.Beta <= 0 {
		return math.Inf(1)
	}
	if c.Alpha >= 1 {
		return 0
	}
	return math.Sqrt((1 - c.Alpha) / c.Beta)
}

// Retrograde reports whether n workers are at or past the peak, where adding
// workers no longer increases throughput.
func (c USLCoefficients) Retrograde(n int) bool {
	peak := c.PeakParallelism()
	if math.IsInf(peak, 1) {
		return false
	}
	return float64(n) >= peak
}

// RecommendParallelism picks a dedicated pool size for the profiled
// workload: the USL peak rounded down, capped at limit (typically
// runtime.GOMAXPROCS(0)), and at least 1.
func RecommendParallelism(c USLCoefficients, limit int) int {
	if limit < 1 {
		limit = 1
	}
	peak := c.PeakParallelism()
	if math.IsInf(peak, 1) || math.IsNaN(peak) || peak >= float64(limit) {
		return limit
	}
	return max(int(math.Floor(peak)), 1)
}
