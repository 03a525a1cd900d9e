package cmd

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexshd/quadbench"
)

var tableFlags struct {
	mode    string
	points  int
	workers int
	rounds  int
	factor  float64
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Run concurrent tasks against a shared tabulated function",
	Long: `Tabulate a stock function, share it between worker goroutines and check
that no update was lost.

Modes:
  join      - workers scale disjoint index ranges; joined in order
  countdown - every worker scales the whole table under WithLock; a
              countdown latch waits for all of them
  readwrite - one reader and one writer run concurrently

Afterwards the final table is integrated on a dedicated pool.`,
	Example: `  quadbench table --mode countdown --workers 8 --factor 2
  quadbench table --mode readwrite --points 10000 --rounds 50`,
	RunE: runTable,
}

func init() {
	addIntegrationFlags(tableCmd)
	f := tableCmd.Flags()
	f.StringVarP(&tableFlags.mode, "mode", "m", "", "join, countdown or readwrite")
	f.IntVar(&tableFlags.points, "points", 0, "number of samples")
	f.IntVarP(&tableFlags.workers, "workers", "w", 0, "worker goroutines (and pool size)")
	f.IntVar(&tableFlags.rounds, "rounds", 0, "passes per reader/writer")
	f.Float64Var(&tableFlags.factor, "factor", 0, "scale factor (written value in readwrite mode)")
	rootCmd.AddCommand(tableCmd)
}

func runTable(cmd *cobra.Command, args []string) error {
	in, err := resolveIntegration(cmd)
	if err != nil {
		return err
	}

	tc := cfg.Table
	flags := cmd.Flags()
	if flags.Changed("mode") {
		tc.Mode = tableFlags.mode
	}
	if flags.Changed("points") {
		tc.Points = tableFlags.points
	}
	if flags.Changed("workers") {
		tc.Workers = tableFlags.workers
	}
	if flags.Changed("rounds") {
		tc.Rounds = tableFlags.rounds
	}
	if flags.Changed("factor") {
		tc.Factor = tableFlags.factor
	}
	if tc.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", tc.Workers)
	}

	table, err := quadbench.Tabulate(in.fn, in.from, in.to, tc.Points)
	if err != nil {
		return err
	}
	shared := quadbench.Synchronize(table)
	original := shared.Snapshot()

	ctx, cancel := in.withTimeout(cmd.Context())
	defer cancel()

	h := quadbench.Harness{Logger: logger, Metrics: metrics}
	var (
		expected func(i int, y float64) float64
		reads    atomic.Int64
	)

	start := time.Now()
	switch tc.Mode {
	case "join":
		expected = func(_ int, y float64) float64 { return y * tc.Factor }
		scale := func(_ int, y float64) float64 { return y * tc.Factor }
		err = h.RunJoined(ctx, rangeTasks(shared, tc.Workers, scale)...)

	case "countdown":
		total := math.Pow(tc.Factor, float64(tc.Workers))
		expected = func(_ int, y float64) float64 { return y * total }
		tasks := make([]quadbench.Task, tc.Workers)
		for i := range tasks {
			tasks[i] = quadbench.MultiplyTask(shared, tc.Factor)
		}
		err = h.RunCountdown(ctx, tasks...)

	case "readwrite":
		expected = func(int, float64) float64 { return tc.Factor }
		err = h.RunReadWrite(ctx,
			quadbench.ReadTask(shared, tc.Rounds, func(int, quadbench.Point) { reads.Add(1) }),
			quadbench.WriteTask(shared, tc.Factor, tc.Rounds),
		)

	default:
		return fmt.Errorf("unknown mode %q (want join, countdown or readwrite)", tc.Mode)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	lost := verifyTable(shared, original, expected)
	if lost > 0 {
		logger.Error("table verification failed", "mode", tc.Mode, "mismatched", lost)
		return fmt.Errorf("%d of %d points do not match the expected value", lost, len(original))
	}

	integral, err := integrateTable(ctx, shared, tc.Workers, in.partitions)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mode:     %s\n", tc.Mode)
	fmt.Fprintf(out, "points:   %d\n", len(original))
	fmt.Fprintf(out, "workers:  %d\n", tc.Workers)
	if tc.Mode == "readwrite" {
		fmt.Fprintf(out, "reads:    %d\n", reads.Load())
	}
	fmt.Fprintf(out, "elapsed:  %v\n", elapsed)
	fmt.Fprintf(out, "verified: ok\n")
	fmt.Fprintf(out, "integral: %.15g\n", integral)
	return nil
}

// rangeTasks splits the table into n disjoint index ranges, one task each.
func rangeTasks(t quadbench.Table, n int, fn func(i int, y float64) float64) []quadbench.Task {
	count := t.Count()
	chunk := (count + n - 1) / n
	tasks := make([]quadbench.Task, 0, n)
	for from := 0; from < count; from += chunk {
		tasks = append(tasks, quadbench.UpdateRangeTask(t, from, min(from+chunk, count), fn))
	}
	return tasks
}

// verifyTable returns how many points differ from expected(original).
func verifyTable(s *quadbench.SynchronizedTabulatedFunction, original []quadbench.Point, expected func(int, float64) float64) int {
	lost := 0
	for i, p := range s.All() {
		want := expected(i, original[i].Y)
		if math.Abs(p.Y-want) > 1e-12*math.Max(1, math.Abs(want)) {
			lost++
		}
	}
	return lost
}

func integrateTable(ctx context.Context, s *quadbench.SynchronizedTabulatedFunction, workers, n int) (float64, error) {
	pool, err := quadbench.NewPool(workers, poolOptions()...)
	if err != nil {
		return 0, err
	}
	defer pool.Close()

	var v float64
	err = quadbench.Harness{Logger: logger, Metrics: metrics}.RunJoined(ctx,
		quadbench.IntegrateTask(s, pool, n, func(r float64) { v = r }))
	return v, err
}
