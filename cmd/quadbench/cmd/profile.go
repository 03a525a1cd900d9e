package cmd

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexshd/quadbench"
)

var profileFlags struct {
	levels  []int
	repeats int
	warmup  int
	output  string
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Measure integration throughput across pool sizes",
	Long: `Run the same integration on dedicated pools of each requested size,
fit the Universal Scalability Law to the measured throughput and recommend a
pool size for this workload on this machine.`,
	Example: `  quadbench profile --levels 1,2,4,8 --repeats 5 -n 4000000
  quadbench profile --function exp --output yaml`,
	RunE: runProfile,
}

func init() {
	addIntegrationFlags(profileCmd)
	f := profileCmd.Flags()
	f.IntSliceVar(&profileFlags.levels, "levels", nil, "parallelism levels (default from config)")
	f.IntVar(&profileFlags.repeats, "repeats", 0, "measured runs per level")
	f.IntVar(&profileFlags.warmup, "warmup", 0, "unmeasured runs per level")
	f.StringVarP(&profileFlags.output, "output", "o", "text", "output format: text or yaml")
	rootCmd.AddCommand(profileCmd)
}

// profileReport is the yaml form of a profile run.
type profileReport struct {
	RunID       string                     `yaml:"run_id"`
	Function    string                     `yaml:"function"`
	From        float64                    `yaml:"from"`
	To          float64                    `yaml:"to"`
	Partitions  int                        `yaml:"partitions"`
	Results     []quadbench.ProfileResult  `yaml:"results"`
	Statistics  []quadbench.Statistics     `yaml:"statistics"`
	USL         *quadbench.USLCoefficients `yaml:"usl,omitempty"`
	Recommended int                        `yaml:"recommended_parallelism"`
}

func runProfile(cmd *cobra.Command, args []string) error {
	in, err := resolveIntegration(cmd)
	if err != nil {
		return err
	}
	if profileFlags.output != "text" && profileFlags.output != "yaml" {
		return fmt.Errorf("unknown output format %q", profileFlags.output)
	}

	pcfg := quadbench.ProfileConfig{
		Levels:  cfg.Profile.Levels,
		Repeats: cfg.Profile.Repeats,
		Warmup:  cfg.Profile.Warmup,
	}
	flags := cmd.Flags()
	if flags.Changed("levels") {
		pcfg.Levels = profileFlags.levels
	}
	if flags.Changed("repeats") {
		pcfg.Repeats = profileFlags.repeats
	}
	if flags.Changed("warmup") {
		pcfg.Warmup = profileFlags.warmup
	}

	ctx, cancel := in.withTimeout(cmd.Context())
	defer cancel()

	report := profileReport{
		RunID:      uuid.NewString(),
		Function:   in.name,
		From:       in.from,
		To:         in.to,
		Partitions: in.partitions,
	}
	log := logger.With("run_id", report.RunID, "function", in.name)
	log.Info("profile started", "levels", pcfg.Levels, "repeats", pcfg.Repeats)

	start := time.Now()
	results, err := quadbench.Profile(ctx, in.fn, in.from, in.to, in.partitions, pcfg, poolOptions()...)
	if err != nil {
		log.Error("profile failed", "error", err)
		return err
	}
	log.Info("profile complete", "elapsed", time.Since(start))

	report.Results = results
	for _, r := range results {
		st := quadbench.CalculateStatistics(r)
		if st.HeavyTailed() {
			log.Warn("run times are heavy-tailed, mean is unreliable",
				"parallelism", r.Parallelism, "tail_ratio", st.TailRatio)
		}
		report.Statistics = append(report.Statistics, st)
	}

	limit := runtime.GOMAXPROCS(0)
	report.Recommended = limit
	if coeffs, err := quadbench.FitUSL(results); err != nil {
		log.Warn("USL fit skipped", "error", err)
	} else {
		report.USL = &coeffs
		report.Recommended = quadbench.RecommendParallelism(coeffs, limit)
		for _, r := range results {
			if coeffs.Retrograde(r.Parallelism) {
				log.Info("level is past the throughput peak", "parallelism", r.Parallelism,
					"peak", coeffs.PeakParallelism())
			}
		}
	}

	out := cmd.OutOrStdout()
	if profileFlags.output == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}
	printProfile(out, report)
	return nil
}

func printProfile(w io.Writer, r profileReport) {
	fmt.Fprintf(w, "=== Profile %s ===\n", r.RunID)
	fmt.Fprintf(w, "∫ %s over [%g, %g], n=%d\n\n", r.Function, r.From, r.To, r.Partitions)
	fmt.Fprintln(w, "  N    Value                 Mean          P95           P99/P50  Throughput")
	fmt.Fprintln(w, "  --   --------------------  ------------  ------------  -------  ----------")
	for i, res := range r.Results {
		st := r.Statistics[i]
		fmt.Fprintf(w, "  %-4d %20.15f  %12v  %12v  %7.2f  %8.2f/s\n",
			res.Parallelism, res.Value, st.Mean, st.P95, st.TailRatio, res.Throughput)
	}

	if r.USL != nil {
		fmt.Fprintln(w, "\nUSL:")
		fmt.Fprintf(w, "  λ (lambda)  = %.2f integrations/sec\n", r.USL.Lambda)
		fmt.Fprintf(w, "  α (alpha)   = %.6f (contention)\n", r.USL.Alpha)
		fmt.Fprintf(w, "  β (beta)    = %.6f (coherency)\n", r.USL.Beta)
		fmt.Fprintf(w, "  R²          = %.4f\n", r.USL.RSquared)
		fmt.Fprintf(w, "  N_peak      = %.1f\n", r.USL.PeakParallelism())
	}
	fmt.Fprintf(w, "\nRecommended parallelism: %d\n", r.Recommended)
}
