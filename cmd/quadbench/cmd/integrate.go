package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexshd/quadbench"
)

var integrateFlags struct {
	function    string
	from, to    float64
	partitions  int
	parallelism int
	timeout     time.Duration
}

var integrateCmd = &cobra.Command{
	Use:   "integrate",
	Short: "Integrate a stock function",
	Long: `Integrate a stock function with the composite Simpson rule.

With --parallelism 0 the shared pool (GOMAXPROCS workers) is used; otherwise
a dedicated pool of exactly that many workers is created for the run and
shut down afterwards.

Functions: ` + fmt.Sprint(quadbench.FunctionNames()),
	Example: `  quadbench integrate --function sin --from 0 --to 3.14159 -n 1000000
  quadbench integrate --function gauss --from -5 --to 5 -p 4`,
	RunE: runIntegrate,
}

func init() {
	addIntegrationFlags(integrateCmd)
	integrateCmd.Flags().IntVarP(&integrateFlags.parallelism, "parallelism", "p", 0, "dedicated pool size (0: shared pool)")
	rootCmd.AddCommand(integrateCmd)
}

// addIntegrationFlags registers the flags shared by integrate and profile.
func addIntegrationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&integrateFlags.function, "function", "f", "", "stock function name")
	f.Float64Var(&integrateFlags.from, "from", 0, "lower bound")
	f.Float64Var(&integrateFlags.to, "to", 0, "upper bound")
	f.IntVarP(&integrateFlags.partitions, "partitions", "n", 0, "number of sub-intervals")
	f.DurationVar(&integrateFlags.timeout, "timeout", 0, "abort the run after this long")
}

// integration resolves the integrate/profile flags against the config file.
type integration struct {
	name        string
	fn          quadbench.Function
	from, to    float64
	partitions  int
	parallelism int
	timeout     time.Duration
}

func resolveIntegration(cmd *cobra.Command) (integration, error) {
	in := integration{
		name:        cfg.Integration.Function,
		from:        cfg.Integration.From,
		to:          cfg.Integration.To,
		partitions:  cfg.Integration.Partitions,
		parallelism: cfg.Integration.Parallelism,
		timeout:     cfg.Integration.Timeout.Duration,
	}

	flags := cmd.Flags()
	if flags.Changed("function") {
		in.name = integrateFlags.function
	}
	if flags.Changed("from") {
		in.from = integrateFlags.from
	}
	if flags.Changed("to") {
		in.to = integrateFlags.to
	}
	if flags.Changed("partitions") {
		in.partitions = integrateFlags.partitions
	}
	if flags.Changed("parallelism") {
		in.parallelism = integrateFlags.parallelism
	}
	if flags.Changed("timeout") {
		in.timeout = integrateFlags.timeout
	}

	fn, err := quadbench.LookupFunction(in.name)
	if err != nil {
		return in, err
	}
	in.fn = fn
	return in, nil
}

func (in integration) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if in.timeout > 0 {
		return context.WithTimeout(parent, in.timeout)
	}
	return context.WithCancel(parent)
}

func runIntegrate(cmd *cobra.Command, args []string) error {
	in, err := resolveIntegration(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := in.withTimeout(cmd.Context())
	defer cancel()

	log := logger.With("function", in.name, "from", in.from, "to", in.to, "n", in.partitions)

	var (
		value   float64
		elapsed time.Duration
	)
	if in.parallelism == 0 {
		start := time.Now()
		value, err = quadbench.AmbientPool().Integrate(ctx, in.fn, in.from, in.to, in.partitions)
		elapsed = time.Since(start)
	} else {
		value, elapsed, err = quadbench.IntegrateWithFixedPool(ctx, in.fn, in.from, in.to,
			in.partitions, in.parallelism, poolOptions()...)
	}
	if err != nil {
		log.Error("integration failed", "error", err)
		return err
	}

	log.Info("integration complete", "parallelism", in.parallelism, "elapsed", elapsed)
	fmt.Fprintf(cmd.OutOrStdout(), "%.15g\n", value)
	return nil
}
