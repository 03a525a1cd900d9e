package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/alexshd/quadbench"
	"github.com/alexshd/quadbench/internal/config"
	"github.com/alexshd/quadbench/internal/logging"
)

var (
	cfgFile     string
	logLevel    string
	logFormat   string
	dumpMetrics bool

	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *quadbench.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "quadbench",
	Short: "Parallel Simpson integration and concurrent table workloads",
	Long: `quadbench integrates functions with the composite Simpson rule on a
fork/join worker pool and exercises synchronized tabulated functions.

Commands:
  integrate - integrate a stock function once
  profile   - measure throughput across pool sizes and fit the USL
  table     - run concurrent tasks against a shared tabulated function
  version   - print build information`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.toml, .yaml); default $"+config.EnvPath)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&dumpMetrics, "metrics", false, "print Prometheus metrics to stdout on exit")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	logger, err = logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	registry = prometheus.NewRegistry()
	metrics = quadbench.NewMetrics(registry)

	logger.Debug("configuration loaded", "file", cfgFile, "log_level", cfg.Log.Level)
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if !dumpMetrics || registry == nil {
		return nil
	}
	return writeMetrics(cmd.OutOrStdout(), registry)
}

// writeMetrics encodes every gathered family in the Prometheus text format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

// poolOptions returns the options shared by every pool the CLI creates.
func poolOptions() []quadbench.PoolOption {
	return []quadbench.PoolOption{
		quadbench.WithLogger(logger),
		quadbench.WithMetrics(metrics),
		quadbench.WithShutdownTimeout(cfg.Integration.ShutdownTimeout.Duration),
	}
}
