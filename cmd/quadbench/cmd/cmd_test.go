package cmd

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("QUADBENCH_CONFIG", "")
	t.Setenv("HOME", t.TempDir())
	dumpMetrics = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("quadbench %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestIntegrateCommand(t *testing.T) {
	for _, p := range []string{"0", "3"} {
		out := execute(t, "integrate", "-f", "x2", "--from", "0", "--to", "3", "-n", "1001", "-p", p)
		v, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
		if err != nil {
			t.Fatalf("output %q is not a number", out)
		}
		if math.Abs(v-9) > 1e-9 {
			t.Errorf("parallelism=%s: ∫x² over [0,3] = %g, want 9", p, v)
		}
	}
}

func TestIntegrateCommand_UnknownFunction(t *testing.T) {
	rootCmd.SetArgs([]string{"--log-level", "error", "integrate", "-f", "tan"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected an error for an unknown function")
	}
}

func TestProfileCommand_YAML(t *testing.T) {
	out := execute(t, "profile", "-f", "one", "--from", "0", "--to", "2", "-n", "100",
		"--levels", "1,2", "--repeats", "1", "--warmup", "0", "-o", "yaml")

	var report profileReport
	if err := yaml.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not yaml: %v\n%s", err, out)
	}
	if report.RunID == "" {
		t.Error("missing run_id")
	}
	if len(report.Results) != 2 || len(report.Statistics) != 2 {
		t.Fatalf("got %d results, %d statistics; want 2 each", len(report.Results), len(report.Statistics))
	}
	for _, r := range report.Results {
		if math.Abs(r.Value-2) > 1e-12 {
			t.Errorf("parallelism=%d: value %g, want 2", r.Parallelism, r.Value)
		}
	}
	if report.USL != nil {
		t.Error("two levels are not enough for a USL fit")
	}
	if report.Recommended < 1 {
		t.Errorf("recommended parallelism %d", report.Recommended)
	}
}

func TestTableCommand(t *testing.T) {
	for _, mode := range []string{"join", "countdown", "readwrite"} {
		t.Run(mode, func(t *testing.T) {
			out := execute(t, "table", "-f", "x", "--from", "0", "--to", "1", "-n", "1000",
				"--mode", mode, "--points", "101", "--workers", "3", "--rounds", "4", "--factor", "2")
			if !strings.Contains(out, "verified: ok") {
				t.Errorf("unexpected output:\n%s", out)
			}
			t.Logf("✓ %s", strings.ReplaceAll(out, "\n", " "))
		})
	}
}

func TestMetricsFlag(t *testing.T) {
	out := execute(t, "--metrics", "integrate", "-f", "sin", "--from", "0", "--to", "1", "-n", "100", "-p", "2")
	if !strings.Contains(out, `quadbench_integrations_total{result="ok"} 1`) {
		t.Errorf("metrics dump missing integration counter:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	if !strings.HasPrefix(out, "quadbench v"+Version) {
		t.Errorf("unexpected version output %q", out)
	}
}
