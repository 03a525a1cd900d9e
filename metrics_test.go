package quadbench

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.fork()
	m.reclaim()
	m.leaf()
	m.integration(time.Millisecond, nil)
	m.task("join", errors.New("x"))
}

func TestMetrics_IntegrationOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	opts := []PoolOption{WithMetrics(m), WithLogger(quietLogger())}

	if _, _, err := IntegrateWithFixedPool(context.Background(), Identity(), 0, 1, 100, 2, opts...); err != nil {
		t.Fatalf("IntegrateWithFixedPool: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := IntegrateWithFixedPool(ctx, Identity(), 0, 1, 100, 2, opts...); err == nil {
		t.Fatal("expected cancelled integration to fail")
	}

	expected := `
# HELP quadbench_integrations_total Integrations by outcome.
# TYPE quadbench_integrations_total counter
quadbench_integrations_total{result="error"} 1
quadbench_integrations_total{result="ok"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "quadbench_integrations_total"); err != nil {
		t.Error(err)
	}

	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("duration histogram series = %d, want 1", n)
	}
}

func TestMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering the collectors twice should panic")
		}
	}()
	NewMetrics(reg)
}
