package quadbench

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by pools, integrations and
// harness runs. A nil *Metrics is valid and records nothing.
type Metrics struct {
	integrations *prometheus.CounterVec
	duration     prometheus.Histogram
	forks        prometheus.Counter
	reclaimed    prometheus.Counter
	leaves       prometheus.Counter
	tasks        *prometheus.CounterVec
}

// NewMetrics registers the quadbench collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		integrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quadbench",
			Name:      "integrations_total",
			Help:      "Integrations by outcome.",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quadbench",
			Name:      "integration_duration_seconds",
			Help:      "Wall time of the compute phase of an integration.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		forks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quadbench",
			Name:      "forks_total",
			Help:      "Sub-tasks offered to a pool.",
		}),
		reclaimed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quadbench",
			Name:      "reclaimed_total",
			Help:      "Forked sub-tasks run inline by their joiner.",
		}),
		leaves: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quadbench",
			Name:      "leaves_total",
			Help:      "Sequential Simpson passes executed.",
		}),
		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quadbench",
			Name:      "harness_tasks_total",
			Help:      "Harness worker tasks by mode and outcome.",
		}, []string{"mode", "result"}),
	}
}

func (m *Metrics) fork() {
	if m != nil {
		m.forks.Inc()
	}
}

func (m *Metrics) reclaim() {
	if m != nil {
		m.reclaimed.Inc()
	}
}

func (m *Metrics) leaf() {
	if m != nil {
		m.leaves.Inc()
	}
}

func (m *Metrics) integration(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.integrations.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.duration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) task(mode string, err error) {
	if m != nil {
		m.tasks.WithLabelValues(mode, outcome(err)).Inc()
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
