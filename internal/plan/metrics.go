package plan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds the composition metrics. The API server exposes it.
var Registry = prometheus.NewRegistry()

var (
	plansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "k3sforge",
			Subsystem: "plan",
			Name:      "compositions_total",
			Help:      "Total number of compositions by result",
		},
		[]string{"result"},
	)

	planDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "k3sforge",
			Subsystem: "plan",
			Name:      "stage_duration_seconds",
			Help:      "Duration of composition stages in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"stage"},
	)

	artifactsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "k3sforge",
			Subsystem: "plan",
			Name:      "artifacts_total",
			Help:      "Total number of artifacts produced by kind",
		},
		[]string{"kind"},
	)

	findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "k3sforge",
			Subsystem: "plan",
			Name:      "validation_findings_total",
			Help:      "Total number of validation findings by severity",
		},
		[]string{"severity"},
	)
)

func init() {
	Registry.MustRegister(
		plansTotal,
		planDuration,
		artifactsTotal,
		findingsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// recordComposition records the outcome of one Compose call.
func recordComposition(result string) {
	plansTotal.WithLabelValues(result).Inc()
}

// recordStage records how long one stage took.
func recordStage(stage string, seconds float64) {
	planDuration.WithLabelValues(stage).Observe(seconds)
}

func recordArtifacts(kind string, n int) {
	artifactsTotal.WithLabelValues(kind).Add(float64(n))
}

func recordFinding(severity string) {
	findingsTotal.WithLabelValues(severity).Inc()
}
