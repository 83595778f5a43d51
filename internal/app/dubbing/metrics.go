package dubbing

import (
	appmetrics "redub/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Runs             *prometheus.CounterVec
	ActiveRuns       prometheus.Gauge
	Transitions      *prometheus.CounterVec
	StateSeconds     *prometheus.HistogramVec
	CleanupErrors    prometheus.Counter
	TransientRetries prometheus.Counter
}

var metrics = &Metrics{
	Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dubbing",
		Name:      "runs_total",
	}, []string{"result"}),
	ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dubbing",
		Name:      "active_runs",
	}),
	Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dubbing",
		Name:      "state_transitions_total",
	}, []string{"state"}),
	StateSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dubbing",
		Name:      "state_seconds",
		Buckets:   appmetrics.RequestSecondsBuckets,
	}, []string{"state"}),
	CleanupErrors: prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dubbing",
		Name:      "cleanup_errors_total",
	}),
	TransientRetries: prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dubbing",
		Name:      "transient_retries_total",
	}),
}

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(metrics.Runs)
	reg.MustRegister(metrics.ActiveRuns)
	reg.MustRegister(metrics.Transitions)
	reg.MustRegister(metrics.StateSeconds)
	reg.MustRegister(metrics.CleanupErrors)
	reg.MustRegister(metrics.TransientRetries)
}
