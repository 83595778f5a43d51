package ai

import (
	appmetrics "redub/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	TTSQueryTime prometheus.Histogram
	TTSErrors    *prometheus.CounterVec
	TTSChars     prometheus.Counter
}

var metrics = &Metrics{
	TTSQueryTime: prometheus.NewHistogram(prometheus.HistogramOpts{
		Subsystem: "tts",
		Name:      "request_seconds",
		Buckets:   appmetrics.RequestSecondsBuckets,
	}),
	TTSErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "tts",
		Name:      "errors_total",
	}, []string{"err_code"}),
	TTSChars: prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "tts",
		Name:      "characters_total",
	}),
}

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(metrics.TTSQueryTime)
	reg.MustRegister(metrics.TTSErrors)
	reg.MustRegister(metrics.TTSChars)
}
