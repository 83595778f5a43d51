package monitoring

import (
	"redub/internal/app/dubbing"
	"redub/pkg/ai"
	"redub/pkg/ws"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// RegisterMetrics registers the metrics of every component plus the Go
// runtime collectors.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ai.RegisterMetrics(reg)
	ws.RegisterMetrics(reg)
	dubbing.RegisterMetrics(reg)
}
