package monitoring

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	immediateticker "redub/pkg/immediate_ticker"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// GatherAndSendMetrics pushes one snapshot of reg to influx. Histograms are
// flattened into _bucket, _sum and _count measurements.
func GatherAndSendMetrics(ctx context.Context, reg prometheus.Gatherer, influxWriter api.WriteAPI, logger *slog.Logger) {
	families, err := reg.Gather()
	if err != nil {
		logger.Error("Error gathering metrics", "err", err)
		return
	}

	now := time.Now()

	for _, m := range families {
		if ctx.Err() != nil {
			logger.Debug("Context canceled, stopping metric processing")
			return
		}

		for _, metric := range m.GetMetric() {
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}

			switch m.GetType() {
			case io_prometheus_client.MetricType_COUNTER:
				influxWriter.WritePoint(influxdb2.NewPoint(m.GetName(), labels,
					map[string]interface{}{"value": metric.GetCounter().GetValue()}, now))
			case io_prometheus_client.MetricType_GAUGE:
				influxWriter.WritePoint(influxdb2.NewPoint(m.GetName(), labels,
					map[string]interface{}{"value": metric.GetGauge().GetValue()}, now))
			case io_prometheus_client.MetricType_HISTOGRAM, io_prometheus_client.MetricType_GAUGE_HISTOGRAM:
				writeHistogram(influxWriter, m.GetName(), labels, metric.GetHistogram(), now)
			case io_prometheus_client.MetricType_SUMMARY:
				summary := metric.GetSummary()
				influxWriter.WritePoint(influxdb2.NewPoint(m.GetName()+"_sum", labels,
					map[string]interface{}{"value": summary.GetSampleSum()}, now))
				influxWriter.WritePoint(influxdb2.NewPoint(m.GetName()+"_count", labels,
					map[string]interface{}{"value": summary.GetSampleCount()}, now))
			default:
				logger.Debug("Unsupported metric type", "name", m.GetName(), "type", m.GetType().String())
			}
		}
	}
}

func writeHistogram(w api.WriteAPI, name string, labels map[string]string, hist *io_prometheus_client.Histogram, now time.Time) {
	for _, bucket := range hist.GetBucket() {
		bucketLabels := make(map[string]string, len(labels)+1)
		for k, v := range labels {
			bucketLabels[k] = v
		}
		bucketLabels["le"] = strconv.FormatFloat(bucket.GetUpperBound(), 'f', -1, 64)

		w.WritePoint(influxdb2.NewPoint(name+"_bucket", bucketLabels,
			map[string]interface{}{"count": bucket.GetCumulativeCount()}, now))
	}

	w.WritePoint(influxdb2.NewPoint(name+"_sum", labels,
		map[string]interface{}{"value": hist.GetSampleSum()}, now))
	w.WritePoint(influxdb2.NewPoint(name+"_count", labels,
		map[string]interface{}{"value": hist.GetSampleCount()}, now))
}

// ExportLoop calls GatherAndSendMetrics right away and then every interval
// until ctx is done.
func ExportLoop(ctx context.Context, interval time.Duration, reg prometheus.Gatherer, influxWriter api.WriteAPI, logger *slog.Logger) {
	for range immediateticker.New(ctx, interval).C {
		GatherAndSendMetrics(ctx, reg, influxWriter, logger)
	}
}
