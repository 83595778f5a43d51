package slg

import (
	"context"
	"log/slog"
	"strings"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	slogcommon "github.com/samber/slog-common"
)

var _ slog.Handler = (*InfluxDBHandler)(nil)

const measurement = "syslog"

// InfluxDBHandler writes every record as a point of the syslog measurement.
// Attributes become fields, the level is the only tag.
type InfluxDBHandler struct {
	InfluxDBWriter api.WriteAPI
	Level          slog.Leveler

	attrs  []slog.Attr
	groups []string
}

func (h *InfluxDBHandler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.Level != nil {
		minLevel = h.Level.Level()
	}

	return level >= minLevel
}

func (h *InfluxDBHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+record.NumAttrs()+1)

	for _, a := range h.attrs {
		addField(fields, "", a)
	}

	prefix := strings.Join(h.groups, ".")
	record.Attrs(func(a slog.Attr) bool {
		addField(fields, prefix, a)

		return true
	})

	fields["message"] = record.Message

	point := write.NewPoint(measurement, map[string]string{
		"level": record.Level.String(),
	}, fields, record.Time)

	h.InfluxDBWriter.WritePoint(point)

	return nil
}

func addField(fields map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addField(fields, key, ga)
		}
		return
	}

	switch v := a.Value.Any().(type) {
	case error:
		fields[key] = v.Error()
	case string, bool, int64, uint64, float64:
		fields[key] = v
	default:
		fields[key] = a.Value.String()
	}
}

func (h *InfluxDBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &InfluxDBHandler{
		InfluxDBWriter: h.InfluxDBWriter,
		Level:          h.Level,

		attrs:  slogcommon.AppendAttrsToGroup(h.groups, h.attrs, attrs...),
		groups: h.groups,
	}
}

func (h *InfluxDBHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &InfluxDBHandler{
		InfluxDBWriter: h.InfluxDBWriter,
		Level:          h.Level,

		attrs:  h.attrs,
		groups: append(append([]string(nil), h.groups...), name),
	}
}
