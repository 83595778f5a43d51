package slg_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"redub/pkg/slg"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	api.WriteAPI

	mu     sync.Mutex
	points []*write.Point
}

func (w *fakeWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.points = append(w.points, p)
}

func fieldMap(p *write.Point) map[string]any {
	out := make(map[string]any)
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func TestInfluxDBHandler(t *testing.T) {
	assert := require.New(t)
	w := &fakeWriter{}

	logger := slog.New(&slg.InfluxDBHandler{InfluxDBWriter: w}).
		With("service", "redub").
		WithGroup("dubbing")

	logger.Debug("not written")
	logger.Error("run failed", "video_id", "intro", "err", errors.New("boom"))

	assert.Len(w.points, 1)

	p := w.points[0]
	assert.Equal("syslog", p.Name())

	fields := fieldMap(p)
	assert.Equal("run failed", fields["message"])
	assert.Equal("redub", fields["service"])
	assert.Equal("intro", fields["dubbing.video_id"])
	assert.Equal("boom", fields["dubbing.err"])
}

func TestTee(t *testing.T) {
	assert := require.New(t)

	var info, debug bytes.Buffer
	logger := slog.New(slg.Tee(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)).With("run_id", "r1")

	logger.Debug("details")
	logger.Info("state")

	assert.NotContains(info.String(), "details")
	assert.Contains(info.String(), "state")
	assert.Contains(debug.String(), "details")
	assert.Contains(debug.String(), "run_id=r1")
}

func TestWithSlog(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx := slg.WithSlog(context.Background(), logger)
	require.Same(t, logger, slg.GetSlog(ctx))
	require.Same(t, slog.Default(), slg.GetSlog(context.Background()))
}
