package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"redub/cfg"
	"redub/db"
	"redub/internal/app/api"
	"redub/internal/app/dubbing"
	"redub/internal/app/monitoring"
	"redub/internal/app/progress"
	"redub/pkg/ai"
	"redub/pkg/ffmpeg"
	"redub/pkg/s3client"
	"redub/pkg/slg"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxapi "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "cfg-path", "cfg/cfg.yaml", "path to config file")
	flag.Parse()

	conf, err := cfg.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	var influxWriter influxapi.WriteAPI
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, nil)

	if conf.InfluxDB.Enabled() {
		influxDBClient := influxdb2.NewClient(conf.InfluxDB.URL, conf.InfluxDB.Token)
		defer influxDBClient.Close()

		influxCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		ok, err := influxDBClient.Ping(influxCtx)
		cancel()
		if err != nil {
			log.Fatal("failed to ping influxdb: ", err)
		} else if !ok {
			log.Fatal("failed to ping influxdb")
		}

		influxWriter = influxDBClient.WriteAPI(conf.InfluxDB.Org, conf.InfluxDB.Bucket)
		defer influxWriter.Flush()

		handler = slg.Tee(handler, &slg.InfluxDBHandler{InfluxDBWriter: influxWriter})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	createDbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	database, err := db.New(createDbCtx, &conf.DB)
	if err != nil {
		log.Fatal("failed to init postgre db: ", err)
	}
	defer database.Close()

	transcoder := ffmpeg.New(&conf.Ffmpeg)
	if err := transcoder.CheckDeps(); err != nil {
		log.Fatal(err)
	}

	httpClient := &http.Client{
		Timeout: 2 * time.Minute,
	}
	elevenLabs := ai.NewElevenLabsClient(httpClient, &conf.ElevenLabs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := progress.NewFeed(logger.WithGroup("progress"))
	defer feed.Close()

	deps := dubbing.Deps{
		Synthesizer: elevenLabs,
		Transcoder:  transcoder,
		Store:       database,
		Observer:    feed,
	}

	if conf.S3.Enabled() {
		s3, err := s3client.New(ctx, &conf.S3)
		if err != nil {
			log.Fatal("failed to init s3 client: ", err)
		}
		deps.Mirror = s3
	}

	if conf.Dubbing.DefaultVoice == "" {
		conf.Dubbing.DefaultVoice = conf.ElevenLabs.DefaultVoice
	}
	if conf.Dubbing.TmpDir == "" {
		conf.Dubbing.TmpDir = transcoder.TmpDir()
	}

	service := dubbing.NewService(logger.WithGroup("dubbing"), &conf.Dubbing, deps)

	reg := prometheus.NewRegistry()
	monitoring.RegisterMetrics(reg)

	api := api.NewAPI(&conf.Api, logger.WithGroup("api"), service, feed, database, reg)

	router := api.NewRouter()

	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(conf.Api.Port),
		Handler:           router,
		ReadHeaderTimeout: headerTimeout(conf.Api.Timeout),
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		log.Fatal("failed to listen: ", err)
	}

	wg := sync.WaitGroup{}

	if influxWriter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()

			monitoring.ExportLoop(ctx, 5*time.Second, reg, influxWriter, logger.WithGroup("metrics"))
		}()
	}

	logger.Info("Starting server", "addr", srv.Addr)

	if err := serve(ctx, srv, ln, runTimeout(conf.Dubbing.RunTimeout), logger); err != nil {
		logger.Error("server finished", "err", err)
	}

	cancel()
	wg.Wait()
}

// serve runs srv on ln until ctx is done, then shuts it down. Requests in
// flight keep their contexts and get up to grace to finish, so running dubs
// complete or hit their own timeout.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration, logger *slog.Logger) error {
	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(ln)
	}()

	select {
	case err := <-served:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		logger.Info("Interrupt triggerred")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-served; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

func headerTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func runTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	return d
}
