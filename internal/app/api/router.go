package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"redub/db"
	"redub/internal/app/dubbing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogchi "github.com/samber/slog-chi"
)

type Config struct {
	Port    int           `yaml:"port"`
	// Timeout bounds reading request headers. Dubbing runs themselves are
	// bounded by the dubbing run timeout.
	Timeout time.Duration `yaml:"timeout"`

	// MaxBodyBytes caps transcript uploads.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

func (c *Config) maxBodyBytes() int64 {
	if c.MaxBodyBytes <= 0 {
		return 1 << 20
	}
	return c.MaxBodyBytes
}

type Dubber interface {
	Update(ctx context.Context, req *dubbing.UpdateRequest) (*dubbing.Result, error)
	Exists(videoID string) bool
}

type ProgressFeed interface {
	Subscribe(ctx context.Context, videoID string) (<-chan dubbing.Event, error)
	Last(videoID string) (dubbing.Event, bool)
}

type TranscriptReader interface {
	GetVideo(ctx context.Context, videoID string) (*db.Video, error)
}

type API struct {
	logger *slog.Logger
	cfg    *Config

	dubber      Dubber
	feed        ProgressFeed
	transcripts TranscriptReader

	gatherer prometheus.Gatherer
}

func NewAPI(cfg *Config, logger *slog.Logger, dubber Dubber, feed ProgressFeed, transcripts TranscriptReader, gatherer prometheus.Gatherer) *API {
	if cfg == nil {
		cfg = &Config{}
	}

	return &API{
		cfg:    cfg,
		logger: logger,

		dubber:      dubber,
		feed:        feed,
		transcripts: transcripts,

		gatherer: gatherer,
	}
}

func (api *API) NewRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(slogchi.New(api.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.StripSlashes)

	router.Use(middleware.Recoverer)

	if api.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(api.gatherer, promhttp.HandlerOpts{}))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/videos/{video_id}", func(router chi.Router) {
		router.Put("/transcript", api.updateTranscript)
		router.Get("/transcript", api.getTranscript)
		router.Get("/progress", api.progressWS)
	})

	return router
}
