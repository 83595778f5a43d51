// Package dubbing replaces the narration of stored videos. A run validates a
// new transcript, synthesizes a clip per cue, retimes the video around the
// clips and atomically swaps the result in place of the old asset.
package dubbing

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	VideosDir string `yaml:"videos_dir"`
	VideoExt  string `yaml:"video_ext"`
	TmpDir    string `yaml:"tmp_dir"`

	SynthesisConcurrency int    `yaml:"synthesis_concurrency"`
	DefaultVoice         string `yaml:"default_voice"`

	RunTimeout time.Duration `yaml:"run_timeout"`
}

func (c *Config) videoExt() string {
	if c.VideoExt == "" {
		return ".mp4"
	}
	return c.VideoExt
}

func (c *Config) tmpDir() string {
	if c.TmpDir == "" {
		return os.TempDir()
	}
	return c.TmpDir
}

func (c *Config) synthesisConcurrency() int {
	if c.SynthesisConcurrency <= 0 {
		return 4
	}
	return c.SynthesisConcurrency
}

// Deps are the collaborators of the service. Mirror and Observer may be nil.
type Deps struct {
	Synthesizer AudioSynthesizer
	Transcoder  MediaTranscoder
	Store       MetadataStore
	Mirror      AssetMirror
	Observer    Observer
}

type Service struct {
	logger *slog.Logger
	cfg    *Config

	synth      AudioSynthesizer
	transcoder MediaTranscoder
	store      MetadataStore
	mirror     AssetMirror
	observer   Observer

	locks *videoLocks
}

func NewService(logger *slog.Logger, cfg *Config, deps Deps) *Service {
	if cfg == nil {
		cfg = &Config{}
	}

	return &Service{
		logger: logger,
		cfg:    cfg,

		synth:      deps.Synthesizer,
		transcoder: deps.Transcoder,
		store:      deps.Store,
		mirror:     deps.Mirror,
		observer:   deps.Observer,

		locks: newVideoLocks(),
	}
}

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]{0,127}$`)

// AssetPath is where the canonical asset of videoID is stored.
func (s *Service) AssetPath(videoID string) (string, error) {
	if !videoIDRe.MatchString(videoID) {
		return "", validationErr("bad video id %q", videoID)
	}

	return filepath.Join(s.cfg.VideosDir, videoID+s.cfg.videoExt()), nil
}

// Exists reports whether videoID has a stored asset.
func (s *Service) Exists(videoID string) bool {
	path, err := s.AssetPath(videoID)
	if err != nil {
		return false
	}

	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// run is the bookkeeping of one Update call.
type run struct {
	id      string
	videoID string

	logger   *slog.Logger
	observer Observer

	state   State
	entered time.Time

	scratch *scratch
	unlock  func()
}

func (s *Service) newRun(videoID string) *run {
	id := uuid.NewString()

	return &run{
		id:      id,
		videoID: videoID,

		logger:   s.logger.With("video_id", videoID, "run_id", id),
		observer: s.observer,

		state:   StateValidating,
		entered: time.Now(),

		scratch: newScratch(s.cfg.tmpDir()),
	}
}

func (r *run) enter(state State) {
	now := time.Now()
	metrics.StateSeconds.WithLabelValues(r.state.String()).Observe(now.Sub(r.entered).Seconds())

	r.state = state
	r.entered = now
	r.announce(Event{State: state})
}

func (r *run) failed(err *Error) {
	r.enter(StateError)

	metrics.Transitions.WithLabelValues(StateError.String()).Inc()
	r.logger.Error("run failed", "kind", err.Kind, "state", err.State, "err", err.Err)

	r.publish(Event{
		State:   StateError,
		Kind:    err.Kind.String(),
		Message: err.Err.Error(),
	})
}

// announce counts, logs and publishes a non-error transition.
func (r *run) announce(ev Event) {
	if ev.State == StateError {
		return
	}

	metrics.Transitions.WithLabelValues(ev.State.String()).Inc()
	r.logger.Info("run state", "state", ev.State)
	r.publish(ev)
}

func (r *run) publish(ev Event) {
	if r.observer == nil {
		return
	}

	ev.RunID = r.id
	ev.VideoID = r.videoID
	ev.Time = time.Now()

	r.observer.Observe(ev)
}

func (r *run) release() {
	if r.unlock != nil {
		r.unlock()
		r.unlock = nil
	}
}
