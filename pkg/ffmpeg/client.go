package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

type Config struct {
	TmpDir string `yaml:"tmp_dir"`

	FfmpegPath  string `yaml:"ffmpeg_path"`
	FfprobePath string `yaml:"ffprobe_path"`

	VideoCodec   string `yaml:"video_codec"`
	Preset       string `yaml:"preset"`
	CRF          int    `yaml:"crf"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
	SampleRate   int    `yaml:"sample_rate"`

	Verbose bool `yaml:"verbose"`
}

type Client struct {
	cfg *Config
}

func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	return &Client{
		cfg: cfg,
	}
}

func (c *Client) TmpDir() string {
	if c == nil || c.cfg == nil || c.cfg.TmpDir == "" {
		return os.TempDir()
	}
	return c.cfg.TmpDir
}

// TmpPath returns a fresh, not yet existing path in the temp dir.
func (c *Client) TmpPath(ext string) string {
	return filepath.Join(c.TmpDir(), "redub_"+uuid.NewString()+ext)
}

var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found")
	ErrFfprobeNotFound = errors.New("ffprobe not found")
)

// CheckDeps fails fast when the binaries can't be resolved.
func (c *Client) CheckDeps() error {
	if _, err := exec.LookPath(c.ffmpegBin()); err != nil {
		return fmt.Errorf("%w: %s", ErrFfmpegNotFound, c.ffmpegBin())
	}
	if _, err := exec.LookPath(c.ffprobeBin()); err != nil {
		return fmt.Errorf("%w: %s", ErrFfprobeNotFound, c.ffprobeBin())
	}

	return nil
}

func (c *Client) ffmpegBin() string {
	return valueOr(c.cfg.FfmpegPath, "ffmpeg")
}

func (c *Client) ffprobeBin() string {
	return valueOr(c.cfg.FfprobePath, "ffprobe")
}

func (c *Client) videoCodec() string {
	return valueOr(c.cfg.VideoCodec, "libx264")
}

func (c *Client) preset() string {
	return valueOr(c.cfg.Preset, "veryfast")
}

func (c *Client) crf() int {
	if c.cfg.CRF <= 0 {
		return 20
	}
	return c.cfg.CRF
}

func (c *Client) audioCodec() string {
	return valueOr(c.cfg.AudioCodec, "aac")
}

func (c *Client) audioBitrate() string {
	return valueOr(c.cfg.AudioBitrate, "192k")
}

func (c *Client) sampleRate() int {
	if c.cfg.SampleRate <= 0 {
		return 44100
	}
	return c.cfg.SampleRate
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
