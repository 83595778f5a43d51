package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/go-audio/wav"
)

type FfprobeResult struct {
	Duration time.Duration
}

type ffprobeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (c *Client) FfprobePath(ctx context.Context, path string) (*FfprobeResult, error) {
	cmd := exec.CommandContext(ctx, c.ffprobeBin(), "-v", "quiet", "-print_format", "json", "-show_format", path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	res, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("exec ffprobe: %w: %s", err, tailLines(stderr.String(), 5))
	}

	return parseFfprobe(res)
}

func parseFfprobe(res []byte) (*FfprobeResult, error) {
	var result *ffprobeResult
	if err := json.Unmarshal(res, &result); err != nil {
		return nil, fmt.Errorf("unmarshal json: %w", err)
	}

	if result == nil || result.Format.Duration == "" || result.Format.Duration == "N/A" {
		return nil, fmt.Errorf("no duration in ffprobe output")
	}

	dur, err := time.ParseDuration(result.Format.Duration + "s")
	if err != nil {
		return nil, fmt.Errorf("parse duration: %w", err)
	}

	return &FfprobeResult{
		Duration: dur,
	}, nil
}

// MediaDuration returns the container duration of path in seconds.
func (c *Client) MediaDuration(ctx context.Context, path string) (float64, error) {
	res, err := c.FfprobePath(ctx, path)
	if err != nil {
		return 0, err
	}

	return res.Duration.Seconds(), nil
}

// AudioLength decodes WAV headers directly and asks ffprobe about everything else.
func (c *Client) AudioLength(ctx context.Context, path string) (float64, error) {
	if dur, ok := wavDuration(path); ok {
		return dur.Seconds(), nil
	}

	return c.MediaDuration(ctx, path)
}

func wavDuration(path string) (time.Duration, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if d == nil || !d.IsValidFile() {
		return 0, false
	}

	dur, err := d.Duration()
	if err != nil {
		return 0, false
	}

	return dur, true
}
