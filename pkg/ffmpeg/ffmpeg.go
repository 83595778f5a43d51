package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"
)

const waitDelay = 5 * time.Second

var errNoOutput = errors.New("no output produced")

// run executes ffmpeg and removes out on any failure, so a failed stage never
// leaves a partial file behind.
func (c *Client) run(ctx context.Context, stage Stage, out string, args []string) error {
	cmd := exec.CommandContext(ctx, c.ffmpegBin(), args...)
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if c.cfg.Verbose {
		cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)
	}

	err := cmd.Run()
	if err == nil {
		if _, statErr := os.Stat(out); statErr != nil {
			err = errNoOutput
		}
	}

	if err != nil {
		_ = os.Remove(out)

		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}

		return &TranscodeError{
			Stage:  stage,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

func baseArgs() []string {
	return []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error"}
}

// NormalizeArgs converts any audio input to stereo 16 bit PCM WAV.
func NormalizeArgs(in, out string, sampleRate int) []string {
	args := baseArgs()
	args = append(args,
		"-i", in,
		"-vn", "-sn", "-dn",
		"-ac", "2",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		out,
	)

	return args
}

// NormalizeClip rewrites a synthesized clip (usually mp3) into the WAV layout
// the remix stage expects.
func (c *Client) NormalizeClip(ctx context.Context, in, out string) error {
	return c.run(ctx, StageNormalize, out, NormalizeArgs(in, out, c.sampleRate()))
}
