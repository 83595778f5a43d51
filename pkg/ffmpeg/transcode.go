package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"redub/pkg/filtergraph"
)

// EncodeOptions are the codec settings of the remix stage.
type EncodeOptions struct {
	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
	SampleRate   int
}

func (c *Client) encodeOptions() EncodeOptions {
	return EncodeOptions{
		VideoCodec:   c.videoCodec(),
		Preset:       c.preset(),
		CRF:          c.crf(),
		AudioCodec:   c.audioCodec(),
		AudioBitrate: c.audioBitrate(),
		SampleRate:   c.sampleRate(),
	}
}

// StripArgs copies the first video stream of in and drops everything else.
func StripArgs(in, out string) []string {
	args := baseArgs()
	args = append(args,
		"-i", in,
		"-map", "0:v:0",
		"-c:v", "copy",
		"-an", "-sn", "-dn",
	)
	args = append(args, containerArgs(out)...)

	return append(args, out)
}

// RemixArgs applies g to the silent video and the narration clips.
func RemixArgs(g *filtergraph.Graph, video string, audio []string, out string, opts EncodeOptions) []string {
	args := baseArgs()

	args = append(args, "-i", video)
	for _, a := range audio {
		args = append(args, "-i", a)
	}

	if script := RenderFilter(g, !g.VideoPassthrough); script != "" {
		args = append(args, "-filter_complex", script)
	}

	if g.VideoPassthrough {
		args = append(args, "-map", "0:v:0", "-c:v", "copy")
	} else {
		args = append(args,
			"-map", "["+g.VideoOut.String()+"]",
			"-c:v", opts.VideoCodec,
			"-preset", opts.Preset,
			"-crf", strconv.Itoa(opts.CRF),
			"-pix_fmt", "yuv420p",
		)
	}

	if g.HasAudio() {
		args = append(args,
			"-map", "["+g.AudioOut.String()+"]",
			"-c:a", opts.AudioCodec,
			"-b:a", opts.AudioBitrate,
			"-ar", strconv.Itoa(opts.SampleRate),
		)
	} else {
		args = append(args, "-an")
	}

	args = append(args, "-sn", "-dn")
	args = append(args, containerArgs(out)...)

	return append(args, out)
}

func containerArgs(out string) []string {
	switch strings.ToLower(filepath.Ext(out)) {
	case ".mp4", ".mov", ".m4v":
		return []string{"-movflags", "+faststart"}
	default:
		return nil
	}
}

// Strip writes a copy of in without any audio, subtitle or data streams.
func (c *Client) Strip(ctx context.Context, in, out string) error {
	return c.run(ctx, StageStrip, out, StripArgs(in, out))
}

func (c *Client) Remix(ctx context.Context, g *filtergraph.Graph, video string, audio []string, out string) error {
	if len(audio) != len(g.AudioInputs) {
		return &TranscodeError{
			Stage: StageRemix,
			Err:   fmt.Errorf("graph expects %d audio inputs, got %d", len(g.AudioInputs), len(audio)),
		}
	}

	return c.run(ctx, StageRemix, out, RemixArgs(g, video, audio, out, c.encodeOptions()))
}

// Transcode runs both stages: it strips the audio of videoInput into a silent
// copy in the temp dir, then remixes that copy with audioInputs into output.
// onStage, when set, is called right before each stage starts. The silent
// copy never outlives the call.
func (c *Client) Transcode(ctx context.Context, g *filtergraph.Graph, videoInput string, audioInputs []string, output string, onStage func(Stage)) error {
	ext := filepath.Ext(videoInput)
	if ext == "" {
		ext = ".mkv"
	}

	silent := c.TmpPath(ext)
	defer os.Remove(silent)

	if onStage != nil {
		onStage(StageStrip)
	}
	if err := c.Strip(ctx, videoInput, silent); err != nil {
		return err
	}

	if onStage != nil {
		onStage(StageRemix)
	}
	return c.Remix(ctx, g, silent, audioInputs, output)
}
