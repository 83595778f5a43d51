package dubbing

import (
	"context"

	"redub/pkg/ffmpeg"
	"redub/pkg/filtergraph"
	"redub/pkg/timeline"
)

// AudioSynthesizer turns narration text into encoded audio.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// MediaTranscoder runs the external media tool.
type MediaTranscoder interface {
	// Transcode strips the audio of video and remixes it with audio into out.
	// onStage is called before each of the two stages starts.
	Transcode(ctx context.Context, g *filtergraph.Graph, video string, audio []string, out string, onStage func(ffmpeg.Stage)) error
	NormalizeClip(ctx context.Context, in, out string) error
	MediaDuration(ctx context.Context, path string) (float64, error)
	AudioLength(ctx context.Context, path string) (float64, error)
}

// MetadataStore keeps the transcript that matches the committed asset.
type MetadataStore interface {
	PersistTranscript(ctx context.Context, videoID string, cues []timeline.Cue) error
}

// AssetMirror copies committed assets somewhere else. Optional.
type AssetMirror interface {
	MirrorAsset(ctx context.Context, videoID, path string) error
}

// Observer is told about every state a run enters. Optional, must not block.
type Observer interface {
	Observe(Event)
}
