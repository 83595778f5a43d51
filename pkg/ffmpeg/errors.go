package ffmpeg

import (
	"fmt"
	"strings"
)

type Stage string

const (
	StageNormalize Stage = "normalize"
	StageStrip     Stage = "strip"
	StageRemix     Stage = "remix"
)

const stderrTailLines = 20

// TranscodeError is a failed ffmpeg invocation. Stderr holds everything
// ffmpeg printed, Error() only its tail.
type TranscodeError struct {
	Stage  Stage
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	msg := fmt.Sprintf("ffmpeg %s: %v", e.Stage, e.Err)

	if tail := tailLines(e.Stderr, stderrTailLines); tail != "" {
		msg += "\nffmpeg output:\n" + tail
	}

	return msg
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

func tailLines(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return strings.Join(lines, "\n")
}
