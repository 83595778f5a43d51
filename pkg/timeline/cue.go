package timeline

import (
	"fmt"
	"math"
	"strings"
)

// NoCue marks a segment that doesn't belong to any cue.
const NoCue = -1

type ValidationError struct {
	Cue    int // NoCue when the error is not tied to a single cue
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Cue == NoCue {
		return "invalid timeline: " + e.Reason
	}

	return fmt.Sprintf("invalid cue %d: %s", e.Cue, e.Reason)
}

func invalid(cue int, format string, args ...any) error {
	return &ValidationError{
		Cue:    cue,
		Reason: fmt.Sprintf(format, args...),
	}
}

type Cue struct {
	Start TimeCode `json:"start"`
	End   TimeCode `json:"end"`
	Text  string   `json:"text"`
}

func (c Cue) Span() float64 {
	return c.End.Offset() - c.Start.Offset()
}

// Silent cues produce no narration.
func (c Cue) Silent() bool {
	return len(strings.TrimSpace(c.Text)) == 0
}

// RawCue is a cue as it arrives from the boundary, before time codes are parsed.
type RawCue struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

func ParseCues(raw []RawCue) ([]Cue, error) {
	cues := make([]Cue, 0, len(raw))

	for i, rc := range raw {
		start, err := ParseTimeCode(rc.Start)
		if err != nil {
			return nil, invalid(i, "start: %s", err)
		}

		end, err := ParseTimeCode(rc.End)
		if err != nil {
			return nil, invalid(i, "end: %s", err)
		}

		cues = append(cues, Cue{
			Start: start,
			End:   end,
			Text:  rc.Text,
		})
	}

	return cues, nil
}

// ValidateCues checks everything that can be checked before audio exists:
// ordering, overlaps, spans and the media bounds. Zero-span cues must be silent.
func ValidateCues(cues []Cue, totalDuration float64) error {
	if math.IsNaN(totalDuration) || math.IsInf(totalDuration, 0) || totalDuration < 0 {
		return invalid(NoCue, "bad total duration %v", totalDuration)
	}

	if totalDuration == 0 {
		return invalid(NoCue, "media has zero duration")
	}

	prevEnd := 0.0

	for i, cue := range cues {
		start, end := cue.Start.Offset(), cue.End.Offset()

		if !finite(start) || !finite(end) {
			return invalid(i, "non-finite offsets %v..%v", start, end)
		}

		if end < start {
			return invalid(i, "end %s before start %s", cue.End, cue.Start)
		}

		if end == start && !cue.Silent() {
			return invalid(i, "zero-length span at %s can't carry narration", cue.Start)
		}

		if i > 0 && start < prevEnd {
			return invalid(i, "starts at %s, before previous cue ends", cue.Start)
		}

		prevEnd = end
	}

	if len(cues) > 0 && totalDuration < prevEnd {
		return invalid(len(cues)-1, "ends at %.3fs, past media end %.3fs", prevEnd, totalDuration)
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
