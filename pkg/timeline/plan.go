package timeline

import "math"

type SegmentKind int

const (
	Passthrough SegmentKind = iota
	Stretched
)

func (k SegmentKind) String() string {
	switch k {
	case Passthrough:
		return "passthrough"
	case Stretched:
		return "stretched"
	default:
		return "unknown"
	}
}

// Segment is a slice [OriginalStart, OriginalEnd) of the source timeline and
// the duration it occupies on the new timeline.
type Segment struct {
	Kind SegmentKind

	OriginalStart float64
	OriginalEnd   float64

	NewDuration   float64
	StretchFactor float64

	CueIndex int
}

func (s Segment) Span() float64 {
	return s.OriginalEnd - s.OriginalStart
}

type Plan struct {
	Segments []Segment

	// AudioDelays[i] is where cue i's audio starts on the new timeline.
	AudioDelays []float64

	SourceDuration float64
}

// TotalDuration is the length of the retimed output.
func (p *Plan) TotalDuration() float64 {
	total := 0.0
	for _, seg := range p.Segments {
		total += seg.NewDuration
	}

	return total
}

// CueSegment returns the segment owned by cue i.
func (p *Plan) CueSegment(i int) (Segment, bool) {
	for _, seg := range p.Segments {
		if seg.Kind == Stretched && seg.CueIndex == i {
			return seg, true
		}
	}

	return Segment{}, false
}

// Retimed reports whether any segment plays at a speed other than the original.
func (p *Plan) Retimed() bool {
	for _, seg := range p.Segments {
		if seg.StretchFactor != 1.0 {
			return true
		}
	}

	return false
}

// BuildPlan partitions [0, totalDuration] into passthrough gaps and one
// stretched segment per cue, sized to the cue's audio length.
func BuildPlan(cues []Cue, audioLengths []float64, totalDuration float64) (*Plan, error) {
	if len(audioLengths) != len(cues) {
		return nil, invalid(NoCue, "%d audio lengths for %d cues", len(audioLengths), len(cues))
	}

	if err := ValidateCues(cues, totalDuration); err != nil {
		return nil, err
	}

	for i, length := range audioLengths {
		if math.IsNaN(length) || math.IsInf(length, 0) || length < 0 {
			return nil, invalid(i, "bad audio length %v", length)
		}

		if cues[i].Span() == 0 && length > 0 {
			return nil, invalid(i, "zero-length span with %.3fs of audio", length)
		}
	}

	plan := &Plan{
		Segments:       make([]Segment, 0, 2*len(cues)+1),
		AudioDelays:    make([]float64, 0, len(cues)),
		SourceDuration: totalDuration,
	}

	cursor, newTime := 0.0, 0.0

	for i, cue := range cues {
		start, end := cue.Start.Offset(), cue.End.Offset()

		if start > cursor {
			gap := start - cursor
			plan.Segments = append(plan.Segments, Segment{
				Kind:          Passthrough,
				OriginalStart: cursor,
				OriginalEnd:   start,
				NewDuration:   gap,
				StretchFactor: 1.0,
				CueIndex:      NoCue,
			})

			newTime += gap
			cursor = start
		}

		factor := 1.0
		if span := end - start; span > 0 {
			factor = audioLengths[i] / span
		}

		plan.Segments = append(plan.Segments, Segment{
			Kind:          Stretched,
			OriginalStart: start,
			OriginalEnd:   end,
			NewDuration:   audioLengths[i],
			StretchFactor: factor,
			CueIndex:      i,
		})
		plan.AudioDelays = append(plan.AudioDelays, newTime)

		newTime += audioLengths[i]
		cursor = end
	}

	if cursor < totalDuration {
		plan.Segments = append(plan.Segments, Segment{
			Kind:          Passthrough,
			OriginalStart: cursor,
			OriginalEnd:   totalDuration,
			NewDuration:   totalDuration - cursor,
			StretchFactor: 1.0,
			CueIndex:      NoCue,
		})
	}

	return plan, nil
}
