package filtergraph

import (
	"errors"
	"fmt"
	"math"

	"redub/pkg/timeline"
)

const (
	videoOutLabel = "vout"
	audioOutLabel = "aout"
)

var ErrEmptyVideo = errors.New("every segment of the timeline has zero duration")

// Build turns plan into a graph. clipPaths[i] is the narration for cue i and
// may be empty only when the cue is mute.
func Build(plan *timeline.Plan, clipPaths []string) (*Graph, error) {
	if len(clipPaths) != len(plan.AudioDelays) {
		return nil, fmt.Errorf("%d clips for %d cues", len(clipPaths), len(plan.AudioDelays))
	}

	g := &Graph{
		VideoPassthrough: !plan.Retimed(),
		Duration:         plan.TotalDuration(),
	}

	if err := g.buildVideo(plan); err != nil {
		return nil, err
	}

	if err := g.buildAudio(plan, clipPaths); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Graph) buildVideo(plan *timeline.Plan) error {
	var parts []Link

	for i, seg := range plan.Segments {
		if seg.NewDuration <= 0 {
			continue
		}

		ops := []Op{
			{Kind: OpTrim, Start: seg.OriginalStart, End: seg.OriginalEnd},
			{Kind: OpResetPTS},
		}
		if seg.Kind == timeline.Stretched {
			ops = append(ops, Op{Kind: OpScalePTS, Factor: seg.StretchFactor})
		}

		out := Labeled(fmt.Sprintf("v%d", i))
		g.Nodes = append(g.Nodes, Node{
			In:  []Link{SourceLink(0, Video)},
			Ops: ops,
			Out: out,
		})
		parts = append(parts, out)
	}

	switch len(parts) {
	case 0:
		return ErrEmptyVideo
	case 1:
		g.Nodes[len(g.Nodes)-1].Out = Labeled(videoOutLabel)
	default:
		g.Nodes = append(g.Nodes, Node{
			In:  parts,
			Ops: []Op{{Kind: OpConcat, Inputs: len(parts)}},
			Out: Labeled(videoOutLabel),
		})
	}

	g.VideoOut = Labeled(videoOutLabel)

	return nil
}

func (g *Graph) buildAudio(plan *timeline.Plan, clipPaths []string) error {
	var delayed []Link

	for i, delay := range plan.AudioDelays {
		seg, ok := plan.CueSegment(i)
		if !ok {
			return fmt.Errorf("cue %d has no segment", i)
		}

		if seg.NewDuration <= 0 {
			continue
		}

		if clipPaths[i] == "" {
			return fmt.Errorf("cue %d has %.3fs of audio but no clip", i, seg.NewDuration)
		}

		g.AudioInputs = append(g.AudioInputs, clipPaths[i])

		out := Labeled(fmt.Sprintf("a%d", i))
		g.Nodes = append(g.Nodes, Node{
			In:  []Link{SourceLink(len(g.AudioInputs), Audio)},
			Ops: []Op{{Kind: OpDelay, DelayMs: DelayMillis(delay)}},
			Out: out,
		})
		delayed = append(delayed, out)
	}

	switch len(delayed) {
	case 0:
		return nil
	case 1:
		g.Nodes[len(g.Nodes)-1].Out = Labeled(audioOutLabel)
	default:
		g.Nodes = append(g.Nodes, Node{
			In:  delayed,
			Ops: []Op{{Kind: OpMix, Inputs: len(delayed)}},
			Out: Labeled(audioOutLabel),
		})
	}

	g.AudioOut = Labeled(audioOutLabel)

	return nil
}

// DelayMillis floors seconds to whole milliseconds. A value within a few ULPs
// of a whole millisecond counts as that millisecond, so 1.005s is 1005ms even
// though its float64 is slightly below.
func DelayMillis(seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}

	ms := seconds * 1000
	if r := math.Round(ms); math.Abs(ms-r) <= 1e-12*r {
		return int64(r)
	}

	return int64(math.Floor(ms))
}
