// Package filtergraph describes the processing graph that retimes a video and
// lays new narration over it. It knows nothing about any transcoder's syntax;
// pkg/ffmpeg renders it.
package filtergraph

import "fmt"

type OpKind int

const (
	OpTrim      OpKind = iota + 1 // keep [Start, End) of the input
	OpResetPTS                    // restart timestamps at zero
	OpScalePTS                    // multiply timestamps by Factor
	OpConcat                      // join Inputs video streams in order
	OpDelay                       // delay all channels by DelayMs
	OpMix                         // sum Inputs audio streams, no normalization
)

func (k OpKind) String() string {
	switch k {
	case OpTrim:
		return "trim"
	case OpResetPTS:
		return "reset_pts"
	case OpScalePTS:
		return "scale_pts"
	case OpConcat:
		return "concat"
	case OpDelay:
		return "delay"
	case OpMix:
		return "mix"
	default:
		return "unknown"
	}
}

type Op struct {
	Kind OpKind

	Start float64
	End   float64

	Factor float64

	DelayMs int64

	Inputs int
}

type StreamType int

const (
	Video StreamType = iota + 1
	Audio
)

// Link names an edge of the graph. Source links point at a stream of an input
// file, internal links carry a Label.
type Link struct {
	Label string

	Input  int
	Stream StreamType
}

func (l Link) IsSource() bool {
	return l.Label == ""
}

func (l Link) String() string {
	if !l.IsSource() {
		return l.Label
	}

	if l.Stream == Audio {
		return fmt.Sprintf("%d:a", l.Input)
	}

	return fmt.Sprintf("%d:v", l.Input)
}

func SourceLink(input int, stream StreamType) Link {
	return Link{Input: input, Stream: stream}
}

func Labeled(label string) Link {
	return Link{Label: label}
}

// Node is a chain of ops applied in order to In, producing Out.
type Node struct {
	In  []Link
	Ops []Op
	Out Link
}

type Graph struct {
	Nodes []Node

	// Input 0 is the video; AudioInputs[k] is input k+1.
	AudioInputs []string

	VideoOut Link
	AudioOut Link

	// VideoPassthrough is set when the video chain is the identity, so the
	// source video can be copied instead of filtered.
	VideoPassthrough bool

	Duration float64
}

func (g *Graph) HasAudio() bool {
	return g.AudioOut.Label != ""
}

// VideoNodes returns the nodes that feed the video output, in order.
func (g *Graph) VideoNodes() []Node {
	return g.nodesOf(Video)
}

func (g *Graph) AudioNodes() []Node {
	return g.nodesOf(Audio)
}

func (g *Graph) nodesOf(stream StreamType) []Node {
	var nodes []Node

	for _, n := range g.Nodes {
		if n.Stream() == stream {
			nodes = append(nodes, n)
		}
	}

	return nodes
}

// Stream reports which kind of stream the node produces.
func (n Node) Stream() StreamType {
	for _, op := range n.Ops {
		switch op.Kind {
		case OpTrim, OpResetPTS, OpScalePTS, OpConcat:
			return Video
		case OpDelay, OpMix:
			return Audio
		}
	}

	return 0
}
