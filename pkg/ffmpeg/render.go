package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"redub/pkg/filtergraph"
)

// RenderFilter renders g as a -filter_complex script. Video nodes are left
// out when withVideo is false, which is how the stream-copy path maps the
// source video untouched.
func RenderFilter(g *filtergraph.Graph, withVideo bool) string {
	chains := make([]string, 0, len(g.Nodes))

	for _, n := range g.Nodes {
		if !withVideo && n.Stream() == filtergraph.Video {
			continue
		}

		chains = append(chains, renderNode(n))
	}

	return strings.Join(chains, ";")
}

func renderNode(n filtergraph.Node) string {
	var b strings.Builder

	for _, in := range n.In {
		b.WriteString("[" + in.String() + "]")
	}

	ops := make([]string, 0, len(n.Ops))
	for _, op := range n.Ops {
		ops = append(ops, renderOp(op))
	}
	b.WriteString(strings.Join(ops, ","))

	b.WriteString("[" + n.Out.String() + "]")

	return b.String()
}

func renderOp(op filtergraph.Op) string {
	switch op.Kind {
	case filtergraph.OpTrim:
		return fmt.Sprintf("trim=start=%s:end=%s", seconds(op.Start), seconds(op.End))
	case filtergraph.OpResetPTS:
		return "setpts=PTS-STARTPTS"
	case filtergraph.OpScalePTS:
		return fmt.Sprintf("setpts=%s*PTS", strconv.FormatFloat(op.Factor, 'f', -1, 64))
	case filtergraph.OpConcat:
		return fmt.Sprintf("concat=n=%d:v=1:a=0", op.Inputs)
	case filtergraph.OpDelay:
		// one value per channel, clips are normalized to stereo
		return fmt.Sprintf("adelay=%d|%d", op.DelayMs, op.DelayMs)
	case filtergraph.OpMix:
		// normalize=0 keeps every clip at its own level no matter how many overlap
		return fmt.Sprintf("amix=inputs=%d:duration=longest:dropout_transition=0:normalize=0", op.Inputs)
	default:
		return "null"
	}
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
