package dubbing

import (
	"context"
	"fmt"
	"time"

	"redub/pkg/slg"
	"redub/pkg/timeline"

	"golang.org/x/sync/errgroup"
)

// clips holds one entry per cue. Silent cues keep an empty path and a zero length.
type clips struct {
	paths   []string
	lengths []float64
}

// synthesize renders every non-silent cue concurrently. Results are stored by
// cue index, so completion order doesn't matter. The first failure cancels
// the rest.
func (s *Service) synthesize(ctx context.Context, cues []timeline.Cue, voice string, sc *scratch) (*clips, error) {
	out := &clips{
		paths:   make([]string, len(cues)),
		lengths: make([]float64, len(cues)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.synthesisConcurrency())

	for i, cue := range cues {
		if cue.Silent() {
			continue
		}

		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = newError(KindResource, StateSynthesizingAudio, fmt.Errorf("cue %d: panic: %v", i, p))
				}
			}()

			path, length, err := s.synthesizeCue(gctx, i, cue.Text, voice, sc)
			if err != nil {
				return err
			}

			out.paths[i] = path
			out.lengths[i] = length

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Service) synthesizeCue(ctx context.Context, i int, text, voice string, sc *scratch) (string, float64, error) {
	logger := slg.GetSlog(ctx)
	start := time.Now()

	audio, err := s.synth.Synthesize(ctx, text, voice)
	if err != nil {
		return "", 0, newError(KindSynthesis, StateSynthesizingAudio, fmt.Errorf("cue %d: %w", i, err))
	}

	raw := sc.Path(".mp3")
	if err := writeFile(raw, audio); err != nil {
		return "", 0, newError(KindResource, StateSynthesizingAudio, fmt.Errorf("cue %d: write clip: %w", i, err))
	}

	clip := sc.Path(".wav")
	if err := s.transcoder.NormalizeClip(ctx, raw, clip); err != nil {
		return "", 0, newError(KindTranscode, StateSynthesizingAudio, fmt.Errorf("cue %d: %w", i, err))
	}

	length, err := s.transcoder.AudioLength(ctx, clip)
	if err != nil {
		return "", 0, newError(KindTranscode, StateSynthesizingAudio, fmt.Errorf("cue %d: measure clip: %w", i, err))
	}

	logger.Debug("clip synthesized", "cue", i, "chars", len(text), "length", length, "took", time.Since(start))

	return clip, length, nil
}
