package dubbing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/debug"

	"redub/pkg/ffmpeg"
	"redub/pkg/filtergraph"
	"redub/pkg/slg"
	"redub/pkg/timeline"
)

type UpdateRequest struct {
	VideoID   string
	Voice     string
	Subtitles []timeline.RawCue
}

type Result struct {
	RunID   string
	VideoID string

	// Duration of the committed asset, in seconds.
	Duration float64

	// MediaUpdated is true once the new asset replaced the old one. It stays
	// true when the run fails afterwards.
	MediaUpdated      bool
	MetadataPersisted bool

	Plan *timeline.Plan
}

// Update replaces the narration of a video with req.Subtitles. On failure the
// stored asset is either untouched or, when Result.MediaUpdated is set,
// already fully replaced. The returned error is always an *Error.
func (s *Service) Update(ctx context.Context, req *UpdateRequest) (*Result, error) {
	r := s.newRun(req.VideoID)
	ctx = slg.WithSlog(ctx, r.logger)

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()

	res := &Result{
		RunID:   r.id,
		VideoID: req.VideoID,
	}

	r.announce(Event{State: StateValidating})

	err := s.execute(ctx, r, req, res)

	if cerr := r.scratch.Cleanup(); cerr != nil {
		metrics.CleanupErrors.Inc()
		r.logger.Warn("failed to clean up scratch files", "err", cerr)
	}

	defer r.release()

	if err != nil {
		runErr := classify(ctx, r.state, res, err)
		r.failed(runErr)
		metrics.Runs.WithLabelValues(runErr.Kind.String()).Inc()

		return res, runErr
	}

	r.enter(StateDone)
	metrics.Runs.WithLabelValues("ok").Inc()

	return res, nil
}

func (s *Service) execute(ctx context.Context, r *run, req *UpdateRequest, res *Result) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("run panicked", "panic", p, "stack", string(debug.Stack()))
			err = newError(KindResource, r.state, fmt.Errorf("panic: %v", p))
		}
	}()

	asset, err := s.AssetPath(req.VideoID)
	if err != nil {
		return err
	}

	cues, err := timeline.ParseCues(req.Subtitles)
	if err != nil {
		return err
	}

	r.unlock, err = s.locks.Lock(ctx, req.VideoID)
	if err != nil {
		return newError(KindCanceled, StateValidating, fmt.Errorf("waiting for video lock: %w", err))
	}

	if info, err := os.Stat(asset); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newError(KindNotFound, StateValidating, fmt.Errorf("video %s: %w", req.VideoID, err))
		}
		return newError(KindResource, StateValidating, err)
	} else if !info.Mode().IsRegular() {
		return newError(KindNotFound, StateValidating, fmt.Errorf("video %s is not a regular file", req.VideoID))
	}

	total, err := s.transcoder.MediaDuration(ctx, asset)
	if err != nil {
		return newError(KindTranscode, StateValidating, fmt.Errorf("probe asset: %w", err))
	}

	if err := timeline.ValidateCues(cues, total); err != nil {
		return err
	}

	voice := req.Voice
	if voice == "" {
		voice = s.cfg.DefaultVoice
	}

	r.enter(StateSynthesizingAudio)
	clips, err := s.synthesize(ctx, cues, voice, r.scratch)
	if err != nil {
		return err
	}

	r.enter(StatePlanning)
	plan, err := timeline.BuildPlan(cues, clips.lengths, total)
	if err != nil {
		return err
	}
	res.Plan = plan

	r.enter(StateBuildingGraph)
	graph, err := filtergraph.Build(plan, clips.paths)
	if err != nil {
		return newError(KindValidation, StateBuildingGraph, err)
	}

	r.enter(StateExtractingVideo)
	staged := r.scratch.Track(stagingPath(asset))
	err = s.transcoder.Transcode(ctx, graph, asset, graph.AudioInputs, staged, func(stage ffmpeg.Stage) {
		if stage == ffmpeg.StageRemix {
			r.enter(StateRemixing)
		}
	})
	if err != nil {
		return newError(KindTranscode, r.state, err)
	}

	r.enter(StateSwapping)
	if err := ctx.Err(); err != nil {
		return newError(KindCanceled, StateSwapping, err)
	}

	if err := swap(staged, asset); err != nil {
		return newError(KindResource, StateSwapping, err)
	}
	r.scratch.Forget(staged)

	res.MediaUpdated = true
	res.Duration = plan.TotalDuration()

	// the new asset is committed, nothing after this point may be canceled
	ctx = context.WithoutCancel(ctx)

	r.enter(StatePersistingMetadata)
	if err := s.store.PersistTranscript(ctx, req.VideoID, cues); err != nil {
		return newError(KindPersistence, StatePersistingMetadata, err)
	}
	res.MetadataPersisted = true

	if s.mirror != nil {
		if err := s.mirror.MirrorAsset(ctx, req.VideoID, asset); err != nil {
			r.logger.Warn("failed to mirror asset", "err", err)
		}
	}

	return nil
}

// classify turns whatever execute returned into an *Error. Failures caused by
// the caller going away are reported as canceled unless the asset was
// already replaced.
func classify(ctx context.Context, state State, res *Result, err error) *Error {
	var runErr *Error
	if !errors.As(err, &runErr) {
		kind := KindOf(err)
		if kind == KindUnknown {
			kind = KindResource
		}
		runErr = newError(kind, state, err)
	}

	if res.MediaUpdated || ctx.Err() == nil {
		return runErr
	}

	switch runErr.Kind {
	case KindValidation, KindNotFound, KindPersistence, KindCanceled:
		return runErr
	default:
		return newError(KindCanceled, runErr.State, fmt.Errorf("%w: %w", ctx.Err(), runErr.Err))
	}
}
