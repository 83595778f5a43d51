package dubbing_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"redub/internal/app/dubbing"
	"redub/pkg/ffmpeg"
	"redub/pkg/filtergraph"
	"redub/pkg/timeline"

	"github.com/stretchr/testify/mock"
)

// fakeSynth "synthesizes" the text itself, so lengths can be looked up by text.
type fakeSynth struct {
	calls atomic.Int32

	err   error
	block bool
	panic bool
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	f.calls.Add(1)

	if f.panic {
		panic("synth exploded")
	}

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if f.err != nil {
		return nil, f.err
	}

	return []byte(text), nil
}

type fakeTranscoder struct {
	duration float64
	lengths  map[string]float64

	stripErr error
	remixErr error

	// remixDelay holds every remix for a while so overlapping runs show up
	remixDelay time.Duration
	active     atomic.Int32
	maxActive  atomic.Int32

	mu     sync.Mutex
	graphs []*filtergraph.Graph
}

func (f *fakeTranscoder) Transcode(ctx context.Context, g *filtergraph.Graph, video string, audio []string, out string, onStage func(ffmpeg.Stage)) error {
	onStage(ffmpeg.StageStrip)
	if f.stripErr != nil {
		return f.stripErr
	}

	if _, err := os.Stat(video); err != nil {
		return err
	}

	onStage(ffmpeg.StageRemix)
	return f.remix(g, audio, out)
}

func (f *fakeTranscoder) remix(g *filtergraph.Graph, audio []string, out string) error {
	n := f.active.Add(1)
	defer f.active.Add(-1)

	for {
		cur := f.maxActive.Load()
		if n <= cur || f.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.graphs = append(f.graphs, g)
	f.mu.Unlock()

	if f.remixDelay > 0 {
		time.Sleep(f.remixDelay)
	}

	for _, a := range audio {
		if _, err := os.Stat(a); err != nil {
			return fmt.Errorf("missing clip: %w", err)
		}
	}

	if f.remixErr != nil {
		// a half written output, like a killed ffmpeg leaves behind
		_ = os.WriteFile(out, []byte("partial"), 0o644)
		return f.remixErr
	}

	return os.WriteFile(out, []byte(fmt.Sprintf("remixed %d clips", len(audio))), 0o644)
}

func (f *fakeTranscoder) NormalizeClip(ctx context.Context, in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	return os.WriteFile(out, data, 0o644)
}

func (f *fakeTranscoder) MediaDuration(ctx context.Context, path string) (float64, error) {
	return f.duration, nil
}

func (f *fakeTranscoder) AudioLength(ctx context.Context, path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	length, ok := f.lengths[string(data)]
	if !ok {
		return 0, errors.New("unknown clip")
	}

	return length, nil
}

func (f *fakeTranscoder) lastGraph() *filtergraph.Graph {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.graphs) == 0 {
		return nil
	}
	return f.graphs[len(f.graphs)-1]
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) PersistTranscript(ctx context.Context, videoID string, cues []timeline.Cue) error {
	args := m.Called(ctx, videoID, cues)
	return args.Error(0)
}

type fakeMirror struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeMirror) MirrorAsset(ctx context.Context, videoID, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.paths = append(f.paths, path)
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []dubbing.Event
}

func (r *recorder) Observe(ev dubbing.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)
}

func (r *recorder) states() []dubbing.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make([]dubbing.State, 0, len(r.events))
	for _, ev := range r.events {
		states = append(states, ev.State)
	}

	return states
}

func (r *recorder) last() dubbing.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.events[len(r.events)-1]
}
