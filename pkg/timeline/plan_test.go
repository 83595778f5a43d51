package timeline_test

import (
	"errors"
	"testing"

	"redub/pkg/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cue(t *testing.T, start, end, text string) timeline.Cue {
	t.Helper()

	s, err := timeline.ParseTimeCode(start)
	require.NoError(t, err)
	e, err := timeline.ParseTimeCode(end)
	require.NoError(t, err)

	return timeline.Cue{Start: s, End: e, Text: text}
}

func requirePartition(t *testing.T, plan *timeline.Plan, total float64) {
	t.Helper()

	require.NotEmpty(t, plan.Segments)
	require.Equal(t, 0.0, plan.Segments[0].OriginalStart)
	require.InDelta(t, total, plan.Segments[len(plan.Segments)-1].OriginalEnd, 1e-9)

	spans := 0.0
	for i, seg := range plan.Segments {
		if i > 0 {
			require.Equal(t, plan.Segments[i-1].OriginalEnd, seg.OriginalStart, "segment %d", i)
		}
		require.GreaterOrEqual(t, seg.Span(), 0.0)
		spans += seg.Span()
	}
	require.InDelta(t, total, spans, 1e-9)
}

func TestBuildPlanScenario(t *testing.T) {
	assert := require.New(t)

	cues := []timeline.Cue{
		cue(t, "00:10", "00:15", "A"),
		cue(t, "00:20", "00:22", "B"),
	}

	plan, err := timeline.BuildPlan(cues, []float64{7.5, 1.0}, 100.0)
	assert.NoError(err)

	expected := []timeline.Segment{
		{Kind: timeline.Passthrough, OriginalStart: 0, OriginalEnd: 10, NewDuration: 10, StretchFactor: 1, CueIndex: timeline.NoCue},
		{Kind: timeline.Stretched, OriginalStart: 10, OriginalEnd: 15, NewDuration: 7.5, StretchFactor: 1.5, CueIndex: 0},
		{Kind: timeline.Passthrough, OriginalStart: 15, OriginalEnd: 20, NewDuration: 5, StretchFactor: 1, CueIndex: timeline.NoCue},
		{Kind: timeline.Stretched, OriginalStart: 20, OriginalEnd: 22, NewDuration: 1.0, StretchFactor: 0.5, CueIndex: 1},
		{Kind: timeline.Passthrough, OriginalStart: 22, OriginalEnd: 100, NewDuration: 78, StretchFactor: 1, CueIndex: timeline.NoCue},
	}

	assert.Equal(expected, plan.Segments)
	assert.Equal([]float64{10.0, 22.5}, plan.AudioDelays)
	assert.InDelta(101.5, plan.TotalDuration(), 1e-9)
	assert.True(plan.Retimed())

	requirePartition(t, plan, 100.0)
}

func TestBuildPlanEmptyCues(t *testing.T) {
	assert := require.New(t)

	plan, err := timeline.BuildPlan(nil, nil, 42.0)
	assert.NoError(err)

	assert.Len(plan.Segments, 1)
	assert.Equal(timeline.Passthrough, plan.Segments[0].Kind)
	assert.Equal(0.0, plan.Segments[0].OriginalStart)
	assert.Equal(42.0, plan.Segments[0].OriginalEnd)
	assert.Empty(plan.AudioDelays)
	assert.False(plan.Retimed())
}

func TestBuildPlanCueAtEdges(t *testing.T) {
	assert := require.New(t)

	cues := []timeline.Cue{
		cue(t, "00:00", "00:04", "first"),
		cue(t, "00:04", "00:08", "adjacent"),
		cue(t, "00:08", "00:10", "last"),
	}

	plan, err := timeline.BuildPlan(cues, []float64{2, 4, 3}, 10)
	assert.NoError(err)

	for _, seg := range plan.Segments {
		assert.Equal(timeline.Stretched, seg.Kind, "no passthrough expected between adjacent cues")
	}
	assert.Len(plan.Segments, 3)
	assert.Equal([]float64{0, 2, 6}, plan.AudioDelays)
	assert.InDelta(9.0, plan.TotalDuration(), 1e-9)

	requirePartition(t, plan, 10)
}

func TestBuildPlanMuteCue(t *testing.T) {
	assert := require.New(t)

	cues := []timeline.Cue{
		cue(t, "00:02", "00:05", ""),
		cue(t, "00:05", "00:05", " "),
	}

	plan, err := timeline.BuildPlan(cues, []float64{0, 0}, 8)
	assert.NoError(err)

	seg, ok := plan.CueSegment(0)
	assert.True(ok)
	assert.Equal(0.0, seg.NewDuration)
	assert.Equal(0.0, seg.StretchFactor)

	seg, ok = plan.CueSegment(1)
	assert.True(ok)
	assert.Equal(0.0, seg.Span())
	assert.Equal(1.0, seg.StretchFactor)

	assert.Equal([]float64{2, 2}, plan.AudioDelays)
	assert.InDelta(5.0, plan.TotalDuration(), 1e-9)

	requirePartition(t, plan, 8)
}

func TestBuildPlanProperties(t *testing.T) {
	cases := []struct {
		name    string
		cues    []timeline.Cue
		lengths []float64
		total   float64
	}{
		{
			name:    "sparse",
			cues:    []timeline.Cue{cue(t, "00:01", "00:02", "a"), cue(t, "00:30", "00:45", "b"), cue(t, "01:10", "01:11.5", "c")},
			lengths: []float64{3.25, 10, 0.75},
			total:   90,
		},
		{
			name:    "ends at media end",
			cues:    []timeline.Cue{cue(t, "00:05", "00:10", "a")},
			lengths: []float64{12},
			total:   10,
		},
		{
			name:    "long minutes",
			cues:    []timeline.Cue{cue(t, "75:00", "75:30", "a")},
			lengths: []float64{29.9},
			total:   4600,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := timeline.BuildPlan(tc.cues, tc.lengths, tc.total)
			require.NoError(t, err)

			requirePartition(t, plan, tc.total)

			passthrough, audio := 0.0, 0.0
			for _, seg := range plan.Segments {
				if seg.Kind == timeline.Passthrough {
					passthrough += seg.NewDuration
					assert.Equal(t, 1.0, seg.StretchFactor)
				} else {
					assert.InDelta(t, tc.lengths[seg.CueIndex]/seg.Span(), seg.StretchFactor, 1e-9)
				}
			}
			for _, l := range tc.lengths {
				audio += l
			}
			assert.InDelta(t, passthrough+audio, plan.TotalDuration(), 1e-9)

			require.Len(t, plan.AudioDelays, len(tc.cues))
			for i := range tc.cues {
				if i > 0 {
					assert.GreaterOrEqual(t, plan.AudioDelays[i], plan.AudioDelays[i-1])
				}

				before := 0.0
				for _, seg := range plan.Segments {
					if seg.CueIndex == i {
						break
					}
					before += seg.NewDuration
				}
				assert.InDelta(t, before, plan.AudioDelays[i], 1e-9, "cue %d", i)
			}
		})
	}
}

func TestBuildPlanValidation(t *testing.T) {
	cases := []struct {
		name    string
		cues    []timeline.Cue
		lengths []float64
		total   float64
		cue     int
	}{
		{
			name:    "overlap",
			cues:    []timeline.Cue{cue(t, "00:10", "00:15", "a"), cue(t, "00:14", "00:20", "b")},
			lengths: []float64{1, 1},
			total:   30,
			cue:     1,
		},
		{
			name:    "out of order",
			cues:    []timeline.Cue{cue(t, "00:20", "00:25", "a"), cue(t, "00:01", "00:02", "b")},
			lengths: []float64{1, 1},
			total:   30,
			cue:     1,
		},
		{
			name:    "negative span",
			cues:    []timeline.Cue{cue(t, "00:10", "00:05", "a")},
			lengths: []float64{1},
			total:   30,
			cue:     0,
		},
		{
			name:    "zero span with audio",
			cues:    []timeline.Cue{cue(t, "00:10", "00:10", "")},
			lengths: []float64{2},
			total:   30,
			cue:     0,
		},
		{
			name:    "zero span with text",
			cues:    []timeline.Cue{cue(t, "00:10", "00:10", "words")},
			lengths: []float64{0},
			total:   30,
			cue:     0,
		},
		{
			name:    "past media end",
			cues:    []timeline.Cue{cue(t, "00:10", "00:40", "a")},
			lengths: []float64{1},
			total:   30,
			cue:     0,
		},
		{
			name:    "negative audio",
			cues:    []timeline.Cue{cue(t, "00:10", "00:12", "a")},
			lengths: []float64{-1},
			total:   30,
			cue:     0,
		},
		{
			name:    "length mismatch",
			cues:    []timeline.Cue{cue(t, "00:10", "00:12", "a")},
			lengths: []float64{1, 2},
			total:   30,
			cue:     timeline.NoCue,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := timeline.BuildPlan(tc.cues, tc.lengths, tc.total)
			require.Error(t, err)
			require.Nil(t, plan)

			var verr *timeline.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.cue, verr.Cue)
		})
	}
}

func TestBuildPlanRejectsEmptyMedia(t *testing.T) {
	_, err := timeline.BuildPlan(nil, nil, 0)

	var verr *timeline.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Reason, "zero duration")
}
