package selection

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/imaging"
)

const (
	tagA byte = 1
	tagB byte = 2
)

// chiFifty is at chi-square distance 50 from histA and 0 from itself.
var (
	histA     = hist(0.02, 0, 0)
	chiFifty  = hist(1.02, 0, 0)
	sceneHist = tagHistogrammer{tagA: histA, tagB: chiFifty}
)

func newTestScene(t *testing.T, seq []frame, h tagHistogrammer, cfg PipelineConfig) (*Scene, []entity.FrameRef) {
	t.Helper()
	dec, frames := newFakeDecoder(seq)
	return NewScene(dec, h, cfg, zaptest.NewLogger(t)), frames
}

func TestChiSquare(t *testing.T) {
	assert.InDelta(t, 50, ChiSquare(histA, chiFifty), 1e-3)
	assert.Zero(t, ChiSquare(chiFifty, chiFifty))

	// Bins that are empty in the first histogram are ignored.
	assert.Zero(t, ChiSquare(hist(0, 0, 0), hist(5, 5, 5)))
	assert.InDelta(t, 2.0, ChiSquare(hist(2, 0, 0), hist(4, 9, 0)), 1e-9)
}

func TestScene_IdenticalFramesKeepOnlyFirst(t *testing.T) {
	for _, pc := range pipelineConfigs {
		t.Run(pc.name, func(t *testing.T) {
			s, frames := newTestScene(t, []frame{{tag: tagA}, {tag: tagA}, {tag: tagA}, {tag: tagA}, {tag: tagA}}, sceneHist, pc.cfg)

			got, err := s.Select(context.Background(), frames, 10)
			require.NoError(t, err)
			assert.Equal(t, []entity.FrameRef{"f0"}, got)
		})
	}
}

func TestScene_SceneChangeAtFrameThree(t *testing.T) {
	for _, pc := range pipelineConfigs {
		t.Run(pc.name, func(t *testing.T) {
			s, frames := newTestScene(t, []frame{{tag: tagA}, {tag: tagA}, {tag: tagA}, {tag: tagB}, {tag: tagB}}, sceneHist, pc.cfg)

			got, report, err := s.SelectWithReport(context.Background(), frames, 30)
			require.NoError(t, err)
			assert.Equal(t, []entity.FrameRef{"f0", "f3"}, got)
			assert.Equal(t, 5, report.Scanned)
			assert.Equal(t, 2, report.Selected)
			assert.Zero(t, report.SkippedTotal())
		})
	}
}

func TestScene_FirstDecodableFrameIsBaseline(t *testing.T) {
	s, frames := newTestScene(t, []frame{{broken: true}, {tag: tagB}, {tag: tagB}}, sceneHist, PipelineConfig{})

	got, report, err := s.SelectWithReport(context.Background(), frames, 1000)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameRef{"f1"}, got)
	assert.Equal(t, 1, report.Skipped[OutcomeDecodeFailure])
}

func TestScene_AllFramesUndecodable(t *testing.T) {
	s, frames := newTestScene(t, []frame{{broken: true}, {broken: true}}, sceneHist, PipelineConfig{Lookahead: 2, Workers: 2})

	got, report, err := s.SelectWithReport(context.Background(), frames, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 2, report.SkippedTotal())
}

func TestScene_UndecodableFrameDoesNotMoveBaseline(t *testing.T) {
	s, frames := newTestScene(t, []frame{{tag: tagA}, {tag: tagB}, {broken: true}, {tag: tagB}}, sceneHist, PipelineConfig{})

	got, err := s.Select(context.Background(), frames, 30)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameRef{"f0", "f1"}, got)

	s, frames = newTestScene(t, []frame{{tag: tagA}, {tag: tagB, broken: true}, {tag: tagA}}, sceneHist, PipelineConfig{})
	got, err = s.Select(context.Background(), frames, 30)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameRef{"f0"}, got)
}

func TestScene_BaselineIsPreviousDecodedNotPreviousSelected(t *testing.T) {
	// Each step drifts by less than the threshold, the total drift is far
	// above it.
	drift := tagHistogrammer{1: hist(1, 0, 0), 2: hist(5, 0, 0), 3: hist(15, 0, 0), 4: hist(30, 0, 0)}
	s, frames := newTestScene(t, []frame{{tag: 1}, {tag: 2}, {tag: 3}, {tag: 4}}, drift, PipelineConfig{})

	got, err := s.Select(context.Background(), frames, 30)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameRef{"f0"}, got)
	assert.Greater(t, ChiSquare(drift[1], drift[4]), 30.0)
}

func TestScene_ProcessingFaultIsSkipped(t *testing.T) {
	seq := []frame{{tag: tagA}, {tag: tagA}, {tag: tagA, panicky: true}, {tag: 9}, {tag: tagB}}
	s, frames := newTestScene(t, seq, sceneHist, PipelineConfig{Lookahead: 2, Workers: 2})

	got, report, err := s.SelectWithReport(context.Background(), frames, 30)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameRef{"f0", "f4"}, got)
	assert.Equal(t, 2, report.Skipped[OutcomeProcessingFault])
}

func TestScene_ThresholdMonotone(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	thresholds := []float64{0, 0.1, 1, 5, 10, 30, 50, 200}

	for round := 0; round < 20; round++ {
		h := tagHistogrammer{}
		for tag := byte(1); tag <= 6; tag++ {
			h[tag] = hist(rng.Float32()*3, rng.Float32()*3, rng.Float32())
		}
		seq := make([]frame, 25)
		for i := range seq {
			seq[i] = frame{tag: byte(rng.IntN(6) + 1), broken: rng.IntN(8) == 0}
		}
		s, frames := newTestScene(t, seq, h, PipelineConfig{Lookahead: 4, Workers: 3})

		var prev []entity.FrameRef
		for i, th := range thresholds {
			got, err := s.Select(context.Background(), frames, th)
			require.NoError(t, err)
			assertOrdered(t, frames, got)
			if i > 0 {
				assert.Subset(t, prev, got, "threshold %v must select a subset of the lower threshold", th)
				assert.LessOrEqual(t, len(got), len(prev))
			}
			prev = got
		}
	}
}

func TestScene_InvalidInput(t *testing.T) {
	s, frames := newTestScene(t, []frame{{tag: tagA}}, sceneHist, PipelineConfig{})

	_, err := s.Select(context.Background(), nil, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Select(context.Background(), frames, -0.5)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Select(context.Background(), frames, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScene_Cancelled(t *testing.T) {
	for _, pc := range pipelineConfigs {
		t.Run(pc.name, func(t *testing.T) {
			s, frames := newTestScene(t, []frame{{tag: tagA}, {tag: tagB}, {tag: tagA}}, sceneHist, pc.cfg)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			got, err := s.Select(ctx, frames, 1)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Nil(t, got)
		})
	}
}

func TestScene_WithImagingHistogrammer(t *testing.T) {
	// Tag 10 and 11 are solid frames of different gray levels, so every
	// channel histogram moves to another bin between them.
	dec, frames := newFakeDecoder([]frame{{tag: 10}, {tag: 10}, {tag: 11}, {tag: 11}})
	s := NewScene(dec, imaging.NewHistogrammer(), DefaultPipelineConfig(), zaptest.NewLogger(t))

	got, err := s.Select(context.Background(), frames, 1)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameRef{"f0", "f2"}, got)
}

func assertOrdered(t *testing.T, input, got []entity.FrameRef) {
	t.Helper()
	pos := make(map[entity.FrameRef]int, len(input))
	for i, f := range input {
		pos[f] = i
	}
	last := -1
	for _, f := range got {
		i, ok := pos[f]
		require.True(t, ok, "%s not in input", f)
		require.Greater(t, i, last, "%s out of order", f)
		last = i
	}
}
