package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

func newTestMotion(t *testing.T, seq []frame, flow *tagFlow, cfg PipelineConfig) (*Motion, []entity.FrameRef) {
	t.Helper()
	dec, frames := newFakeDecoder(seq)
	return NewMotion(dec, flow, cfg, zaptest.NewLogger(t)), frames
}

func TestMotion_FirstFrameNeverSelected(t *testing.T) {
	for _, pc := range pipelineConfigs {
		t.Run(pc.name, func(t *testing.T) {
			flow := &tagFlow{motion: map[byte]float32{1: 5, 2: 5, 3: 5}}
			m, frames := newTestMotion(t, []frame{{tag: 1}, {tag: 2}, {tag: 3}}, flow, pc.cfg)

			got, err := m.Select(context.Background(), frames, 0)
			require.NoError(t, err)
			assert.Equal(t, []entity.FrameRef{"f1", "f2"}, got)
			assert.Equal(t, 2, flow.calls)
		})
	}
}

func TestMotion_StaticSequenceSelectsNothing(t *testing.T) {
	flow := &tagFlow{motion: map[byte]float32{}}
	m, frames := newTestMotion(t, []frame{{tag: 1}, {tag: 1}, {tag: 1}, {tag: 1}}, flow, PipelineConfig{})

	got, err := m.Select(context.Background(), frames, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMotion_Threshold(t *testing.T) {
	flow := &tagFlow{motion: map[byte]float32{1: 0, 2: 0.125, 3: 0.5, 4: 0.25}}
	m, frames := newTestMotion(t, []frame{{tag: 1}, {tag: 2}, {tag: 3}, {tag: 4}, {tag: 3}}, flow, PipelineConfig{Lookahead: 2, Workers: 2})

	// Strictly greater: a magnitude equal to the threshold is not motion.
	got, err := m.Select(context.Background(), frames, 0.25)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameRef{"f2", "f4"}, got)
}

func TestMotion_DimensionMismatchSkipsPairOnly(t *testing.T) {
	for _, pc := range pipelineConfigs {
		t.Run(pc.name, func(t *testing.T) {
			flow := &tagFlow{motion: map[byte]float32{1: 1, 2: 1, 3: 1}}
			seq := []frame{{tag: 1, w: 4, h: 4}, {tag: 2, w: 8, h: 6}, {tag: 3, w: 8, h: 6}}
			m, frames := newTestMotion(t, seq, flow, pc.cfg)

			got, report, err := m.SelectWithReport(context.Background(), frames, 0.5)
			require.NoError(t, err)
			assert.Equal(t, []entity.FrameRef{"f2"}, got)
			assert.Equal(t, 1, report.Skipped[OutcomeDimensionMismatch])
			assert.Zero(t, report.SkippedTotal())
			assert.Equal(t, 1, flow.calls)
		})
	}
}

func TestMotion_DecodeFailureKeepsBaseline(t *testing.T) {
	flow := &tagFlow{motion: map[byte]float32{3: 2}}
	seq := []frame{{tag: 1, w: 4, h: 4}, {tag: 2, broken: true}, {tag: 3, w: 4, h: 4}}
	m, frames := newTestMotion(t, seq, flow, PipelineConfig{})

	got, report, err := m.SelectWithReport(context.Background(), frames, 1)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameRef{"f2"}, got)
	assert.Equal(t, 1, report.Skipped[OutcomeDecodeFailure])
	assert.Equal(t, 3, report.Scanned)
}

func TestMotion_FlowFaultsAreSkipped(t *testing.T) {
	flow := &tagFlow{
		motion: map[byte]float32{2: 9, 3: 9, 4: 9},
		fail:   map[byte]bool{2: true},
		panics: map[byte]bool{3: true},
	}
	m, frames := newTestMotion(t, []frame{{tag: 1}, {tag: 2}, {tag: 3}, {tag: 4}}, flow, PipelineConfig{Lookahead: 4, Workers: 4})

	got, report, err := m.SelectWithReport(context.Background(), frames, 1)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameRef{"f3"}, got)
	assert.Equal(t, 2, report.Skipped[OutcomeProcessingFault])
}

func TestMotion_DecoderPanicIsSkipped(t *testing.T) {
	flow := &tagFlow{motion: map[byte]float32{3: 1}}
	m, frames := newTestMotion(t, []frame{{tag: 1}, {tag: 2, panicky: true}, {tag: 3}}, flow, PipelineConfig{Lookahead: 2, Workers: 1})

	got, report, err := m.SelectWithReport(context.Background(), frames, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameRef{"f2"}, got)
	assert.Equal(t, 1, report.Skipped[OutcomeProcessingFault])
}

func TestMotion_InvalidInput(t *testing.T) {
	m, frames := newTestMotion(t, []frame{{tag: 1}}, &tagFlow{}, PipelineConfig{})

	_, err := m.Select(context.Background(), frames, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = m.Select(context.Background(), []entity.FrameRef{}, 0.2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMotion_OrderPreserved(t *testing.T) {
	seq := make([]frame, 40)
	flow := &tagFlow{motion: map[byte]float32{}}
	for i := range seq {
		seq[i] = frame{tag: byte(i + 1), broken: i%7 == 3}
		if i%3 == 0 {
			flow.motion[byte(i+1)] = 1
		}
	}
	m, frames := newTestMotion(t, seq, flow, PipelineConfig{Lookahead: 5, Workers: 3})

	got, err := m.Select(context.Background(), frames, 0.5)
	require.NoError(t, err)
	assertOrdered(t, frames, got)
	assert.NotContains(t, got, frames[0])
}
