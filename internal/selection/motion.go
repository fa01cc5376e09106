package selection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"github.com/fiapx/fiapx-keyframe-service/internal/domain/port"
	"go.uber.org/zap"
)

var errDimensionMismatch = errors.New("dimensions differ from previous frame")

// Motion selects frames whose mean optical flow against the previous
// decoded frame exceeds a threshold.
//
// The first frame is never selected since there is nothing to compare it
// against. This differs from Scene, which always keeps its first frame.
type Motion struct {
	decoder  port.FrameDecoder
	flow     port.FlowEstimator
	pipeline PipelineConfig
	logger   *zap.Logger
}

func NewMotion(decoder port.FrameDecoder, flow port.FlowEstimator, cfg PipelineConfig, logger *zap.Logger) *Motion {
	return &Motion{
		decoder:  decoder,
		flow:     flow,
		pipeline: cfg,
		logger:   logger.With(zap.String("selector", string(entity.StrategyMotion))),
	}
}

func (m *Motion) Select(ctx context.Context, frames []entity.FrameRef, threshold float64) ([]entity.FrameRef, error) {
	selected, _, err := m.SelectWithReport(ctx, frames, threshold)
	return selected, err
}

// SelectWithReport scans frames in order, comparing each decoded grayscale
// frame with the one decoded before it.
//
// A frame whose size differs from the previous one is not compared, but it
// becomes the new baseline so the scan continues at the new size. A frame
// that fails to decode, or whose flow cannot be computed, is dropped and
// leaves the baseline unchanged.
func (m *Motion) SelectWithReport(ctx context.Context, frames []entity.FrameRef, threshold float64) ([]entity.FrameRef, Report, error) {
	report := newReport(entity.StrategyMotion)
	if len(frames) == 0 {
		return nil, report, invalidInput("empty frame sequence")
	}
	if threshold < 0 || math.IsNaN(threshold) {
		return nil, report, invalidInput("threshold must be non-negative, got %v", threshold)
	}
	start := time.Now()

	var (
		prev     *entity.Raster
		selected []entity.FrameRef
	)

	err := scan(ctx, m.pipeline, frames, m.extract, func(ref entity.FrameRef, cur *entity.Raster, ferr *FrameError) error {
		report.Scanned++
		if ferr != nil {
			report.record(m.logger, ferr)
			return nil
		}
		if prev == nil {
			prev = cur
			return nil
		}
		if !prev.SameSize(cur) {
			report.record(m.logger, frameError(ref, OutcomeDimensionMismatch,
				fmt.Errorf("%w: %dx%d then %dx%d", errDimensionMismatch, prev.Width, prev.Height, cur.Width, cur.Height)))
			prev = cur
			return nil
		}

		var magnitude float64
		if fault := guarded(ref, func() error {
			field, err := m.flow.DenseFlow(prev, cur)
			if err != nil {
				return fmt.Errorf("dense flow: %w", err)
			}
			magnitude = field.MeanMagnitude()
			if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
				return fmt.Errorf("non-finite flow magnitude %v", magnitude)
			}
			return nil
		}); fault != nil {
			report.record(m.logger, fault)
			return nil
		}

		if magnitude > threshold {
			m.logger.Debug("motion detected", zap.String("frame", ref.String()), zap.Float64("magnitude", magnitude))
			selected = append(selected, ref)
		}
		prev = cur
		return nil
	})
	report.Duration = time.Since(start)
	if err != nil {
		return nil, report, err
	}
	report.Selected = len(selected)
	return selected, report, nil
}

func (m *Motion) extract(ctx context.Context, ref entity.FrameRef) (*entity.Raster, error) {
	raster, err := m.decoder.DecodeGray(ctx, ref)
	if err != nil {
		return nil, frameError(ref, OutcomeDecodeFailure, err)
	}
	if !raster.Valid() || raster.Channels != 1 {
		return nil, frameError(ref, OutcomeDecodeFailure, fmt.Errorf("unexpected grayscale raster: %s", describe(raster)))
	}
	return raster, nil
}
