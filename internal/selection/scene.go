package selection

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"github.com/fiapx/fiapx-keyframe-service/internal/domain/port"
	"go.uber.org/zap"
)

// histEpsilon matches DBL_EPSILON; bins of the reference histogram at or
// below it do not contribute to the chi-square distance.
const histEpsilon = 2.220446049250313e-16

// Scene selects frames at color histogram discontinuities.
type Scene struct {
	decoder  port.FrameDecoder
	hist     port.Histogrammer
	pipeline PipelineConfig
	logger   *zap.Logger
}

func NewScene(decoder port.FrameDecoder, hist port.Histogrammer, cfg PipelineConfig, logger *zap.Logger) *Scene {
	return &Scene{
		decoder:  decoder,
		hist:     hist,
		pipeline: cfg,
		logger:   logger.With(zap.String("selector", string(entity.StrategyScene))),
	}
}

func (s *Scene) Select(ctx context.Context, frames []entity.FrameRef, threshold float64) ([]entity.FrameRef, error) {
	selected, _, err := s.SelectWithReport(ctx, frames, threshold)
	return selected, err
}

// SelectWithReport always keeps the first decodable frame, then keeps every
// frame whose chi-square distance to the previous decoded frame exceeds
// threshold. Frames that fail to decode are dropped and do not become the
// comparison baseline.
func (s *Scene) SelectWithReport(ctx context.Context, frames []entity.FrameRef, threshold float64) ([]entity.FrameRef, Report, error) {
	report := newReport(entity.StrategyScene)
	if len(frames) == 0 {
		return nil, report, invalidInput("empty frame sequence")
	}
	if threshold < 0 || math.IsNaN(threshold) {
		return nil, report, invalidInput("threshold must be non-negative, got %v", threshold)
	}
	start := time.Now()

	var (
		prev     *entity.ColorHistogram
		selected []entity.FrameRef
	)

	err := scan(ctx, s.pipeline, frames, s.extract, func(ref entity.FrameRef, cur entity.ColorHistogram, ferr *FrameError) error {
		report.Scanned++
		if ferr != nil {
			report.record(s.logger, ferr)
			return nil
		}
		if prev == nil {
			selected = append(selected, ref)
		} else if d := ChiSquare(*prev, cur); d > threshold {
			s.logger.Debug("scene change", zap.String("frame", ref.String()), zap.Float64("distance", d))
			selected = append(selected, ref)
		}
		prev = &cur
		return nil
	})
	report.Duration = time.Since(start)
	if err != nil {
		return nil, report, err
	}
	report.Selected = len(selected)
	return selected, report, nil
}

func (s *Scene) extract(ctx context.Context, ref entity.FrameRef) (entity.ColorHistogram, error) {
	raster, err := s.decoder.DecodeColor(ctx, ref)
	if err != nil {
		return entity.ColorHistogram{}, frameError(ref, OutcomeDecodeFailure, err)
	}
	if !raster.Valid() || raster.Channels != 3 {
		return entity.ColorHistogram{}, frameError(ref, OutcomeDecodeFailure,
			fmt.Errorf("unexpected color raster: %s", describe(raster)))
	}
	h, err := s.hist.Histogram(raster)
	if err != nil {
		return entity.ColorHistogram{}, frameError(ref, OutcomeProcessingFault, fmt.Errorf("histogram: %w", err))
	}
	return h, nil
}

// ChiSquare returns sum((a-b)^2 / a) over bins where a is non-zero.
func ChiSquare(a, b entity.ColorHistogram) float64 {
	var d float64
	for i := range a {
		ai := float64(a[i])
		if math.Abs(ai) <= histEpsilon {
			continue
		}
		diff := ai - float64(b[i])
		d += diff * diff / ai
	}
	return d
}
