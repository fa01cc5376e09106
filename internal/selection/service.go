package selection

import (
	"context"
	"time"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Service dispatches a selection request to exactly one strategy.
type Service struct {
	uniform *Uniform
	scene   *Scene
	motion  *Motion
	logger  *zap.Logger
}

// NewService wires the available selectors. scene or motion may be nil when
// the running build has no primitive for them; requests for a missing
// strategy fail with ErrInvalidInput.
func NewService(uniform *Uniform, scene *Scene, motion *Motion, logger *zap.Logger) *Service {
	return &Service{
		uniform: uniform,
		scene:   scene,
		motion:  motion,
		logger:  logger,
	}
}

func (s *Service) Select(ctx context.Context, params entity.SelectionParams, frames []entity.FrameRef) ([]entity.FrameRef, Report, error) {
	tracer := otel.Tracer("selection")
	ctx, span := tracer.Start(ctx, "selection."+string(params.Strategy))
	defer span.End()

	span.SetAttributes(
		attribute.String("selection.strategy", string(params.Strategy)),
		attribute.Int("selection.frames", len(frames)),
	)

	var (
		selected []entity.FrameRef
		report   Report
		err      error
	)

	switch params.Strategy {
	case entity.StrategyUniform:
		if s.uniform == nil {
			return nil, newReport(params.Strategy), invalidInput("strategy %q is not available", params.Strategy)
		}
		start := time.Now()
		report = newReport(params.Strategy)
		selected, err = s.uniform.Select(frames, params.Count)
		report.Scanned = len(frames)
		report.Selected = len(selected)
		report.Duration = time.Since(start)
	case entity.StrategyScene:
		if s.scene == nil {
			return nil, newReport(params.Strategy), invalidInput("strategy %q is not available", params.Strategy)
		}
		selected, report, err = s.scene.SelectWithReport(ctx, frames, params.Threshold)
	case entity.StrategyMotion:
		if s.motion == nil {
			return nil, newReport(params.Strategy), invalidInput("strategy %q is not available", params.Strategy)
		}
		selected, report, err = s.motion.SelectWithReport(ctx, frames, params.Threshold)
	default:
		return nil, newReport(params.Strategy), invalidInput("unknown strategy %q", params.Strategy)
	}
	if err != nil {
		span.RecordError(err)
		return nil, report, err
	}

	s.observe(report)
	span.SetAttributes(attribute.Int("selection.selected", report.Selected))

	s.logger.Info("frames selected",
		zap.String("strategy", string(report.Strategy)),
		zap.Int("scanned", report.Scanned),
		zap.Int("selected", report.Selected),
		zap.Int("skipped", report.SkippedTotal()),
		zap.Duration("duration", report.Duration),
	)
	return selected, report, nil
}

func (s *Service) observe(r Report) {
	strategy := string(r.Strategy)
	metrics.FramesScannedTotal.WithLabelValues(strategy).Add(float64(r.Scanned))
	metrics.FramesSelectedTotal.WithLabelValues(strategy).Add(float64(r.Selected))
	for kind, n := range r.Skipped {
		metrics.FramesSkippedTotal.WithLabelValues(strategy, kind.String()).Add(float64(n))
	}
	metrics.SelectionDuration.WithLabelValues(strategy).Observe(r.Duration.Seconds())
}
