// Package primitives assembles the selection service from the image
// backends available to the process.
package primitives

import (
	"fmt"

	"github.com/fiapx/fiapx-keyframe-service/internal/infra/imaging"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/opencv"
	"github.com/fiapx/fiapx-keyframe-service/internal/selection"
	"go.uber.org/zap"
)

const (
	BackendOpenCV  = "opencv"
	BackendImaging = "imaging"
)

// NewSelectionService wires every selector the backend supports. The
// imaging backend has no optical flow, so motion requests fail with
// selection.ErrInvalidInput under it.
func NewSelectionService(backend string, pipeline selection.PipelineConfig, logger *zap.Logger) (*selection.Service, error) {
	var (
		scene  *selection.Scene
		motion *selection.Motion
	)
	switch backend {
	case BackendOpenCV:
		decoder := opencv.NewDecoder()
		scene = selection.NewScene(decoder, opencv.NewHistogrammer(), pipeline, logger)
		motion = selection.NewMotion(decoder, opencv.NewFlowEstimator(opencv.DefaultFarnebackParams()), pipeline, logger)
	case BackendImaging:
		scene = selection.NewScene(imaging.NewDecoder(true), imaging.NewHistogrammer(), pipeline, logger)
	default:
		return nil, fmt.Errorf("unknown image backend %q", backend)
	}

	logger.Info("selection service ready",
		zap.String("backend", backend),
		zap.Bool("motion", motion != nil),
		zap.Int("lookahead", pipeline.Lookahead),
		zap.Int("workers", pipeline.Workers),
	)
	return selection.NewService(selection.NewUniform(), scene, motion, logger), nil
}
