package port

import (
	"context"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

type FrameExtractionResult struct {
	Frames        []entity.FrameRef
	FrameCount    int
	VideoDuration float64
}

type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath string, outputDir string, fps int) (*FrameExtractionResult, error)
}
