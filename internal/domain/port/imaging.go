package port

import (
	"context"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

// FrameDecoder reads one frame into memory. Decoding must not mutate the
// frame on disk, so repeated calls return equal rasters.
type FrameDecoder interface {
	DecodeColor(ctx context.Context, ref entity.FrameRef) (*entity.Raster, error)
	DecodeGray(ctx context.Context, ref entity.FrameRef) (*entity.Raster, error)
}

type Histogrammer interface {
	Histogram(r *entity.Raster) (entity.ColorHistogram, error)
}

// FlowEstimator computes dense optical flow between two rasters of equal
// size. Callers must check dimensions first.
type FlowEstimator interface {
	DenseFlow(prev, cur *entity.Raster) (*entity.FlowField, error)
}
