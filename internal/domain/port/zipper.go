package port

import (
	"context"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

// Zipper bundles frames into a single archive, keeping their order.
type Zipper interface {
	CreateZip(ctx context.Context, frames []entity.FrameRef, outputPath string) error
}
