package opencv

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

// Decoder reads frames with imread. Color frames come back in OpenCV's
// native BGR order.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) DecodeColor(ctx context.Context, ref entity.FrameRef) (*entity.Raster, error) {
	return d.read(ctx, ref, gocv.IMReadColor)
}

func (d *Decoder) DecodeGray(ctx context.Context, ref entity.FrameRef) (*entity.Raster, error) {
	return d.read(ctx, ref, gocv.IMReadGrayScale)
}

func (d *Decoder) read(ctx context.Context, ref entity.FrameRef, flags gocv.IMReadFlag) (*entity.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := gocv.IMRead(string(ref), flags)
	defer m.Close()
	if m.Empty() {
		return nil, fmt.Errorf("imread %s: unreadable or missing", ref)
	}
	r, err := toRaster(m)
	if err != nil {
		return nil, fmt.Errorf("imread %s: %w", ref, err)
	}
	return r, nil
}
