// Package opencv implements the frame decoding, histogram and dense optical
// flow primitives on top of gocv.
package opencv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

// toRaster copies an 8-bit Mat into a Raster. The Mat is not closed.
func toRaster(m gocv.Mat) (*entity.Raster, error) {
	if m.Empty() {
		return nil, fmt.Errorf("empty mat")
	}
	ch := m.Channels()
	if ch != 1 && ch != 3 {
		return nil, fmt.Errorf("unsupported channel count %d", ch)
	}
	if m.Type() != gocv.MatTypeCV8UC1 && m.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("unsupported mat type %v", m.Type())
	}
	return &entity.Raster{
		Width:    m.Cols(),
		Height:   m.Rows(),
		Channels: ch,
		Pix:      m.ToBytes(),
	}, nil
}

// toMat wraps a Raster in a new Mat. The caller must close it.
func toMat(r *entity.Raster) (gocv.Mat, error) {
	if !r.Valid() {
		return gocv.NewMat(), fmt.Errorf("invalid raster")
	}
	mt := gocv.MatTypeCV8UC1
	if r.Channels == 3 {
		mt = gocv.MatTypeCV8UC3
	}
	return gocv.NewMatFromBytes(r.Height, r.Width, mt, r.Pix)
}
