// Package imaging decodes frames and computes color histograms in pure Go.
// It has no flow estimator; the motion strategy needs the opencv package.
package imaging

import (
	"context"
	"fmt"
	"image"

	imaginggo "github.com/disintegration/imaging"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

type Decoder struct {
	autoOrient bool
}

// NewDecoder returns a decoder for any format registered with image.Decode
// plus the formats the imaging package adds (bmp, tiff). autoOrient applies
// the EXIF orientation tag of JPEG frames.
func NewDecoder(autoOrient bool) *Decoder {
	return &Decoder{autoOrient: autoOrient}
}

func (d *Decoder) DecodeColor(ctx context.Context, ref entity.FrameRef) (*entity.Raster, error) {
	img, err := d.open(ctx, ref)
	if err != nil {
		return nil, err
	}
	return ToBGR(img), nil
}

func (d *Decoder) DecodeGray(ctx context.Context, ref entity.FrameRef) (*entity.Raster, error) {
	img, err := d.open(ctx, ref)
	if err != nil {
		return nil, err
	}
	return ToGray(img), nil
}

func (d *Decoder) open(ctx context.Context, ref entity.FrameRef) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imaginggo.Open(string(ref), imaginggo.AutoOrientation(d.autoOrient))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode %s: empty image", ref)
	}
	return img, nil
}

// ToBGR converts img into a 3-channel raster in BGR order. Alpha is
// dropped.
func ToBGR(img image.Image) *entity.Raster {
	src := imaginggo.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	pix := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		out := pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			out[x*3+0] = row[x*4+2]
			out[x*3+1] = row[x*4+1]
			out[x*3+2] = row[x*4+0]
		}
	}
	return &entity.Raster{Width: w, Height: h, Channels: 3, Pix: pix}
}

// ToGray converts img into a single-channel luma raster.
func ToGray(img image.Image) *entity.Raster {
	src := imaginggo.Grayscale(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			pix[y*w+x] = row[x*4]
		}
	}
	return &entity.Raster{Width: w, Height: h, Channels: 1, Pix: pix}
}
