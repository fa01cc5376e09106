package imaging

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	imaginggo "github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

func writeSolid(t *testing.T, name string, w, h int, c color.NRGBA) entity.FrameRef {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	img := imaginggo.New(w, h, c)
	require.NoError(t, imaginggo.Save(img, path))
	return entity.FrameRef(path)
}

func TestDecodeColor_BGROrder(t *testing.T) {
	ref := writeSolid(t, "red.png", 4, 3, color.NRGBA{R: 200, G: 10, B: 30, A: 255})

	r, err := NewDecoder(false).DecodeColor(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, 4, r.Width)
	assert.Equal(t, 3, r.Height)
	assert.Equal(t, 3, r.Channels)
	assert.True(t, r.Valid())
	assert.Equal(t, []byte{30, 10, 200}, r.Pix[:3])
}

func TestDecodeGray_SingleChannel(t *testing.T) {
	ref := writeSolid(t, "white.png", 5, 2, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	r, err := NewDecoder(false).DecodeGray(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Channels)
	assert.Len(t, r.Pix, 10)
	for _, v := range r.Pix {
		assert.Equal(t, byte(255), v)
	}
}

func TestDecode_MissingFile(t *testing.T) {
	_, err := NewDecoder(false).DecodeColor(context.Background(), entity.FrameRef(filepath.Join(t.TempDir(), "nope.jpg")))
	assert.Error(t, err)
}

func TestDecode_CancelledContext(t *testing.T) {
	ref := writeSolid(t, "a.png", 2, 2, color.NRGBA{A: 255})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDecoder(false).DecodeGray(ctx, ref)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHistogram_SolidColorHasUnitBins(t *testing.T) {
	r := ToBGR(imaginggo.New(8, 8, color.NRGBA{R: 3, G: 2, B: 1, A: 255}))

	h, err := NewHistogrammer().Histogram(r)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, h[0*entity.HistogramBins+1], 1e-6)
	assert.InDelta(t, 1.0, h[1*entity.HistogramBins+2], 1e-6)
	assert.InDelta(t, 1.0, h[2*entity.HistogramBins+3], 1e-6)

	var sum float64
	for _, v := range h {
		assert.GreaterOrEqual(t, v, float32(0))
		sum += float64(v)
	}
	assert.InDelta(t, 3.0, sum, 1e-5)
}

func TestHistogram_ChannelsNormalisedIndependently(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	img.Set(1, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	h, err := NewHistogrammer().Histogram(ToBGR(img))
	require.NoError(t, err)

	// Red is split across two bins; green and blue are concentrated in bin 0.
	half := float32(1 / 1.4142135623730951)
	assert.InDelta(t, half, h[2*entity.HistogramBins+0], 1e-6)
	assert.InDelta(t, half, h[2*entity.HistogramBins+255], 1e-6)
	assert.InDelta(t, 1.0, h[1*entity.HistogramBins+0], 1e-6)
}

func TestHistogram_RejectsGray(t *testing.T) {
	_, err := NewHistogrammer().Histogram(&entity.Raster{Width: 1, Height: 1, Channels: 1, Pix: []byte{0}})
	assert.Error(t, err)

	_, err = NewHistogrammer().Histogram(nil)
	assert.Error(t, err)
}
