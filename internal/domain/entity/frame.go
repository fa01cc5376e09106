package entity

import "math"

// FrameRef identifies one extracted frame on local disk. Slices of FrameRef
// are always in capture order.
type FrameRef string

func (r FrameRef) String() string { return string(r) }

// HistogramBins is the number of bins per color channel.
const HistogramBins = 256

// ColorHistogram is three per-channel 256-bin distributions, each
// normalised to unit L2 norm, concatenated in channel order.
type ColorHistogram [3 * HistogramBins]float32

// Raster is a decoded frame. Pix is row-major and interleaved; 3-channel
// rasters are stored in BGR order.
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// SameSize reports whether both rasters have identical dimensions.
func (r *Raster) SameSize(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height
}

// Valid reports whether Pix holds exactly Width*Height*Channels samples.
func (r *Raster) Valid() bool {
	if r == nil || r.Width <= 0 || r.Height <= 0 {
		return false
	}
	if r.Channels != 1 && r.Channels != 3 {
		return false
	}
	return len(r.Pix) == r.Width*r.Height*r.Channels
}

// FlowField holds per-pixel displacement vectors as interleaved (dx, dy)
// pairs, row-major.
type FlowField struct {
	Width   int
	Height  int
	Vectors []float32
}

// MeanMagnitude returns the mean Euclidean norm of all displacement vectors.
func (f *FlowField) MeanMagnitude() float64 {
	n := len(f.Vectors) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		dx := float64(f.Vectors[2*i])
		dy := float64(f.Vectors[2*i+1])
		sum += math.Hypot(dx, dy)
	}
	return sum / float64(n)
}
