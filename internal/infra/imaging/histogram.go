package imaging

import (
	"errors"
	"math"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

var errNotColor = errors.New("histogram needs a valid 3-channel raster")

// Histogrammer computes per-channel 256-bin histograms, each scaled to unit
// L2 norm, the same normalisation OpenCV applies by default.
type Histogrammer struct{}

func NewHistogrammer() *Histogrammer {
	return &Histogrammer{}
}

func (h *Histogrammer) Histogram(r *entity.Raster) (entity.ColorHistogram, error) {
	var hist entity.ColorHistogram
	if !r.Valid() || r.Channels != 3 {
		return hist, errNotColor
	}

	var counts [3][entity.HistogramBins]float64
	for i := 0; i+2 < len(r.Pix); i += 3 {
		counts[0][r.Pix[i]]++
		counts[1][r.Pix[i+1]]++
		counts[2][r.Pix[i+2]]++
	}

	for c := range counts {
		var sq float64
		for _, v := range counts[c] {
			sq += v * v
		}
		norm := math.Sqrt(sq)
		if norm == 0 {
			continue
		}
		for b, v := range counts[c] {
			hist[c*entity.HistogramBins+b] = float32(v / norm)
		}
	}
	return hist, nil
}
