package opencv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

// Histogrammer runs calcHist per channel and L2-normalises each channel.
type Histogrammer struct{}

func NewHistogrammer() *Histogrammer {
	return &Histogrammer{}
}

func (h *Histogrammer) Histogram(r *entity.Raster) (entity.ColorHistogram, error) {
	var out entity.ColorHistogram
	if !r.Valid() || r.Channels != 3 {
		return out, fmt.Errorf("histogram needs a valid 3-channel raster")
	}

	src, err := toMat(r)
	if err != nil {
		return out, err
	}
	defer src.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	for c := 0; c < 3; c++ {
		hist := gocv.NewMat()
		gocv.CalcHist([]gocv.Mat{src}, []int{c}, mask, &hist, []int{entity.HistogramBins}, []float64{0, 256}, false)
		gocv.Normalize(hist, &hist, 1, 0, gocv.NormL2)

		bins, err := hist.DataPtrFloat32()
		if err != nil {
			hist.Close()
			return out, fmt.Errorf("read histogram channel %d: %w", c, err)
		}
		if len(bins) != entity.HistogramBins {
			hist.Close()
			return out, fmt.Errorf("channel %d: got %d bins", c, len(bins))
		}
		copy(out[c*entity.HistogramBins:], bins)
		hist.Close()
	}
	return out, nil
}
