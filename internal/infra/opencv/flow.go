package opencv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

// FarnebackParams configures calcOpticalFlowFarneback.
type FarnebackParams struct {
	PyrScale   float64
	Levels     int
	WinSize    int
	Iterations int
	PolyN      int
	PolySigma  float64
	Flags      int
}

// DefaultFarnebackParams are the fixed parameters used by the motion
// strategy.
func DefaultFarnebackParams() FarnebackParams {
	return FarnebackParams{
		PyrScale:   0.5,
		Levels:     3,
		WinSize:    15,
		Iterations: 3,
		PolyN:      5,
		PolySigma:  1.2,
		Flags:      0,
	}
}

type FlowEstimator struct {
	params FarnebackParams
}

func NewFlowEstimator(params FarnebackParams) *FlowEstimator {
	return &FlowEstimator{params: params}
}

func (f *FlowEstimator) DenseFlow(prev, cur *entity.Raster) (*entity.FlowField, error) {
	if !prev.Valid() || !cur.Valid() || prev.Channels != 1 || cur.Channels != 1 {
		return nil, fmt.Errorf("dense flow needs two valid grayscale rasters")
	}
	if !prev.SameSize(cur) {
		return nil, fmt.Errorf("dense flow: size %dx%d != %dx%d", prev.Width, prev.Height, cur.Width, cur.Height)
	}

	a, err := toMat(prev)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	b, err := toMat(cur)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	flow := gocv.NewMat()
	defer flow.Close()

	p := f.params
	gocv.CalcOpticalFlowFarneback(a, b, &flow, p.PyrScale, p.Levels, p.WinSize, p.Iterations, p.PolyN, p.PolySigma, p.Flags)

	data, err := flow.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read flow: %w", err)
	}
	if len(data) != 2*cur.Width*cur.Height {
		return nil, fmt.Errorf("flow has %d values for %dx%d", len(data), cur.Width, cur.Height)
	}

	vectors := make([]float32, len(data))
	copy(vectors, data)
	return &entity.FlowField{Width: cur.Width, Height: cur.Height, Vectors: vectors}, nil
}
