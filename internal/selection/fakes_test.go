package selection

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

var errUnreadable = errors.New("unreadable")

// frame describes a fake frame. Tag is written into every pixel so fakes
// downstream of the decoder can tell frames apart.
type frame struct {
	tag     byte
	w, h    int
	broken  bool
	panicky bool
}

type fakeDecoder struct {
	frames map[entity.FrameRef]frame
	calls  atomic.Int64
}

func newFakeDecoder(seq []frame) (*fakeDecoder, []entity.FrameRef) {
	d := &fakeDecoder{frames: make(map[entity.FrameRef]frame, len(seq))}
	refs := make([]entity.FrameRef, len(seq))
	for i, f := range seq {
		if f.w == 0 {
			f.w, f.h = 4, 4
		}
		ref := entity.FrameRef(fmt.Sprintf("f%d", i))
		d.frames[ref] = f
		refs[i] = ref
	}
	return d, refs
}

func (d *fakeDecoder) decode(ref entity.FrameRef, channels int) (*entity.Raster, error) {
	d.calls.Add(1)
	f, ok := d.frames[ref]
	if !ok || f.broken {
		return nil, errUnreadable
	}
	if f.panicky {
		panic("decoder exploded")
	}
	pix := make([]byte, f.w*f.h*channels)
	for i := range pix {
		pix[i] = f.tag
	}
	return &entity.Raster{Width: f.w, Height: f.h, Channels: channels, Pix: pix}, nil
}

func (d *fakeDecoder) DecodeColor(_ context.Context, ref entity.FrameRef) (*entity.Raster, error) {
	return d.decode(ref, 3)
}

func (d *fakeDecoder) DecodeGray(_ context.Context, ref entity.FrameRef) (*entity.Raster, error) {
	return d.decode(ref, 1)
}

// tagHistogrammer returns a scripted histogram for each frame tag.
type tagHistogrammer map[byte]entity.ColorHistogram

func (h tagHistogrammer) Histogram(r *entity.Raster) (entity.ColorHistogram, error) {
	hist, ok := h[r.Pix[0]]
	if !ok {
		return entity.ColorHistogram{}, fmt.Errorf("no histogram for tag %d", r.Pix[0])
	}
	return hist, nil
}

// tagFlow reports a uniform horizontal displacement equal to motion[tag of
// the current frame].
type tagFlow struct {
	motion map[byte]float32
	fail   map[byte]bool
	panics map[byte]bool
	calls  int
}

func (f *tagFlow) DenseFlow(prev, cur *entity.Raster) (*entity.FlowField, error) {
	f.calls++
	tag := cur.Pix[0]
	if f.fail[tag] {
		return nil, errors.New("flow diverged")
	}
	if f.panics[tag] {
		panic("flow exploded")
	}
	n := cur.Width * cur.Height
	vectors := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		vectors[2*i] = f.motion[tag]
	}
	return &entity.FlowField{Width: cur.Width, Height: cur.Height, Vectors: vectors}, nil
}

// hist returns a histogram with the given values in bins 0, 1 and 2.
func hist(v0, v1, v2 float32) entity.ColorHistogram {
	var h entity.ColorHistogram
	h[0], h[1], h[2] = v0, v1, v2
	return h
}

var pipelineConfigs = []struct {
	name string
	cfg  PipelineConfig
}{
	{"sequential", PipelineConfig{}},
	{"pipelined", PipelineConfig{Lookahead: 3, Workers: 2}},
	{"wide", PipelineConfig{Lookahead: 16, Workers: 8}},
}
