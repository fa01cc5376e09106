package selection

import (
	"slices"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

// Uniform selects frames at a fixed stride. It never decodes images.
type Uniform struct{}

func NewUniform() *Uniform {
	return &Uniform{}
}

// Select returns count frames spaced len(frames)/count apart, starting at
// the first frame. When count is at least len(frames) every frame is
// returned.
func (u *Uniform) Select(frames []entity.FrameRef, count int) ([]entity.FrameRef, error) {
	if len(frames) == 0 {
		return nil, invalidInput("empty frame sequence")
	}
	if count <= 0 {
		return nil, invalidInput("count must be positive, got %d", count)
	}
	if count >= len(frames) {
		return slices.Clone(frames), nil
	}

	stride := len(frames) / count
	selected := make([]entity.FrameRef, 0, count)
	for i := 0; i < len(frames) && len(selected) < count; i += stride {
		selected = append(selected, frames[i])
	}
	return selected, nil
}
