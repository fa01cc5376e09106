package selection

import (
	"errors"
	"fmt"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

// ErrInvalidInput is returned for an empty frame sequence, a non-positive
// count or a negative threshold. No partial result accompanies it.
var ErrInvalidInput = errors.New("invalid input")

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// FrameError is a recoverable failure confined to one frame. It never
// escapes a scan; it is logged and counted in the Report.
type FrameError struct {
	Ref  entity.FrameRef
	Kind OutcomeKind
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %s: %s: %v", e.Ref, e.Kind, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

func frameError(ref entity.FrameRef, kind OutcomeKind, err error) *FrameError {
	return &FrameError{Ref: ref, Kind: kind, Err: err}
}

// classify turns any error from a per-frame step into a FrameError,
// defaulting to a processing fault.
func classify(ref entity.FrameRef, err error) *FrameError {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe
	}
	return frameError(ref, OutcomeProcessingFault, err)
}

func describe(r *entity.Raster) string {
	if r == nil {
		return "nil raster"
	}
	return fmt.Sprintf("%dx%d, %d channels, %d bytes", r.Width, r.Height, r.Channels, len(r.Pix))
}
