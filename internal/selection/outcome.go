package selection

import (
	"time"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"go.uber.org/zap"
)

// OutcomeKind classifies what happened to one frame during a scan.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeDecodeFailure
	OutcomeDimensionMismatch
	OutcomeProcessingFault
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeDecodeFailure:
		return "decode_failure"
	case OutcomeDimensionMismatch:
		return "dimension_mismatch"
	case OutcomeProcessingFault:
		return "processing_fault"
	}
	return "unknown"
}

// Report summarises one selector call.
type Report struct {
	Strategy entity.Strategy
	Scanned  int
	Selected int
	Skipped  map[OutcomeKind]int
	Duration time.Duration
}

func newReport(strategy entity.Strategy) Report {
	return Report{Strategy: strategy, Skipped: make(map[OutcomeKind]int)}
}

// SkippedTotal counts frames that were excluded by a per-frame failure.
// Dimension mismatches are not included: the frame itself was usable.
func (r Report) SkippedTotal() int {
	n := 0
	for kind, c := range r.Skipped {
		if kind != OutcomeDimensionMismatch {
			n += c
		}
	}
	return n
}

func (r *Report) record(logger *zap.Logger, fe *FrameError) {
	r.Skipped[fe.Kind]++
	logger.Warn("frame skipped",
		zap.String("strategy", string(r.Strategy)),
		zap.String("frame", fe.Ref.String()),
		zap.Stringer("kind", fe.Kind),
		zap.Error(fe.Err),
	)
}
