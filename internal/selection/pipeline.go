package selection

import (
	"context"
	"fmt"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"golang.org/x/sync/errgroup"
)

// PipelineConfig bounds the decode stage of a scan. Lookahead is how many
// frames may be decoded ahead of the fold; zero or less scans sequentially.
type PipelineConfig struct {
	Lookahead int
	Workers   int
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{Lookahead: 8, Workers: 4}
}

type extractFunc[F any] func(ctx context.Context, ref entity.FrameRef) (F, error)

// foldFunc consumes one frame in input order. err is a *FrameError when
// extraction failed for that frame. A non-nil return aborts the scan.
type foldFunc[F any] func(ref entity.FrameRef, feat F, err *FrameError) error

type step[F any] struct {
	ref  entity.FrameRef
	feat F
	err  *FrameError
}

// scan extracts a feature for every frame and folds the results in input
// order. Extraction of later frames may overlap the fold of earlier ones;
// the fold itself always runs on the calling goroutine.
func scan[F any](ctx context.Context, cfg PipelineConfig, frames []entity.FrameRef, extract extractFunc[F], fold foldFunc[F]) error {
	if cfg.Lookahead <= 0 {
		for _, ref := range frames {
			if err := ctx.Err(); err != nil {
				return err
			}
			feat, ferr := guardedExtract(ctx, ref, extract)
			if err := fold(ref, feat, ferr); err != nil {
				return err
			}
		}
		return nil
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	stageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(stageCtx)
	// One slot for the producer loop itself.
	g.SetLimit(workers + 1)

	queue := make(chan chan step[F], cfg.Lookahead)

	g.Go(func() error {
		defer close(queue)
		for _, ref := range frames {
			slot := make(chan step[F], 1)
			select {
			case queue <- slot:
			case <-gctx.Done():
				return nil
			}
			g.Go(func() error {
				feat, ferr := guardedExtract(gctx, ref, extract)
				slot <- step[F]{ref: ref, feat: feat, err: ferr}
				return nil
			})
		}
		return nil
	})

	var (
		scanErr error
		folded  int
	)
consume:
	for slot := range queue {
		var s step[F]
		select {
		case s = <-slot:
		case <-ctx.Done():
			scanErr = ctx.Err()
			break consume
		}
		if err := ctx.Err(); err != nil {
			scanErr = err
			break
		}
		if err := fold(s.ref, s.feat, s.err); err != nil {
			scanErr = err
			break
		}
		folded++
	}
	// The producer only stops early once ctx is done.
	if scanErr == nil && folded < len(frames) {
		scanErr = ctx.Err()
	}

	cancel()
	_ = g.Wait()
	return scanErr
}

// guardedExtract runs extract and converts any error or panic into a
// FrameError for ref.
func guardedExtract[F any](ctx context.Context, ref entity.FrameRef, extract extractFunc[F]) (feat F, ferr *FrameError) {
	defer func() {
		if r := recover(); r != nil {
			var zero F
			feat = zero
			ferr = frameError(ref, OutcomeProcessingFault, fmt.Errorf("panic: %v", r))
		}
	}()
	f, err := extract(ctx, ref)
	if err != nil {
		var zero F
		return zero, classify(ref, err)
	}
	return f, nil
}

// guarded runs fn, converting a panic into a processing fault for ref.
func guarded(ref entity.FrameRef, fn func() error) (ferr *FrameError) {
	defer func() {
		if r := recover(); r != nil {
			ferr = frameError(ref, OutcomeProcessingFault, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		return classify(ref, err)
	}
	return nil
}
