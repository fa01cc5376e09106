package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-keyframe-service/internal/infra/primitives"
	"github.com/fiapx/fiapx-keyframe-service/internal/selection"
	"github.com/fiapx/fiapx-keyframe-service/pkg/logger"
)

type extractCmd struct {
	FPS    int    `name:"fps" default:"15" help:"Frames to keep per second of video."`
	Format string `default:"jpg" enum:"jpg,png" help:"Image format of the extracted frames."`
	Out    string `required:"" type:"path" help:"Directory to write frames into."`

	Video string `arg:"" type:"existingfile" help:"Video file to sample."`
}

func (cmd *extractCmd) Run(ctx context.Context, root *cli) error {
	log, err := logger.New(root.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	res, err := ffmpeg.NewExtractor(cmd.Format, log).ExtractFrames(ctx, cmd.Video, cmd.Out, cmd.FPS)
	if err != nil {
		return err
	}
	for _, f := range res.Frames {
		fmt.Println(f)
	}
	return nil
}

type selectCmd struct {
	Strategy  string   `default:"uniform" enum:"uniform,scene,motion" help:"Selection strategy (${enum})."`
	Count     int      `help:"Frames to keep for the uniform strategy (default 20)."`
	Threshold *float64 `help:"Threshold for the scene (default 30) and motion (default 0.2) strategies."`
	Decoder   string   `default:"opencv" enum:"opencv,imaging" help:"Image backend (${enum})."`
	Lookahead int      `default:"8" help:"Frames decoded ahead of the scan; 0 scans sequentially."`
	Workers   int      `default:"4" help:"Concurrent decoders."`
	Format    string   `default:"jpg" enum:"jpg,png" help:"Image format of the frames in Dir."`
	Report    bool     `help:"Print a scan summary to stderr."`

	Dir string `arg:"" type:"existingdir" help:"Directory of frame_NNNN images."`
}

func (cmd *selectCmd) Run(ctx context.Context, root *cli) error {
	log, err := logger.New(root.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	frames, err := ffmpeg.NewExtractor(cmd.Format, log).ListFrames(cmd.Dir)
	if err != nil {
		return err
	}

	svc, err := primitives.NewSelectionService(cmd.Decoder, selection.PipelineConfig{
		Lookahead: cmd.Lookahead,
		Workers:   cmd.Workers,
	}, log)
	if err != nil {
		return err
	}

	params := cmd.params()
	log.Debug("selecting", zap.Any("params", params), zap.Int("frames", len(frames)))

	selected, report, err := svc.Select(ctx, params, frames)
	if err != nil {
		return err
	}
	for _, f := range selected {
		fmt.Println(f)
	}
	if cmd.Report {
		printReport(report)
	}
	return nil
}

func (cmd *selectCmd) params() entity.SelectionParams {
	req := entity.FrameSelectionMessage{
		Strategy:  entity.Strategy(cmd.Strategy),
		Count:     cmd.Count,
		Threshold: cmd.Threshold,
	}
	return req.Params(entity.SelectionDefaults{
		Strategy:        entity.StrategyUniform,
		Count:           20,
		SceneThreshold:  30,
		MotionThreshold: 0.2,
	})
}

func printReport(r selection.Report) {
	fmt.Fprintf(os.Stderr, "strategy=%s scanned=%d selected=%d skipped=%d duration=%s\n",
		r.Strategy, r.Scanned, r.Selected, r.SkippedTotal(), r.Duration)
	for kind, n := range r.Skipped {
		fmt.Fprintf(os.Stderr, "  %s=%d\n", kind, n)
	}
}
