package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
	"github.com/fiapx/fiapx-keyframe-service/internal/domain/port"
	"go.uber.org/zap"
)

var (
	ErrVideoNotFound  = errors.New("video file not found")
	ErrInvalidFPS     = errors.New("frame rate must be positive")
	ErrNoFramesOutput = errors.New("no frames extracted from video")
)

// Extractor samples a video into numbered still images with ffmpeg.
type Extractor struct {
	format string
	logger *zap.Logger
}

func NewExtractor(format string, logger *zap.Logger) *Extractor {
	return &Extractor{format: format, logger: logger}
}

// ExtractFrames writes fps frames per second of video into outputDir as
// frame_0000.<format>, frame_0001.<format>... and returns them in capture
// order.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath string, outputDir string, fps int) (*port.FrameExtractionResult, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidFPS, fps)
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	duration, err := e.getVideoDuration(ctx, videoPath)
	if err != nil {
		e.logger.Warn("could not get video duration", zap.Error(err))
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%d", fps),
		"-start_number", "0",
		"-y",
		e.pattern(outputDir),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}

	frames, err := e.ListFrames(outputDir)
	if err != nil {
		return nil, err
	}

	e.logger.Info("frames extracted",
		zap.Int("count", len(frames)),
		zap.Int("fps", fps),
		zap.Float64("video_duration", duration),
	)

	return &port.FrameExtractionResult{
		Frames:        frames,
		FrameCount:    len(frames),
		VideoDuration: duration,
	}, nil
}

func (e *Extractor) pattern(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%%04d.%s", e.format))
}

// ListFrames returns the extracted frames in dir. The zero-padded index
// makes lexical order equal capture order up to 10000 frames; beyond that
// ffmpeg widens the number, so sort by the parsed index instead.
func (e *Extractor) ListFrames(dir string) ([]entity.FrameRef, error) {
	paths, err := filepath.Glob(filepath.Join(dir, fmt.Sprintf("frame_*.%s", e.format)))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	if len(paths) == 0 {
		return nil, ErrNoFramesOutput
	}

	slices.SortFunc(paths, func(a, b string) int {
		return frameIndex(a) - frameIndex(b)
	})

	frames := make([]entity.FrameRef, len(paths))
	for i, p := range paths {
		frames[i] = entity.FrameRef(p)
	}
	return frames, nil
}

func frameIndex(path string) int {
	name := strings.TrimPrefix(filepath.Base(path), "frame_")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	n, err := strconv.Atoi(name)
	if err != nil {
		return -1
	}
	return n
}

func (e *Extractor) getVideoDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}
