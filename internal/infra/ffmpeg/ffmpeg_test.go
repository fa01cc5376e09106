package ffmpeg

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

func TestExtractFrames_Validation(t *testing.T) {
	e := NewExtractor("jpg", zap.NewNop())
	dir := t.TempDir()

	_, err := e.ExtractFrames(context.Background(), filepath.Join(dir, "missing.mp4"), dir, 15)
	assert.ErrorIs(t, err, ErrVideoNotFound)

	video := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(video, []byte("not a video"), 0o644))

	for _, fps := range []int{0, -1} {
		_, err := e.ExtractFrames(context.Background(), video, dir, fps)
		assert.ErrorIs(t, err, ErrInvalidFPS)
	}
}

func TestListFrames_CaptureOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"frame_10000.jpg", "frame_0002.jpg", "frame_0000.jpg", "frame_9999.jpg", "frame_0001.jpg"}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	// Not a frame.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpg"), nil, 0o644))

	e := NewExtractor("jpg", zap.NewNop())
	frames, err := e.ListFrames(dir)
	require.NoError(t, err)

	var got []string
	for _, f := range frames {
		got = append(got, filepath.Base(f.String()))
	}
	assert.Equal(t, []string{"frame_0000.jpg", "frame_0001.jpg", "frame_0002.jpg", "frame_9999.jpg", "frame_10000.jpg"}, got)
}

func TestListFrames_Empty(t *testing.T) {
	e := NewExtractor("png", zap.NewNop())
	_, err := e.ListFrames(t.TempDir())
	assert.ErrorIs(t, err, ErrNoFramesOutput)
}

func TestCreateZip_KeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var frames []entity.FrameRef
	for _, n := range []string{"frame_0007.jpg", "frame_0002.jpg", "frame_0011.jpg"} {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte(n), 0o644))
		frames = append(frames, entity.FrameRef(p))
	}

	out := filepath.Join(dir, "selected.zip")
	require.NoError(t, NewZipCreator().CreateZip(context.Background(), frames, out))

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, 3)
	for i, f := range r.File {
		assert.Equal(t, filepath.Base(frames[i].String()), f.Name)
		assert.Equal(t, zip.Store, f.Method)
	}
}

func TestCreateZip_MissingFrame(t *testing.T) {
	dir := t.TempDir()
	err := NewZipCreator().CreateZip(context.Background(), []entity.FrameRef{entity.FrameRef(filepath.Join(dir, "gone.jpg"))}, filepath.Join(dir, "out.zip"))
	assert.Error(t, err)
}

func TestCreateZip_Cancelled(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "frame_0000.jpg")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewZipCreator().CreateZip(ctx, []entity.FrameRef{entity.FrameRef(p)}, filepath.Join(dir, "out.zip"))
	assert.ErrorIs(t, err, context.Canceled)
}
