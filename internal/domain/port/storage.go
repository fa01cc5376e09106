package port

import (
	"context"
	"io"
)

// VideoStorage moves source videos in and bundles of selected frames out.
type VideoStorage interface {
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
	UploadFrames(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}
