package ffmpeg

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/entity"
)

// ZipCreator bundles selected frames. Entries are written in the order
// given, so readers that iterate the archive see capture order.
type ZipCreator struct{}

func NewZipCreator() *ZipCreator {
	return &ZipCreator{}
}

func (z *ZipCreator) CreateZip(ctx context.Context, frames []entity.FrameRef, outputPath string) (err error) {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create zip file: %w", err)
	}
	defer func() {
		if cerr := zipFile.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close zip file: %w", cerr)
		}
	}()

	zw := zip.NewWriter(zipFile)
	for _, ref := range frames {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return err
		}
		if err := addFrame(zw, ref.String()); err != nil {
			zw.Close()
			return fmt.Errorf("add %s to zip: %w", ref, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

func addFrame(zw *zip.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	// JPEG and PNG frames are already compressed.
	header.Method = zip.Store

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, file)
	return err
}
