package testutil

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"lorebook/internal/images"
	"lorebook/internal/lore"
)

// NewTestImagePipeline returns the real pipeline with a small bounding box.
func NewTestImagePipeline() lore.ImagePipeline {
	return images.NewPipeline(32)
}

// BrokenThumbnailer wraps a pipeline whose Thumbnail always fails, so the
// placeholder path runs.
type BrokenThumbnailer struct {
	lore.ImagePipeline
}

func (BrokenThumbnailer) Thumbnail(string, string) error {
	return errors.New("thumbnailer unavailable")
}

// WritePNG writes a w x h opaque PNG to dir/name and returns its path.
func WritePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
	return path
}

// PNGSize decodes the header of the PNG at path and returns its dimensions.
func PNGSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}
