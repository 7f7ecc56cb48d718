// Package images decodes, converts and scales campaign pictures.
package images

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/bmp" // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"lorebook/internal/lore"
)

// blurHashSize is the edge of the image BlurHash is computed from.
// A small copy gives nearly identical hashes at a fraction of the cost.
const blurHashSize = 64

// Pipeline implements lore.ImagePipeline with the standard and x/image decoders.
type Pipeline struct {
	maxSize int
}

// NewPipeline returns a pipeline whose thumbnails fit in maxSize x maxSize.
func NewPipeline(maxSize int) *Pipeline {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &Pipeline{maxSize: maxSize}
}

// ConvertToPNG decodes any registered format and re-encodes it as PNG.
func (p *Pipeline) ConvertToPNG(r io.Reader, w io.Writer) error {
	img, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Thumbnail scales srcPath down to fit the bounding box and writes a PNG to
// dstPath. Images already inside the box are re-encoded at their own size.
func (p *Pipeline) Thumbnail(srcPath, dstPath string) error {
	img, err := decodeFile(srcPath)
	if err != nil {
		return err
	}

	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), p.maxSize)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	return writePNG(dstPath, dst)
}

// Placeholder writes a transparent 1x1 PNG.
func (p *Pipeline) Placeholder(dstPath string) error {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{})
	return writePNG(dstPath, img)
}

// BlurHash computes a 4x3 component BlurHash of the image at path.
func (p *Pipeline) BlurHash(path string) (string, error) {
	img, err := decodeFile(path)
	if err != nil {
		return "", err
	}

	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), blurHashSize)
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, b, draw.Src, nil)

	hash, err := blurhash.Encode(4, 3, small)
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// Fit returns the largest size with the aspect ratio of w x h that fits in
// limit x limit without upscaling. Neither dimension drops below 1.
func Fit(w, h, limit int) (int, int) {
	if w <= 0 || h <= 0 {
		return 1, 1
	}
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, clampMin(h * limit / w)
	}
	return clampMin(w * limit / h), limit
}

func clampMin(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// writePNG encodes img to path via a temp file and rename.
func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create thumbnail folder: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(tmp), err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename thumbnail: %w", err)
	}
	return nil
}

var _ lore.ImagePipeline = (*Pipeline)(nil)
