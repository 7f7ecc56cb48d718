package lore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lorebook/internal/model"
)

// ImagePipeline decodes, converts and scales images.
type ImagePipeline interface {
	// ConvertToPNG decodes any supported raster format from r and writes PNG to w.
	ConvertToPNG(r io.Reader, w io.Writer) error

	// Thumbnail writes a PNG no larger than the pipeline's bounding box.
	Thumbnail(srcPath, dstPath string) error

	// Placeholder writes a 1x1 PNG used when a thumbnail cannot be made.
	Placeholder(dstPath string) error

	// BlurHash returns a compact blurred placeholder string for an image file.
	BlurHash(path string) (string, error)
}

// webFormats are stored as-is; anything else is converted to PNG.
var webFormats = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

// EnsureThumbnail renders a thumbnail, falling back to the placeholder.
// Thumbnails are best effort: failures are logged, never returned.
func EnsureThumbnail(p ImagePipeline, logger Logger, srcPath, dstPath string) {
	err := p.Thumbnail(srcPath, dstPath)
	if err == nil {
		return
	}
	logger.Warn("thumbnail failed, using placeholder", "src", srcPath, "error", err)
	if err := p.Placeholder(dstPath); err != nil {
		logger.Warn("placeholder failed", "dst", dstPath, "error", err)
	}
}

// AddImage copies srcPath into the campaign's image folder, renders its
// thumbnail and records it. The first image of an object becomes its default.
func (s *Service) AddImage(objectID, srcPath, name string) (*model.Image, error) {
	o, err := s.GetObject(objectID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	}
	name, err = cleanName("image name", name)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureCampaignDirs(o.CampaignID); err != nil {
		return nil, err
	}

	id := s.idgen.NewID(name)
	ext := strings.ToLower(filepath.Ext(srcPath))
	convert := !webFormats[ext]
	if convert {
		ext = ".png"
	}
	dest := filepath.Join(s.ImageDir(o.CampaignID), id+ext)
	if err := s.storeImageFile(srcPath, dest, convert); err != nil {
		return nil, err
	}
	thumb := filepath.Join(s.ThumbDir(o.CampaignID), id+".png")
	EnsureThumbnail(s.images, s.logger, dest, thumb)

	current, err := s.DefaultImage(objectID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	img := &model.Image{
		ID:        id,
		ObjectID:  objectID,
		FilePath:  dest,
		ThumbPath: thumb,
		Name:      name,
		IsDefault: current == nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.database.CreateImage(img); err != nil {
		os.Remove(dest)
		os.Remove(thumb)
		return nil, fmt.Errorf("recording image: %w", err)
	}

	s.logger.Info("image added", "object", objectID, "image", id)
	return img, nil
}

// storeImageFile copies web formats verbatim and converts the rest to PNG.
func (s *Service) storeImageFile(srcPath, dest string, convert bool) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}

	if convert {
		err = s.images.ConvertToPNG(src, out)
		if err != nil {
			err = invalid("unsupported image %s: %v", filepath.Base(srcPath), err)
		}
	} else if _, err = io.Copy(out, src); err != nil {
		err = fmt.Errorf("copying image: %w", err)
	}

	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing image file: %w", cerr)
	}
	if err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}

// ListImages returns the live images of an object, oldest first.
func (s *Service) ListImages(objectID string) ([]*model.Image, error) {
	if _, err := s.GetObject(objectID); err != nil {
		return nil, err
	}
	images, err := s.database.ListImages(objectID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return images, nil
}

// DefaultImage returns the object's default image, or nil if it has none.
func (s *Service) DefaultImage(objectID string) (*model.Image, error) {
	images, err := s.database.ListImages(objectID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	for _, img := range images {
		if img.IsDefault {
			return img, nil
		}
	}
	return nil, nil
}

// SetDefaultImage makes imageID the only default image of its object.
func (s *Service) SetDefaultImage(imageID string) error {
	img, err := s.getImage(imageID)
	if err != nil {
		return err
	}
	if err := s.database.SetDefaultImage(img.ObjectID, img.ID, s.clock.Now()); err != nil {
		return fmt.Errorf("setting default image: %w", err)
	}
	return nil
}

// DeleteImage soft-deletes an image. If it was the default, the oldest
// remaining image takes over.
func (s *Service) DeleteImage(imageID string) error {
	img, err := s.getImage(imageID)
	if err != nil {
		return err
	}
	if err := s.database.SoftDeleteImage(imageID, s.clock.Now()); err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	if !img.IsDefault {
		return nil
	}

	remaining, err := s.database.ListImages(img.ObjectID)
	if err != nil {
		return fmt.Errorf("listing images: %w", err)
	}
	if len(remaining) == 0 {
		return nil
	}
	return s.SetDefaultImage(remaining[0].ID)
}

func (s *Service) getImage(id string) (*model.Image, error) {
	img, err := s.database.FindImage(id)
	if err != nil {
		return nil, fmt.Errorf("finding image: %w", err)
	}
	if img == nil {
		return nil, notFound("image", id)
	}
	return img, nil
}
