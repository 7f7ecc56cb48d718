package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lorebook/internal/encryption"
	"lorebook/internal/lore"
	"lorebook/internal/model"
)

// Importer loads archives written by Exporter.
type Importer struct {
	svc        *lore.Service
	images     lore.ImagePipeline
	logger     lore.Logger
	scratchDir string
}

// NewImporter creates an importer. Scratch folders are made under
// scratchDir, or the system temp dir when it is empty.
func NewImporter(svc *lore.Service, images lore.ImagePipeline, logger lore.Logger, scratchDir string) *Importer {
	if logger == nil {
		logger = lore.NopLogger{}
	}
	return &Importer{svc: svc, images: images, logger: logger, scratchDir: scratchDir}
}

// ImportOptions controls a single import.
type ImportOptions struct {
	// Confirm is asked before a live campaign with the same id is replaced.
	// A nil Confirm declines.
	Confirm func(existing *model.Campaign) bool

	// Decryptor opens encrypted archives.
	Decryptor lore.Encryptor
}

// ImportResult describes a finished import.
type ImportResult struct {
	Campaign model.Campaign
	Objects  int
	Images   int
	Skipped  int // images whose file could not be copied
	Replaced bool
}

// ImportFile extracts the archive at path into a scratch folder, remaps its
// ids and writes the campaign in one transaction. Nothing is written to the
// store when extraction or parsing fails.
func (i *Importer) ImportFile(path string, opts ImportOptions) (*ImportResult, error) {
	scratch, err := os.MkdirTemp(i.scratchDir, "lorebook-import-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch folder: %w", err)
	}
	defer os.RemoveAll(scratch)

	zipPath, err := i.plaintext(path, scratch, opts.Decryptor)
	if err != nil {
		return nil, err
	}

	extracted := filepath.Join(scratch, "archive")
	if err := extract(zipPath, extracted); err != nil {
		return nil, err
	}

	mf, err := os.Open(filepath.Join(extracted, manifestName))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	m, err := ReadManifest(mf)
	mf.Close()
	if err != nil {
		return nil, err
	}

	existing, err := i.svc.FindCampaignAnyState(m.Game.ID)
	if err != nil {
		return nil, err
	}
	replaced := existing != nil
	if existing != nil && existing.DeletedAt == nil {
		if opts.Confirm == nil || !opts.Confirm(existing) {
			return nil, ErrImportDeclined
		}
	}

	plan := Remap(m, i.svc.IDs().NewPrefix(), i.svc.Clock().Now())
	b := plan.Bundle
	if err := i.svc.EnsureCampaignDirs(b.Campaign.ID); err != nil {
		return nil, err
	}

	res := &ImportResult{Campaign: b.Campaign, Objects: len(b.Objects), Replaced: replaced}
	written := i.copyImages(plan, extracted, res)

	if err := i.svc.ReplaceCampaign(b); err != nil {
		for _, p := range written {
			os.Remove(p)
		}
		return nil, err
	}

	if replaced {
		i.removeStaleFiles(b)
	}
	i.logger.Info("campaign imported", "campaign", b.Campaign.ID, "objects", res.Objects,
		"images", res.Images, "skipped", res.Skipped, "replaced", replaced)
	return res, nil
}

// plaintext returns the path of an unencrypted zip, decrypting into the
// scratch folder when the archive is age-encrypted.
func (i *Importer) plaintext(path, scratch string, dec lore.Encryptor) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	encrypted, rest, err := encryption.Sniff(f)
	if err != nil {
		return "", fmt.Errorf("reading archive: %w", err)
	}
	if !encrypted {
		return path, nil
	}
	if dec == nil {
		return "", ErrPassphraseRequired
	}

	out := filepath.Join(scratch, "archive.zip")
	w, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("creating decrypted archive: %w", err)
	}
	if err := dec.Decrypt(rest, w); err != nil {
		w.Close()
		return "", fmt.Errorf("decrypting archive: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing decrypted archive: %w", err)
	}
	return out, nil
}

// copyImages places image files under their new ids and renders thumbnails.
// Images whose file is missing or unreadable are dropped from the bundle.
func (i *Importer) copyImages(plan *Plan, extracted string, res *ImportResult) []string {
	b := plan.Bundle
	imageDir := i.svc.ImageDir(b.Campaign.ID)
	thumbDir := i.svc.ThumbDir(b.Campaign.ID)

	var written []string
	kept := b.Images[:0]
	for _, img := range b.Images {
		file, ok := plan.ImageFiles[img.ID]
		if !ok {
			i.logger.Warn("image file missing from archive", "image", img.ID)
			res.Skipped++
			continue
		}
		src, err := safeJoin(extracted, file)
		if err != nil {
			i.logger.Warn("image path outside archive", "image", img.ID, "file", file)
			res.Skipped++
			continue
		}
		dest := filepath.Join(imageDir, img.ID+strings.ToLower(filepath.Ext(file)))
		if err := copyFile(src, dest); err != nil {
			i.logger.Warn("failed to copy image", "image", img.ID, "error", err)
			res.Skipped++
			continue
		}
		thumb := filepath.Join(thumbDir, img.ID+".png")
		lore.EnsureThumbnail(i.images, i.logger, dest, thumb)
		written = append(written, dest, thumb)

		img.FilePath = dest
		img.ThumbPath = thumb
		kept = append(kept, img)
	}
	b.Images = kept
	FixDefaultImages(b.Images)
	res.Images = len(kept)
	return written
}

// removeStaleFiles deletes image files left over from the replaced campaign.
func (i *Importer) removeStaleFiles(b *model.CampaignBundle) {
	keep := make(map[string]bool)
	for _, img := range b.Images {
		keep[img.FilePath] = true
		keep[img.ThumbPath] = true
	}
	for _, dir := range []string{i.svc.ImageDir(b.Campaign.ID), i.svc.ThumbDir(b.Campaign.ID)} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			i.logger.Warn("failed to list campaign files", "dir", dir, "error", err)
			continue
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			if e.IsDir() || keep[p] {
				continue
			}
			if err := os.Remove(p); err != nil {
				i.logger.Warn("failed to remove stale file", "path", p, "error", err)
			}
		}
	}
}

// extract unpacks every entry of the zip at path under dest, rejecting
// entries that would land outside it.
func extract(path, dest string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}
	return nil
}

func safeJoin(dest, name string) (string, error) {
	if name == "" || strings.Contains(name, `\`) || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
