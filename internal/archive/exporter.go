package archive

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lorebook/internal/lore"
	"lorebook/internal/model"
)

// Exporter writes campaigns to zip archives.
type Exporter struct {
	svc    *lore.Service
	logger lore.Logger
}

// NewExporter creates an exporter for campaigns managed by svc.
func NewExporter(svc *lore.Service, logger lore.Logger) *Exporter {
	if logger == nil {
		logger = lore.NopLogger{}
	}
	return &Exporter{svc: svc, logger: logger}
}

// ExportResult describes a finished export.
type ExportResult struct {
	Path      string
	Size      int64
	Checksum  string // sha256 of the bytes written, hex
	Encrypted bool
	Objects   int
	Images    int
	Skipped   int // images whose file could not be read
}

// Export reconciles the campaign's link data and writes it as a zip to w.
func (e *Exporter) Export(campaignID string, w io.Writer) (*ExportResult, error) {
	b, err := e.svc.CampaignBundle(campaignID)
	if err != nil {
		return nil, err
	}

	zw := zip.NewWriter(w)
	m := manifestFromBundle(b, e.svc.Clock())
	res := &ExportResult{Objects: len(b.Objects)}

	for i := range b.Images {
		img := &b.Images[i]
		file := imagePrefix + img.ID + strings.ToLower(filepath.Ext(img.FilePath))
		if err := addFile(zw, file, img.FilePath); err != nil {
			if errors.Is(err, errPartialEntry) {
				return nil, err
			}
			e.logger.Warn("skipping image", "image", img.ID, "error", err)
			m.Images[i].File = ""
			res.Skipped++
			continue
		}
		m.Images[i].File = file
		res.Images++
	}

	// The manifest goes last so it reflects which image files made it in.
	mw, err := zw.Create(manifestName)
	if err != nil {
		return nil, fmt.Errorf("creating manifest: %w", err)
	}
	if err := writeManifest(mw, m); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}

	e.logger.Info("campaign exported", "campaign", campaignID, "objects", res.Objects, "images", res.Images)
	return res, nil
}

// ExportFile exports to path, encrypting with enc when it is not nil. The
// archive is written to a temporary file and renamed into place.
func (e *Exporter) ExportFile(campaignID, path string, enc lore.Encryptor) (*ExportResult, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmpPath)

	hasher := sha256.New()
	counter := &countingWriter{}
	out := io.MultiWriter(f, hasher, counter)

	var res *ExportResult
	if enc == nil {
		res, err = e.Export(campaignID, out)
	} else {
		res, err = e.exportEncrypted(campaignID, out, enc)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}

	res.Path = path
	res.Size = counter.n
	res.Checksum = hex.EncodeToString(hasher.Sum(nil))
	res.Encrypted = enc != nil
	return res, nil
}

func (e *Exporter) exportEncrypted(campaignID string, w io.Writer, enc lore.Encryptor) (*ExportResult, error) {
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := enc.Encrypt(pr, w)
		pr.CloseWithError(err)
		done <- err
	}()

	res, err := e.Export(campaignID, pw)
	pw.CloseWithError(err)
	encErr := <-done
	if err != nil {
		return nil, err
	}
	if encErr != nil {
		return nil, fmt.Errorf("encrypting archive: %w", encErr)
	}
	return res, nil
}

// ArchiveName is the default file name for an export of c.
func ArchiveName(c *model.Campaign, clock lore.Clock, encrypted bool) string {
	name := lore.Slugify(c.Name)
	if name == "" {
		name = "campaign"
	}
	name += "-" + clock.Now().Format("20060102T150405Z") + ".zip"
	if encrypted {
		name += ".age"
	}
	return name
}

// errPartialEntry means an entry was started but its content could not be
// copied. Zip entries cannot be withdrawn, so the archive is unusable.
var errPartialEntry = errors.New("image entry written partially")

// addFile copies a regular file into the archive. Errors before the entry is
// created leave the archive untouched.
func addFile(zw *zip.Writer, name, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", srcPath)
	}

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errPartialEntry, name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("%w: %s: %v", errPartialEntry, name, err)
	}
	return nil
}

func manifestFromBundle(b *model.CampaignBundle, clock lore.Clock) *Manifest {
	m := &Manifest{
		Version:    FormatVersion,
		ExportedAt: clock.Now(),
		Game:       Game{ID: b.Campaign.ID, Name: b.Campaign.Name},
		Objects:    make([]ObjectRecord, 0, len(b.Objects)),
		LinkTags:   make([]LinkTagRecord, 0, len(b.LinkTags)),
		TagLinks:   make([]TagLinkRecord, 0, len(b.TagLinks)),
		Images:     make([]ImageRecord, 0, len(b.Images)),
	}
	for _, o := range b.Objects {
		m.Objects = append(m.Objects, ObjectRecord{
			ID:          o.ID,
			Name:        o.Name,
			Type:        string(o.Type),
			ParentID:    o.ParentID,
			Description: o.Description,
			Locked:      o.Locked,
			CreatedAt:   o.CreatedAt,
			UpdatedAt:   o.UpdatedAt,
		})
	}
	for _, t := range b.LinkTags {
		m.LinkTags = append(m.LinkTags, LinkTagRecord{ID: t.ID, ObjectID: t.ObjectID, CreatedAt: t.CreatedAt})
	}
	for _, l := range b.TagLinks {
		m.TagLinks = append(m.TagLinks, TagLinkRecord{TagID: l.TagID, ObjectID: l.ObjectID})
	}
	for _, img := range b.Images {
		m.Images = append(m.Images, ImageRecord{
			ID:        img.ID,
			ObjectID:  img.ObjectID,
			Name:      img.Name,
			IsDefault: img.IsDefault,
		})
	}
	for _, n := range b.Notes {
		m.Notes = append(m.Notes, NoteRecord{
			ID: n.ID, ObjectID: n.ObjectID, Body: n.Body, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt,
		})
	}
	for _, l := range b.Labels {
		m.Labels = append(m.Labels, LabelRecord{ID: l.ID, Name: l.Name})
	}
	for _, ol := range b.ObjectLabels {
		m.ObjectLabels = append(m.ObjectLabels, ObjectLabelRecord{ObjectID: ol.ObjectID, LabelID: ol.LabelID})
	}
	for _, e := range b.Logs {
		m.Logs = append(m.Logs, LogRecord{
			ID: e.ID, Title: e.Title, Body: e.Body, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
		})
	}
	return m
}

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
