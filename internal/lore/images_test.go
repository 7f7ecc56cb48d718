package lore_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lorebook/internal/lore"
	"lorebook/internal/model"
	"lorebook/internal/testutil"
)

// assertOneDefault checks that an object with live images has exactly one
// default, and one without has none.
func assertOneDefault(t *testing.T, ts *testutil.TestService, objectID string) {
	t.Helper()
	images, err := ts.ListImages(objectID)
	if err != nil {
		t.Fatalf("ListImages() error = %v", err)
	}
	defaults := 0
	for _, img := range images {
		if img.IsDefault {
			defaults++
		}
	}
	want := 1
	if len(images) == 0 {
		want = 0
	}
	if defaults != want {
		t.Errorf("object %s has %d defaults among %d images, want %d", objectID, defaults, len(images), want)
	}
}

func TestService_AddImage(t *testing.T) {
	t.Run("copies web formats and renders a thumbnail", func(t *testing.T) {
		ts := testutil.NewTestService(t)
		c, _ := newCampaign(t, ts, "Test")
		town := mustCreate(t, ts, c.ID, "", "Town", "Place")
		src := testutil.WritePNG(t, t.TempDir(), "Town Map.png", 100, 50)

		img, err := ts.AddImage(town.ID, src, "")
		if err != nil {
			t.Fatalf("AddImage() error = %v", err)
		}

		if img.Name != "Town Map" {
			t.Errorf("Name = %q, want file base name", img.Name)
		}
		if !img.IsDefault {
			t.Error("first image is not the default")
		}
		if filepath.Dir(img.FilePath) != ts.ImageDir(c.ID) {
			t.Errorf("FilePath = %s, want under %s", img.FilePath, ts.ImageDir(c.ID))
		}
		if testutil.FileSHA256(t, img.FilePath) != testutil.FileSHA256(t, src) {
			t.Error("stored file differs from the source")
		}
		w, h := testutil.PNGSize(t, img.ThumbPath)
		if w != 32 || h != 16 {
			t.Errorf("thumbnail = %dx%d, want 32x16", w, h)
		}
	})

	t.Run("thumbnail failure falls back to placeholder", func(t *testing.T) {
		ts := testutil.NewTestServiceWithImages(t, testutil.BrokenThumbnailer{ImagePipeline: testutil.NewTestImagePipeline()})
		c, _ := newCampaign(t, ts, "Test")
		town := mustCreate(t, ts, c.ID, "", "Town", "Place")
		src := testutil.WritePNG(t, t.TempDir(), "map.png", 10, 10)

		img, err := ts.AddImage(town.ID, src, "Map")
		if err != nil {
			t.Fatalf("AddImage() error = %v", err)
		}
		w, h := testutil.PNGSize(t, img.ThumbPath)
		if w != 1 || h != 1 {
			t.Errorf("placeholder = %dx%d, want 1x1", w, h)
		}
	})

	t.Run("rejects undecodable non-web formats", func(t *testing.T) {
		ts := testutil.NewTestService(t)
		c, _ := newCampaign(t, ts, "Test")
		town := mustCreate(t, ts, c.ID, "", "Town", "Place")
		src := filepath.Join(t.TempDir(), "notes.bmp")
		os.WriteFile(src, []byte("not an image"), 0644)

		_, err := ts.AddImage(town.ID, src, "")
		if !errors.Is(err, lore.ErrValidation) {
			t.Fatalf("AddImage() error = %v, want ErrValidation", err)
		}
		entries, _ := os.ReadDir(ts.ImageDir(c.ID))
		if len(entries) != 0 {
			t.Errorf("image dir has %d leftover files", len(entries))
		}
	})

	t.Run("missing object", func(t *testing.T) {
		ts := testutil.NewTestService(t)
		src := testutil.WritePNG(t, t.TempDir(), "map.png", 4, 4)

		if _, err := ts.AddImage("missing", src, ""); !errors.Is(err, lore.ErrNotFound) {
			t.Errorf("AddImage() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_DefaultImageInvariant(t *testing.T) {
	ts := testutil.NewTestService(t)
	c, _ := newCampaign(t, ts, "Test")
	town := mustCreate(t, ts, c.ID, "", "Town", "Place")
	keep := mustCreate(t, ts, c.ID, "", "Keep", "Place")
	dir := t.TempDir()

	add := func(o *model.Object, name string) *model.Image {
		t.Helper()
		img, err := ts.AddImage(o.ID, testutil.WritePNG(t, dir, name+".png", 8, 8), name)
		if err != nil {
			t.Fatalf("AddImage(%s) error = %v", name, err)
		}
		assertOneDefault(t, ts, o.ID)
		return img
	}

	a := add(town, "a")
	b := add(town, "b")
	cImg := add(town, "c")
	k := add(keep, "k")

	if b.IsDefault || cImg.IsDefault {
		t.Error("later images became default")
	}

	for _, img := range []*model.Image{b, cImg, a, cImg} {
		if err := ts.SetDefaultImage(img.ID); err != nil {
			t.Fatalf("SetDefaultImage(%s) error = %v", img.Name, err)
		}
		assertOneDefault(t, ts, town.ID)
		assertOneDefault(t, ts, keep.ID)

		def, err := ts.DefaultImage(town.ID)
		if err != nil || def == nil || def.ID != img.ID {
			t.Errorf("DefaultImage() = %v, %v; want %s", def, err, img.Name)
		}
	}

	// Deleting the default promotes the oldest remaining image.
	if err := ts.DeleteImage(cImg.ID); err != nil {
		t.Fatalf("DeleteImage() error = %v", err)
	}
	assertOneDefault(t, ts, town.ID)
	if def, _ := ts.DefaultImage(town.ID); def == nil || def.ID != a.ID {
		t.Errorf("DefaultImage() after delete = %v, want a", def)
	}

	// Deleting a non-default leaves the default alone.
	if err := ts.DeleteImage(b.ID); err != nil {
		t.Fatalf("DeleteImage() error = %v", err)
	}
	if def, _ := ts.DefaultImage(town.ID); def == nil || def.ID != a.ID {
		t.Errorf("DefaultImage() = %v, want a", def)
	}

	if err := ts.DeleteImage(a.ID); err != nil {
		t.Fatalf("DeleteImage() error = %v", err)
	}
	assertOneDefault(t, ts, town.ID)
	assertOneDefault(t, ts, keep.ID)

	if def, _ := ts.DefaultImage(keep.ID); def == nil || def.ID != k.ID {
		t.Errorf("keep default = %v, want k", def)
	}

	if err := ts.SetDefaultImage("missing"); !errors.Is(err, lore.ErrNotFound) {
		t.Errorf("SetDefaultImage() error = %v, want ErrNotFound", err)
	}
}
