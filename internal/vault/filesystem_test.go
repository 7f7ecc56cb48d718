package vault

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileSystemVault(t *testing.T) {
	t.Run("creates directory structure", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "vault")

		v, err := NewFileSystemVault("test", root)
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}

		if _, err := os.Stat(filepath.Join(root, "archives")); err != nil {
			t.Errorf("archives directory not created: %v", err)
		}
		if v.name != "test" {
			t.Errorf("name = %q, want %q", v.name, "test")
		}
	})

	t.Run("works with existing directory", func(t *testing.T) {
		if _, err := NewFileSystemVault("test", t.TempDir()); err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}
	})
}

func TestFileSystemVault_PutArchive(t *testing.T) {
	tests := []struct {
		name    string
		archive string
		data    string
		size    int64
		wantErr bool
	}{
		{"store archive successfully", "saga.zip", "PK-data", 7, false},
		{"size mismatch", "short.zip", "hello", 100, true},
		{"empty archive", "empty.zip", "", 0, false},
		{"rejects path traversal", "../saga.zip", "x", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewFileSystemVault("test", t.TempDir())
			if err != nil {
				t.Fatalf("NewFileSystemVault() error = %v", err)
			}

			err = v.PutArchive(tt.archive, strings.NewReader(tt.data), tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PutArchive() error = %v, wantErr %v", err, tt.wantErr)
			}

			names, _ := v.ListArchives()
			if tt.wantErr {
				if len(names) != 0 {
					t.Errorf("ListArchives() = %v after failed put, want none", names)
				}
				return
			}

			var buf bytes.Buffer
			if err := v.GetArchive(tt.archive, &buf); err != nil {
				t.Fatalf("GetArchive() error = %v", err)
			}
			if buf.String() != tt.data {
				t.Errorf("GetArchive() = %q, want %q", buf.String(), tt.data)
			}
		})
	}
}

func TestFileSystemVault_Overwrite(t *testing.T) {
	v, _ := NewFileSystemVault("test", t.TempDir())

	if err := v.PutArchive("saga.zip", strings.NewReader("v1"), 2); err != nil {
		t.Fatalf("first PutArchive() error = %v", err)
	}
	if err := v.PutArchive("saga.zip", strings.NewReader("v2!"), 3); err != nil {
		t.Fatalf("second PutArchive() error = %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetArchive("saga.zip", &buf); err != nil {
		t.Fatalf("GetArchive() error = %v", err)
	}
	if buf.String() != "v2!" {
		t.Errorf("GetArchive() = %q, want %q", buf.String(), "v2!")
	}
}

func TestFileSystemVault_GetArchive_NotFound(t *testing.T) {
	v, _ := NewFileSystemVault("test", t.TempDir())

	err := v.GetArchive("missing.zip", &bytes.Buffer{})
	if !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("GetArchive() error = %v, want ErrArchiveNotFound", err)
	}
}

func TestFileSystemVault_ListArchives(t *testing.T) {
	root := t.TempDir()
	v, _ := NewFileSystemVault("test", root)

	for _, name := range []string{"b.zip", "a.zip"} {
		if err := v.PutArchive(name, strings.NewReader("x"), 1); err != nil {
			t.Fatalf("PutArchive(%s) error = %v", name, err)
		}
	}
	// Leftover temp files and folders are not archives.
	os.WriteFile(filepath.Join(root, "archives", ".tmp-999"), []byte("partial"), 0644)
	os.Mkdir(filepath.Join(root, "archives", "nested"), 0755)

	names, err := v.ListArchives()
	if err != nil {
		t.Fatalf("ListArchives() error = %v", err)
	}
	if len(names) != 2 || names[0] != "a.zip" || names[1] != "b.zip" {
		t.Errorf("ListArchives() = %v, want [a.zip b.zip]", names)
	}
}

func TestFileSystemVault_ValidateSetup(t *testing.T) {
	t.Run("valid setup", func(t *testing.T) {
		v, _ := NewFileSystemVault("test", t.TempDir())
		if err := v.ValidateSetup(); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})

	t.Run("archive directory removed", func(t *testing.T) {
		root := t.TempDir()
		v, _ := NewFileSystemVault("test", root)
		os.RemoveAll(filepath.Join(root, "archives"))

		if err := v.ValidateSetup(); err == nil {
			t.Error("ValidateSetup() expected error for missing archive directory")
		}
	})
}
