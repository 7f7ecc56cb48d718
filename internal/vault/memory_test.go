package vault

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestMemoryVault_PutGet(t *testing.T) {
	v := NewMemoryVault("test")

	if err := v.PutArchive("saga.zip", strings.NewReader("archive"), 7); err != nil {
		t.Fatalf("PutArchive() error = %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetArchive("saga.zip", &buf); err != nil {
		t.Fatalf("GetArchive() error = %v", err)
	}
	if buf.String() != "archive" {
		t.Errorf("GetArchive() = %q, want %q", buf.String(), "archive")
	}
}

func TestMemoryVault_Errors(t *testing.T) {
	v := NewMemoryVault("test")

	if err := v.PutArchive("saga.zip", strings.NewReader("abc"), 10); err == nil {
		t.Error("PutArchive() expected size mismatch error")
	}
	if err := v.PutArchive("a/b.zip", strings.NewReader("abc"), 3); err == nil {
		t.Error("PutArchive() expected invalid name error")
	}
	if err := v.GetArchive("missing.zip", &bytes.Buffer{}); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("GetArchive() error = %v, want ErrArchiveNotFound", err)
	}
}

func TestMemoryVault_ListArchives(t *testing.T) {
	v := NewMemoryVault("test")
	for _, name := range []string{"c.zip", "a.zip", "b.zip"} {
		v.PutArchive(name, strings.NewReader(""), 0)
	}

	names, err := v.ListArchives()
	if err != nil {
		t.Fatalf("ListArchives() error = %v", err)
	}
	want := []string{"a.zip", "b.zip", "c.zip"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("ListArchives() = %v, want %v", names, want)
	}
}

func TestMemoryVault_Concurrent(t *testing.T) {
	v := NewMemoryVault("test")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("archive-%02d.zip", i)
			data := fmt.Sprintf("data-%d", i)
			if err := v.PutArchive(name, strings.NewReader(data), int64(len(data))); err != nil {
				t.Errorf("PutArchive() error = %v", err)
			}
			v.ListArchives()
		}(i)
	}
	wg.Wait()

	names, _ := v.ListArchives()
	if len(names) != 20 {
		t.Errorf("ListArchives() = %d archives, want 20", len(names))
	}
}
