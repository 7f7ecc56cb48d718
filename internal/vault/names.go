// Package vault stores exported campaign archives in memory, on a local or
// mounted filesystem, or in an S3 bucket.
package vault

import (
	"errors"
	"fmt"
	"strings"
)

// ErrArchiveNotFound is returned by GetArchive for unknown names.
var ErrArchiveNotFound = errors.New("archive not found")

// ValidateArchiveName accepts flat file names only. Names become file paths
// and object keys, so separators and dot-only names are rejected.
func ValidateArchiveName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid archive name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("invalid archive name %q: must not contain path separators", name)
	case strings.HasPrefix(name, ".tmp-"):
		return fmt.Errorf("invalid archive name %q: reserved prefix", name)
	}
	return nil
}
