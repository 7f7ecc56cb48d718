package lore

import "io"

// Vault stores exported campaign archives away from the project directory.
// Archive names are flat file names such as "Greyhawk-20240115T103000Z.zip".
type Vault interface {
	// PutArchive stores an archive under name, replacing any previous copy.
	// size is the number of bytes that will be read from r.
	PutArchive(name string, r io.Reader, size int64) error

	// GetArchive retrieves an archive and writes it to w.
	GetArchive(name string, w io.Writer) error

	// ListArchives returns stored archive names in lexical order.
	ListArchives() ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
