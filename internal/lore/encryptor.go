package lore

import "io"

// Encryptor seals and opens campaign archives.
type Encryptor interface {
	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Decrypt reads ciphertext from r and writes plaintext to w.
	// Returns an error if the key or passphrase is wrong.
	Decrypt(r io.Reader, w io.Writer) error
}
