// Package encryption seals campaign archives with an age passphrase.
package encryption

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"

	"lorebook/internal/lore"
)

// ageMagic is the first line of every binary age file.
const ageMagic = "age-encryption.org/v1"

// DefaultWorkFactor is the scrypt log2(N) used for new archives.
const DefaultWorkFactor = 18

// ErrWrongPassphrase is returned by Decrypt when the passphrase does not open the archive.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// AgeEncryptor implements lore.Encryptor using age's scrypt passphrase
// recipient. The same passphrase encrypts and decrypts.
type AgeEncryptor struct {
	passphrase string
	workFactor int
}

var _ lore.Encryptor = (*AgeEncryptor)(nil)

// NewAgeEncryptor creates an encryptor for passphrase with the default work factor.
func NewAgeEncryptor(passphrase string) (*AgeEncryptor, error) {
	return NewAgeEncryptorWithWorkFactor(passphrase, DefaultWorkFactor)
}

// NewAgeEncryptorWithWorkFactor lets tests trade strength for speed.
func NewAgeEncryptorWithWorkFactor(passphrase string, logN int) (*AgeEncryptor, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase must not be empty")
	}
	if logN < 1 || logN > 30 {
		return nil, fmt.Errorf("work factor %d out of range", logN)
	}
	return &AgeEncryptor{passphrase: passphrase, workFactor: logN}, nil
}

// Encrypt reads plaintext from r and writes age ciphertext to w.
func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	recipient, err := age.NewScryptRecipient(e.passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(e.workFactor)

	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}

	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	return nil
}

// Decrypt reads age ciphertext from r and writes plaintext to w.
func (e *AgeEncryptor) Decrypt(r io.Reader, w io.Writer) error {
	identity, err := age.NewScryptIdentity(e.passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(r, identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return ErrWrongPassphrase
		}
		return fmt.Errorf("creating decrypted reader: %w", err)
	}

	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}

	return nil
}

// IsEncrypted reports whether header starts with the age file magic.
func IsEncrypted(header []byte) bool {
	return bytes.HasPrefix(header, []byte(ageMagic))
}

// Sniff peeks at the start of r without consuming it. The returned reader
// must be used in place of r.
func Sniff(r io.Reader) (encrypted bool, rest io.Reader, err error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(len(ageMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return false, nil, fmt.Errorf("reading archive header: %w", err)
	}
	return IsEncrypted(header), br, nil
}
