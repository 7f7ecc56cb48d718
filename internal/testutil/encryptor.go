package testutil

import (
	"testing"

	"lorebook/internal/encryption"
	"lorebook/internal/lore"
)

// NewTestEncryptor returns an age encryptor with a cheap scrypt work factor.
func NewTestEncryptor(t *testing.T, passphrase string) lore.Encryptor {
	t.Helper()
	e, err := encryption.NewAgeEncryptorWithWorkFactor(passphrase, 10)
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}
	return e
}
