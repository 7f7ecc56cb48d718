package encryption

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func newTestAgeEncryptor(t *testing.T, passphrase string) *AgeEncryptor {
	t.Helper()
	e, err := NewAgeEncryptorWithWorkFactor(passphrase, 10)
	if err != nil {
		t.Fatalf("NewAgeEncryptorWithWorkFactor() error = %v", err)
	}
	return e
}

func TestNewAgeEncryptor_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewAgeEncryptor(""); err == nil {
		t.Error("NewAgeEncryptor(\"\") should return error")
	}
	if _, err := NewAgeEncryptorWithWorkFactor("secret", 0); err == nil {
		t.Error("work factor 0 should return error")
	}
	if _, err := NewAgeEncryptorWithWorkFactor("secret", 31); err == nil {
		t.Error("work factor 31 should return error")
	}
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "zip header", input: []byte("PK\x03\x04rest-of-archive")},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 100000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestAgeEncryptor(t, "test-passphrase")

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			if !IsEncrypted(encrypted.Bytes()) {
				t.Error("encrypted output does not start with the age header")
			}
			if len(tt.input) > 0 && bytes.Contains(encrypted.Bytes(), tt.input) {
				t.Error("encrypted output contains the plaintext")
			}

			var decrypted bytes.Buffer
			if err := e.Decrypt(bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}

			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_DecryptWrongPassphrase(t *testing.T) {
	t.Parallel()

	var encrypted bytes.Buffer
	if err := newTestAgeEncryptor(t, "correct").Encrypt(bytes.NewReader([]byte("secret lore")), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	err := newTestAgeEncryptor(t, "wrong").Decrypt(bytes.NewReader(encrypted.Bytes()), io.Discard)
	if !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Decrypt() error = %v, want ErrWrongPassphrase", err)
	}
}

func TestAgeEncryptor_DecryptPlaintext(t *testing.T) {
	t.Parallel()

	err := newTestAgeEncryptor(t, "secret").Decrypt(bytes.NewReader([]byte("PK\x03\x04not age")), io.Discard)
	if err == nil {
		t.Error("Decrypt() of plaintext should return error")
	}
}

func TestSniff(t *testing.T) {
	t.Parallel()

	var encrypted bytes.Buffer
	if err := newTestAgeEncryptor(t, "secret").Encrypt(bytes.NewReader([]byte("data")), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	tests := []struct {
		name  string
		input []byte
		want  bool
	}{
		{name: "age file", input: encrypted.Bytes(), want: true},
		{name: "zip file", input: []byte("PK\x03\x04data"), want: false},
		{name: "short input", input: []byte("age"), want: false},
		{name: "empty", input: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, err := Sniff(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Sniff() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Sniff() = %v, want %v", got, tt.want)
			}
			all, _ := io.ReadAll(rest)
			if !bytes.Equal(all, tt.input) {
				t.Error("Sniff() consumed input")
			}
		})
	}
}
