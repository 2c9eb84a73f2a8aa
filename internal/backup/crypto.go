package backup

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

// magic prefixes every encrypted snapshot.
var magic = []byte("CWBK1")

// ErrNotEncrypted is returned by Decrypt for data without the snapshot header.
var ErrNotEncrypted = errors.New("not an encrypted carewatch snapshot")

// ErrWrongPassphrase is returned when authentication of the ciphertext fails.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted snapshot")

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeriveKey derives a 32-byte AES-256 key from a passphrase and salt using Argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keySize)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext under a key derived from passphrase.
// Output format: [magic][16-byte salt][12-byte nonce][AES-256-GCM ciphertext]
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	salt, err := randomBytes(saltSize)
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce, err := randomBytes(nonceSize)
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(magic)+saltSize+nonceSize+len(plaintext)+gcm.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	// The header is authenticated along with the payload.
	return gcm.Seal(out, nonce, plaintext, out[:len(magic)+saltSize]), nil
}

// IsEncrypted reports whether data carries the snapshot header.
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// Decrypt reverses Encrypt.
func Decrypt(data []byte, passphrase string) ([]byte, error) {
	if !IsEncrypted(data) {
		return nil, ErrNotEncrypted
	}
	header := len(magic) + saltSize
	if len(data) < header+nonceSize {
		return nil, fmt.Errorf("encrypted snapshot too small")
	}

	salt := data[len(magic):header]
	nonce := data[header : header+nonceSize]
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, data[header+nonceSize:], data[:header])
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}
