package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"
	"fmt"
)

const (
	// KeyBytes is the AES-256 key size.
	KeyBytes = 32
	// IVBytes is the GCM nonce size used for every message.
	IVBytes = 12
)

var (
	// ErrInvalidKeySize is returned when the provided key is not 32 bytes.
	ErrInvalidKeySize = errors.New("key must be exactly 32 bytes for AES-256")

	// ErrInvalidIVSize is returned when an IV is not 12 bytes.
	ErrInvalidIVSize = errors.New("iv must be exactly 12 bytes for GCM")

	// ErrAuthenticationFailed is returned when the GCM tag does not verify.
	ErrAuthenticationFailed = errors.New("authentication failed: ciphertext has been tampered with or key is wrong")
)

// AEADKey is an AES-256-GCM key handle. The raw key is never exported.
type AEADKey struct {
	raw  [KeyBytes]byte
	aead cipher.AEAD
}

// NewAEADKey builds a key handle from 32 raw bytes. The caller may wipe raw
// afterwards; the handle keeps its own copy.
func NewAEADKey(raw []byte) (*AEADKey, error) {
	if len(raw) != KeyBytes {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(raw))
	}
	k := &AEADKey{}
	copy(k.raw[:], raw)
	block, err := aes.NewCipher(k.raw[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	k.aead, err = cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return k, nil
}

// Seal encrypts plaintext under a freshly random 12-byte IV and returns the
// IV with the ciphertext (tag appended).
//
// The IV is never derived or reused: GCM loses both confidentiality and
// integrity if an IV repeats under the same key.
func (k *AEADKey) Seal(plaintext, aad []byte) (iv, ciphertext []byte, err error) {
	iv, err = RandomBytes(IVBytes)
	if err != nil {
		return nil, nil, err
	}
	return iv, k.aead.Seal(nil, iv, plaintext, aad), nil
}

// Open verifies and decrypts ciphertext. No plaintext is returned when the
// tag does not verify.
func (k *AEADKey) Open(iv, ciphertext, aad []byte) ([]byte, error) {
	if len(iv) != IVBytes {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidIVSize, len(iv))
	}
	if len(ciphertext) < k.aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", ErrAuthenticationFailed)
	}
	pt, err := k.aead.Open(nil, iv, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return pt, nil
}

// Equal reports whether both handles hold the same key, in constant time.
func (k *AEADKey) Equal(other *AEADKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return subtle.ConstantTimeCompare(k.raw[:], other.raw[:]) == 1
}

// Wipe zeroes the raw key copy. The handle must not be used afterwards.
func (k *AEADKey) Wipe() {
	if k == nil {
		return
	}
	Wipe(k.raw[:])
}
