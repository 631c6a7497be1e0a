package crypto

import (
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

const (
	// SaltBytes is the salt size for passphrase key derivation.
	SaltBytes = 16

	argon2Time    = 1
	argon2Memory  = 1 << 16 // KiB
	argon2Threads = 4
)

// ScryptParams are the cost parameters recorded in scrypt sealed files.
type ScryptParams struct {
	N, R, P int
}

// DefaultScryptParams are the tunables for scrypt key derivation.
var DefaultScryptParams = ScryptParams{N: 1 << 15, R: 8, P: 1}

// DeriveKEK derives a key-encryption key from a passphrase and salt using
// Argon2id.
func DeriveKEK(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, KeyBytes)
}

// DeriveKEKScrypt derives a key-encryption key with scrypt, for key files
// configured to use it instead of Argon2id.
func DeriveKEKScrypt(passphrase string, salt []byte, p ScryptParams) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, p.N, p.R, p.P, KeyBytes)
}
