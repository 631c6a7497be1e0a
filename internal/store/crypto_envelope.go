package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/tuongmengleang/firechat/internal/crypto"
)

const (
	// The current supported version of the encrypted blob format stored on disk.
	keystoreFormatVersion = 1
)

// KDF names the passphrase key derivation used to seal key files.
type KDF string

const (
	// KDFArgon2id is the default. It costs 64 MiB of memory per derivation.
	KDFArgon2id KDF = "argon2id"
	// KDFScrypt suits devices that cannot spare the Argon2id memory cost.
	KDFScrypt KDF = "scrypt"
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// ciphertext has been modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key file")
	// ErrUnknownKDF is returned for KDF names other than argon2id and scrypt.
	ErrUnknownKDF = errors.New("unknown key derivation function")
)

// ParseKDF maps a config value to a KDF. The empty string selects Argon2id.
func ParseKDF(s string) (KDF, error) {
	switch k := KDF(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KDFArgon2id, nil
	case KDFArgon2id, KDFScrypt:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKDF, s)
	}
}

// blob is the on-disk JSON structure holding the ciphertext and KDF
// parameters. Scrypt costs are recorded so they can change between files.
type blob struct {
	V      int    `json:"v"`
	KDF    KDF    `json:"kdf"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N,omitempty"`
	R      int    `json:"scrypt_r,omitempty"`
	P      int    `json:"scrypt_p,omitempty"`
	Cipher []byte `json:"cipher"`
}

// seal derives a key from passphrase with kdf and seals raw into a JSON blob.
func seal(passphrase string, raw []byte, kdf KDF) ([]byte, error) {
	salt, err := crypto.RandomBytes(crypto.SaltBytes)
	if err != nil {
		return nil, err
	}
	bl := blob{V: keystoreFormatVersion, KDF: kdf, Salt: salt}
	if kdf == KDFScrypt {
		p := crypto.DefaultScryptParams
		bl.N, bl.R, bl.P = p.N, p.R, p.P
	}
	key, err := deriveKEK(passphrase, bl)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)

	if bl.Cipher, err = sealWithKey(key, salt, raw); err != nil {
		return nil, err
	}
	return json.Marshal(bl)
}

// open decrypts a blob written by seal.
func open(passphrase string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, fmt.Errorf("decode key file: %w", err)
	}
	if bl.V != keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", bl.V)
	}

	key, err := deriveKEK(passphrase, bl)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func deriveKEK(passphrase string, bl blob) ([]byte, error) {
	switch bl.KDF {
	case KDFArgon2id:
		return crypto.DeriveKEK(passphrase, bl.Salt), nil
	case KDFScrypt:
		return crypto.DeriveKEKScrypt(passphrase, bl.Salt, crypto.ScryptParams{N: bl.N, R: bl.R, P: bl.P})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKDF, bl.KDF)
	}
}

func sealWithKey(key, salt, raw []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte // zero nonce; salt-bound key is single use
	return aead.Seal(nil, nonce[:], raw, salt), nil
}
