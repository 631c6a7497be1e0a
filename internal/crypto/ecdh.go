package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/x509"
	"errors"
	"fmt"
)

var (
	// ErrNotP256 is returned when imported key material is not a P-256 key.
	ErrNotP256 = errors.New("key is not an ECDH P-256 key")
)

// GenerateIdentityKey returns a fresh ECDH P-256 private key.
func GenerateIdentityKey() (*ecdh.PrivateKey, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate P-256 key: %w", err)
	}
	return priv, nil
}

// SharedSecret computes the 256-bit ECDH shared secret between priv and pub.
func SharedSecret(priv *ecdh.PrivateKey, pub *ecdh.PublicKey) ([]byte, error) {
	if priv == nil || pub == nil {
		return nil, errors.New("nil key")
	}
	secret, err := priv.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("ecdh: %w", err)
	}
	return secret, nil
}

// ExportPublicKey encodes pub as base64 PKIX (SubjectPublicKeyInfo) DER.
func ExportPublicKey(pub *ecdh.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return B64(der), nil
}

// ImportPublicKey decodes a key produced by ExportPublicKey.
func ImportPublicKey(encoded string) (*ecdh.PublicKey, error) {
	der, err := UnB64(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, err := toECDHPublic(parsed)
	if err != nil {
		return nil, err
	}
	if pub.Curve() != ecdh.P256() {
		return nil, ErrNotP256
	}
	return pub, nil
}

// ExportPrivateKey encodes priv as base64 PKCS#8 DER. The result must only
// ever be written to local storage.
func ExportPrivateKey(priv *ecdh.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("marshal private key: %w", err)
	}
	defer Wipe(der)
	return B64(der), nil
}

// ImportPrivateKey decodes a key produced by ExportPrivateKey.
func ImportPrivateKey(encoded string) (*ecdh.PrivateKey, error) {
	der, err := UnB64(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	defer Wipe(der)
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	var priv *ecdh.PrivateKey
	switch k := parsed.(type) {
	case *ecdh.PrivateKey:
		priv = k
	case interface {
		ECDH() (*ecdh.PrivateKey, error)
	}:
		if priv, err = k.ECDH(); err != nil {
			return nil, fmt.Errorf("convert private key: %w", err)
		}
	default:
		return nil, ErrNotP256
	}
	if priv.Curve() != ecdh.P256() {
		return nil, ErrNotP256
	}
	return priv, nil
}

// x509 hands EC keys back as *ecdsa.PublicKey; both convert via ECDH().
func toECDHPublic(parsed any) (*ecdh.PublicKey, error) {
	switch k := parsed.(type) {
	case *ecdh.PublicKey:
		return k, nil
	case interface {
		ECDH() (*ecdh.PublicKey, error)
	}:
		pub, err := k.ECDH()
		if err != nil {
			return nil, fmt.Errorf("convert public key: %w", err)
		}
		return pub, nil
	default:
		return nil, ErrNotP256
	}
}
