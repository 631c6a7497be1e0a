package crypto_test

import (
	"bytes"
	"crypto/ecdh"
	"errors"
	"testing"

	"github.com/tuongmengleang/firechat/internal/crypto"
)

var aad = []byte("firechat/v1")

func mustKey(t *testing.T) *ecdh.PrivateKey {
	t.Helper()
	priv, err := crypto.GenerateIdentityKey()
	if err != nil {
		t.Fatalf("GenerateIdentityKey: %v", err)
	}
	return priv
}

func TestPublicKey_ExportImport_RoundTrip(t *testing.T) {
	k := mustKey(t)
	enc, err := crypto.ExportPublicKey(k.PublicKey())
	if err != nil {
		t.Fatalf("ExportPublicKey: %v", err)
	}
	pub, err := crypto.ImportPublicKey(enc)
	if err != nil {
		t.Fatalf("ImportPublicKey: %v", err)
	}
	if !pub.Equal(k.PublicKey()) {
		t.Fatal("imported public key differs")
	}
}

func TestPrivateKey_ExportImport_RoundTrip(t *testing.T) {
	k := mustKey(t)
	enc, err := crypto.ExportPrivateKey(k)
	if err != nil {
		t.Fatalf("ExportPrivateKey: %v", err)
	}
	priv, err := crypto.ImportPrivateKey(enc)
	if err != nil {
		t.Fatalf("ImportPrivateKey: %v", err)
	}
	if !priv.Equal(k) {
		t.Fatal("imported private key differs")
	}
}

func TestImportPublicKey_Garbage_Fails(t *testing.T) {
	if _, err := crypto.ImportPublicKey("not base64!"); err == nil {
		t.Fatal("expected error for bad base64")
	}
	if _, err := crypto.ImportPublicKey(crypto.B64([]byte("definitely not DER"))); err == nil {
		t.Fatal("expected error for bad DER")
	}
}

func TestDeriveConversationKey_Symmetric(t *testing.T) {
	alice, bob := mustKey(t), mustKey(t)

	ka, err := crypto.DeriveConversationKey(alice, bob.PublicKey(), "alice_bob")
	if err != nil {
		t.Fatalf("derive alice: %v", err)
	}
	kb, err := crypto.DeriveConversationKey(bob, alice.PublicKey(), "alice_bob")
	if err != nil {
		t.Fatalf("derive bob: %v", err)
	}
	if !ka.Equal(kb) {
		t.Fatal("both sides must derive the same key")
	}

	iv, ct, err := ka.Seal([]byte("hi bob"), aad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	pt, err := kb.Open(iv, ct, aad)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(pt) != "hi bob" {
		t.Fatalf("got %q", pt)
	}
}

func TestDeriveConversationKey_DomainSeparation(t *testing.T) {
	alice, bob := mustKey(t), mustKey(t)

	k1, err := crypto.DeriveConversationKey(alice, bob.PublicKey(), "alice_bob")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	k2, err := crypto.DeriveConversationKey(alice, bob.PublicKey(), "alice_carol")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if k1.Equal(k2) {
		t.Fatal("different conversation ids must give different keys")
	}

	iv, ct, err := k1.Seal([]byte("secret"), aad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := k2.Open(iv, ct, aad); !errors.Is(err, crypto.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestSeal_FreshIVEachCall(t *testing.T) {
	k, err := crypto.NewAEADKey(bytes.Repeat([]byte{7}, crypto.KeyBytes))
	if err != nil {
		t.Fatalf("NewAEADKey: %v", err)
	}
	iv1, ct1, err := k.Seal([]byte("same"), aad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	iv2, ct2, err := k.Seal([]byte("same"), aad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if len(iv1) != crypto.IVBytes {
		t.Fatalf("iv length = %d", len(iv1))
	}
	if bytes.Equal(iv1, iv2) || bytes.Equal(ct1, ct2) {
		t.Fatal("two encryptions of the same plaintext must differ")
	}
}

func TestOpen_AnyBitFlip_Fails(t *testing.T) {
	k, err := crypto.NewAEADKey(bytes.Repeat([]byte{9}, crypto.KeyBytes))
	if err != nil {
		t.Fatalf("NewAEADKey: %v", err)
	}
	iv, ct, err := k.Seal([]byte("tamper me"), aad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	for i := 0; i < len(ct)*8; i++ {
		mod := append([]byte(nil), ct...)
		mod[i/8] ^= 1 << (i % 8)
		if _, err := k.Open(iv, mod, aad); !errors.Is(err, crypto.ErrAuthenticationFailed) {
			t.Fatalf("bit %d: expected ErrAuthenticationFailed, got %v", i, err)
		}
	}
	if _, err := k.Open(iv, ct, []byte("other aad")); !errors.Is(err, crypto.ErrAuthenticationFailed) {
		t.Fatalf("aad change: expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestOpen_BadIVLength(t *testing.T) {
	k, err := crypto.NewAEADKey(make([]byte, crypto.KeyBytes))
	if err != nil {
		t.Fatalf("NewAEADKey: %v", err)
	}
	if _, err := k.Open(make([]byte, 8), make([]byte, 32), aad); !errors.Is(err, crypto.ErrInvalidIVSize) {
		t.Fatalf("expected ErrInvalidIVSize, got %v", err)
	}
}

func TestNewAEADKey_WrongSize(t *testing.T) {
	if _, err := crypto.NewAEADKey(make([]byte, 16)); !errors.Is(err, crypto.ErrInvalidKeySize) {
		t.Fatalf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestDeriveKEK_Deterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, crypto.SaltBytes)
	a := crypto.DeriveKEK("pass", salt)
	b := crypto.DeriveKEK("pass", salt)
	c := crypto.DeriveKEK("other", salt)
	if !bytes.Equal(a, b) || bytes.Equal(a, c) || len(a) != crypto.KeyBytes {
		t.Fatal("argon2id KEK must be deterministic per passphrase")
	}
	s, err := crypto.DeriveKEKScrypt("pass", salt, crypto.ScryptParams{N: 1 << 10, R: 8, P: 1})
	if err != nil {
		t.Fatalf("scrypt: %v", err)
	}
	if len(s) != crypto.KeyBytes {
		t.Fatalf("scrypt KEK length = %d", len(s))
	}
}

func TestFingerprint_Stable(t *testing.T) {
	fp := crypto.Fingerprint([]byte("pub"))
	if len(fp) != 20 || fp != crypto.Fingerprint([]byte("pub")) {
		t.Fatalf("unexpected fingerprint %q", fp)
	}
}
