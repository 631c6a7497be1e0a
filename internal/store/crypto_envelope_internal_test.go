package store

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEnvelope_RoundTripPerKDF(t *testing.T) {
	for _, kdf := range []KDF{KDFArgon2id, KDFScrypt} {
		b, err := seal("pw", []byte("payload"), kdf)
		if err != nil {
			t.Fatalf("%s seal: %v", kdf, err)
		}
		var bl blob
		if err := json.Unmarshal(b, &bl); err != nil {
			t.Fatalf("%s decode: %v", kdf, err)
		}
		if bl.KDF != kdf {
			t.Fatalf("blob kdf = %q, want %q", bl.KDF, kdf)
		}

		pt, err := open("pw", b)
		if err != nil {
			t.Fatalf("%s open: %v", kdf, err)
		}
		if string(pt) != "payload" {
			t.Fatalf("%s got %q", kdf, pt)
		}
		if _, err := open("nope", b); !errors.Is(err, ErrWrongPassphrase) {
			t.Fatalf("%s: expected ErrWrongPassphrase, got %v", kdf, err)
		}
	}
}

func TestEnvelope_UnknownKDFRejected(t *testing.T) {
	if _, err := open("pw", []byte(`{"v":1,"kdf":"pbkdf2"}`)); !errors.Is(err, ErrUnknownKDF) {
		t.Fatalf("expected ErrUnknownKDF, got %v", err)
	}
	if _, err := open("pw", []byte(`{"v":1}`)); !errors.Is(err, ErrUnknownKDF) {
		t.Fatalf("blob without kdf: expected ErrUnknownKDF, got %v", err)
	}
}

func TestEnvelope_FutureVersionRejected(t *testing.T) {
	if _, err := open("pw", []byte(`{"v":99,"kdf":"argon2id"}`)); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestParseKDF(t *testing.T) {
	cases := map[string]KDF{"": KDFArgon2id, "argon2id": KDFArgon2id, " Scrypt ": KDFScrypt}
	for in, want := range cases {
		got, err := ParseKDF(in)
		if err != nil || got != want {
			t.Fatalf("ParseKDF(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseKDF("md5"); !errors.Is(err, ErrUnknownKDF) {
		t.Fatalf("expected ErrUnknownKDF, got %v", err)
	}
}
