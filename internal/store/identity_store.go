package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tuongmengleang/firechat/internal/domain"
)

const keysDir = "keys"

// ErrInvalidUserID is returned for ids that cannot name a key file.
var ErrInvalidUserID = errors.New("invalid user id for key storage")

// KeyFileStore persists identity key pairs on disk, one passphrase-sealed
// file per user id.
type KeyFileStore struct {
	dir        string
	passphrase string
	kdf        KDF
	mu         sync.Mutex
}

// NewKeyFileStore returns a KeyFileStore rooted at dir. Every record is
// sealed with passphrase under an Argon2id derived key.
func NewKeyFileStore(dir, passphrase string) *KeyFileStore {
	return &KeyFileStore{dir: dir, passphrase: passphrase, kdf: KDFArgon2id}
}

// WithKDF selects the key derivation for files written from now on. Files
// record their own KDF, so existing ones stay readable.
func (s *KeyFileStore) WithKDF(kdf KDF) *KeyFileStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kdf = kdf
	return s
}

// GetIdentity loads the key pair stored for userID.
func (s *KeyFileStore) GetIdentity(userID domain.UserID) (domain.IdentityRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(userID)
	if err != nil {
		return domain.IdentityRecord{}, false, err
	}
	b, err := readFile(path)
	if err != nil || b == nil {
		return domain.IdentityRecord{}, false, err
	}
	pt, err := open(s.passphrase, b)
	if err != nil {
		return domain.IdentityRecord{}, false, err
	}
	var rec domain.IdentityRecord
	if err := json.Unmarshal(pt, &rec); err != nil {
		return domain.IdentityRecord{}, false, fmt.Errorf("decode identity: %w", err)
	}
	return rec, true, nil
}

// PutIdentity seals and writes the key pair for userID.
func (s *KeyFileStore) PutIdentity(userID domain.UserID, rec domain.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(userID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ct, err := seal(s.passphrase, raw, s.kdf)
	if err != nil {
		return err
	}
	return writeFile(path, ct, 0o600)
}

// DeleteIdentity removes the key pair for userID, if any.
func (s *KeyFileStore) DeleteIdentity(userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(userID)
	if err != nil {
		return err
	}
	return removeFile(path)
}

func (s *KeyFileStore) path(userID domain.UserID) (string, error) {
	id := userID.String()
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return filepath.Join(s.dir, keysDir, id+".json.enc"), nil
}

// Compile-time assertion that KeyFileStore implements domain.KeyStore.
var _ domain.KeyStore = (*KeyFileStore)(nil)
