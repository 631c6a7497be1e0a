package identity

import (
	"context"
	"crypto/ecdh"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/tuongmengleang/firechat/internal/crypto"
	"github.com/tuongmengleang/firechat/internal/domain"
	"github.com/tuongmengleang/firechat/internal/observability"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service owns the long-lived ECDH P-256 identity of the signed-in user.
//
// Initialize loads the key pair from the local key store, or generates and
// stores one, and makes sure the directory advertises the matching public
// key. The private key stays in memory until Reset.
type Service struct {
	auth      domain.Authenticator
	keys      domain.KeyStore
	directory domain.DirectoryService
	log       *observability.Logger
	now       func() time.Time

	mu          sync.RWMutex
	userID      domain.UserID
	priv        *ecdh.PrivateKey
	fingerprint domain.Fingerprint
}

// New returns an identity service.
func New(
	auth domain.Authenticator,
	keys domain.KeyStore,
	directory domain.DirectoryService,
	log *observability.Logger,
) *Service {
	return &Service{
		auth:      auth,
		keys:      keys,
		directory: directory,
		log:       log,
		now:       time.Now,
	}
}

// Initialize prepares the identity of userID, who must be the signed-in
// user. Calling it again for the same user is a no-op.
func (s *Service) Initialize(ctx context.Context, userID domain.UserID) error {
	acct, ok, err := s.auth.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("read current user: %w", err)
	}
	if !ok || userID == "" || acct.UserID != userID {
		return fmt.Errorf("%w: initialize identity for %q", domain.ErrNotAuthenticated, userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.priv != nil && s.userID == userID {
		return nil
	}

	priv, publicKey, created, err := s.loadOrCreate(userID)
	if err != nil {
		return err
	}
	if err := s.ensureDirectoryRecord(ctx, acct, publicKey); err != nil {
		return err
	}

	s.userID = userID
	s.priv = priv
	s.fingerprint = domain.Fingerprint(crypto.Fingerprint(priv.PublicKey().Bytes()))
	s.log.IdentityInitialized(userID.String(), s.fingerprint.String(), created)
	return nil
}

func (s *Service) loadOrCreate(userID domain.UserID) (*ecdh.PrivateKey, string, bool, error) {
	rec, found, err := s.keys.GetIdentity(userID)
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: load stored identity: %w", domain.ErrKeyImportFailed, err)
	}
	if found {
		priv, err := crypto.ImportPrivateKey(rec.PrivateKey)
		if err != nil {
			return nil, "", false, fmt.Errorf("%w: %w", domain.ErrKeyImportFailed, err)
		}
		// Re-export rather than trusting the stored public half.
		pub, err := crypto.ExportPublicKey(priv.PublicKey())
		if err != nil {
			return nil, "", false, fmt.Errorf("%w: %w", domain.ErrKeyImportFailed, err)
		}
		return priv, pub, false, nil
	}

	priv, err := crypto.GenerateIdentityKey()
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: %w", domain.ErrKeyGenerationFailed, err)
	}
	pub, err := crypto.ExportPublicKey(priv.PublicKey())
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: %w", domain.ErrKeyGenerationFailed, err)
	}
	privEnc, err := crypto.ExportPrivateKey(priv)
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: %w", domain.ErrKeyGenerationFailed, err)
	}
	rec = domain.IdentityRecord{PublicKey: pub, PrivateKey: privEnc, CreatedAt: s.now().UnixMilli()}
	if err := s.keys.PutIdentity(userID, rec); err != nil {
		return nil, "", false, fmt.Errorf("store identity: %w", err)
	}
	return priv, pub, true, nil
}

// ensureDirectoryRecord publishes the record when it is missing or stale.
func (s *Service) ensureDirectoryRecord(ctx context.Context, acct domain.Account, publicKey string) error {
	existing, found, err := s.directory.LookupRecord(ctx, acct.UserID)
	if err != nil {
		return fmt.Errorf("lookup own directory record: %w", err)
	}

	var reason string
	switch {
	case !found:
		reason = "missing"
	case existing.PublicKey != publicKey:
		reason = "key_changed"
	case existing.DisplayName != acct.DisplayName:
		reason = "display_name_changed"
	default:
		return nil
	}

	rec := domain.PublicKeyRecord{
		UserID:      acct.UserID,
		PublicKey:   publicKey,
		DisplayName: acct.DisplayName,
		CreatedAt:   s.now().UnixMilli(),
	}
	if found && existing.PublicKey == publicKey {
		rec.CreatedAt = existing.CreatedAt
	}
	if err := s.directory.Publish(ctx, rec); err != nil {
		return fmt.Errorf("publish public key: %w", err)
	}
	s.log.DirectoryRecordPublished(acct.UserID.String(), reason)
	return nil
}

// PrivateKey returns the in-memory private key and its owner.
func (s *Service) PrivateKey() (*ecdh.PrivateKey, domain.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.priv == nil {
		return nil, "", fmt.Errorf("%w: identity not initialized", domain.ErrNotAuthenticated)
	}
	return s.priv, s.userID, nil
}

// Fingerprint returns a short fingerprint of the local public key.
func (s *Service) Fingerprint() (domain.Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.priv == nil {
		return "", fmt.Errorf("%w: identity not initialized", domain.ErrNotAuthenticated)
	}
	return s.fingerprint, nil
}

// Reset forgets the in-memory identity. Stored keys are left untouched.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priv = nil
	s.userID = ""
	s.fingerprint = ""
}

// CheckPassphrase enforces a basic strength policy for new key stores.
func CheckPassphrase(passphrase string) error {
	if !isSecurePassphrase(passphrase) {
		return ErrWeakPassphrase
	}
	return nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
