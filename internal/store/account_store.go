package store

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tuongmengleang/firechat/internal/domain"
)

const accountFile = "account.json"

// AccountFileStore keeps the anonymous account of this device on disk and
// doubles as the Authenticator for the client services.
type AccountFileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewAccountFileStore returns an AccountFileStore rooted at dir.
func NewAccountFileStore(dir string) *AccountFileStore {
	return &AccountFileStore{dir: dir, now: time.Now}
}

// SignIn returns the existing account or creates one with a random user id.
// A non-empty displayName replaces the stored one.
func (s *AccountFileStore) SignIn(displayName string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	displayName = strings.TrimSpace(displayName)
	path := filepath.Join(s.dir, accountFile)

	var acct domain.Account
	found, err := readJSON(path, &acct)
	if err != nil {
		return domain.Account{}, err
	}
	if found && acct.UserID != "" {
		if displayName == "" || displayName == acct.DisplayName {
			return acct, nil
		}
		acct.DisplayName = displayName
		return acct, writeJSON(path, acct, 0o600)
	}

	acct = domain.Account{
		UserID:      domain.UserID(uuid.NewString()),
		DisplayName: displayName,
		CreatedAt:   s.now().UnixMilli(),
	}
	if err := writeJSON(path, acct, 0o600); err != nil {
		return domain.Account{}, err
	}
	return acct, nil
}

// CurrentUser returns the signed-in account, if any.
func (s *AccountFileStore) CurrentUser(_ context.Context) (domain.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var acct domain.Account
	found, err := readJSON(filepath.Join(s.dir, accountFile), &acct)
	if err != nil || !found || acct.UserID == "" {
		return domain.Account{}, false, err
	}
	return acct, true, nil
}

// SignOut forgets the account.
func (s *AccountFileStore) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(filepath.Join(s.dir, accountFile))
}

// Compile-time assertion that AccountFileStore implements domain.AccountStore.
var _ domain.AccountStore = (*AccountFileStore)(nil)
