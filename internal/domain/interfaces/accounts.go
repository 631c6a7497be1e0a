package interfaces

import (
	"context"

	domaintypes "github.com/tuongmengleang/firechat/internal/domain/types"
)

// Authenticator reports the signed-in user, if any.
type Authenticator interface {
	CurrentUser(ctx context.Context) (domaintypes.Account, bool, error)
}

// AccountStore persists the anonymous account on this device.
type AccountStore interface {
	Authenticator
	SignIn(displayName string) (domaintypes.Account, error)
	SignOut() error
}
