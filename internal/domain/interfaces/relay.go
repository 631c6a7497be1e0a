package interfaces

import (
	"context"

	domaintypes "github.com/tuongmengleang/firechat/internal/domain/types"
)

// Directory stores one public-key record per user.
type Directory interface {
	PutPublicKeyRecord(ctx context.Context, record domaintypes.PublicKeyRecord) error
	GetPublicKeyRecord(
		ctx context.Context,
		userID domaintypes.UserID,
	) (domaintypes.PublicKeyRecord, bool, error)
}

// MessageStore queues encrypted message records for their recipients.
type MessageStore interface {
	PostMessage(ctx context.Context, message domaintypes.EncryptedMessage) error
	FetchMessages(
		ctx context.Context,
		userID domaintypes.UserID,
		limit int,
	) ([]domaintypes.EncryptedMessage, error)
	AckMessages(ctx context.Context, userID domaintypes.UserID, count int) error
}

// RelayClient is the untrusted relay: a directory plus a message store.
type RelayClient interface {
	Directory
	MessageStore
}
