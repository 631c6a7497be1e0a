package interfaces

import (
	"context"
	"crypto/ecdh"

	"github.com/tuongmengleang/firechat/internal/crypto"
	domaintypes "github.com/tuongmengleang/firechat/internal/domain/types"
)

// IdentityService owns the local long-lived key pair.
type IdentityService interface {
	Initialize(ctx context.Context, userID domaintypes.UserID) error
	PrivateKey() (*ecdh.PrivateKey, domaintypes.UserID, error)
	Fingerprint() (domaintypes.Fingerprint, error)
	Reset()
}

// DirectoryService resolves peers' published public keys.
type DirectoryService interface {
	GetPublicKey(ctx context.Context, peer domaintypes.UserID) (*ecdh.PublicKey, error)
	LookupRecord(
		ctx context.Context,
		userID domaintypes.UserID,
	) (domaintypes.PublicKeyRecord, bool, error)
	Publish(ctx context.Context, record domaintypes.PublicKeyRecord) error
}

// ConversationKeyService derives and caches per-peer symmetric keys.
type ConversationKeyService interface {
	GetConversationKey(ctx context.Context, peer domaintypes.UserID) (*crypto.AEADKey, error)
	Clear()
}

// MessageCodec encrypts and decrypts message payloads for one peer.
type MessageCodec interface {
	Encrypt(
		ctx context.Context,
		peer domaintypes.UserID,
		content domaintypes.Content,
	) (domaintypes.EncryptedPayload, string, error)
	Decrypt(
		ctx context.Context,
		peer domaintypes.UserID,
		payload domaintypes.EncryptedPayload,
		messageNonce string,
		skipReplayCheck bool,
	) (domaintypes.Content, error)
}

// MessageService sends, receives and replays conversation history.
type MessageService interface {
	Send(
		ctx context.Context,
		peer domaintypes.UserID,
		content domaintypes.Content,
	) (domaintypes.EncryptedMessage, error)
	Receive(ctx context.Context, limit int) ([]domaintypes.DecryptedMessage, error)
	History(ctx context.Context, peer domaintypes.UserID) ([]domaintypes.DecryptedMessage, error)
}
