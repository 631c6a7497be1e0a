package interfaces

import domaintypes "github.com/tuongmengleang/firechat/internal/domain/types"

// KeyStore persists identity key pairs on this device, addressed by user id.
type KeyStore interface {
	GetIdentity(userID domaintypes.UserID) (domaintypes.IdentityRecord, bool, error)
	PutIdentity(userID domaintypes.UserID, record domaintypes.IdentityRecord) error
	DeleteIdentity(userID domaintypes.UserID) error
}

// HistoryStore caches encrypted messages that already passed validation so
// they can be re-read in later sessions.
type HistoryStore interface {
	AppendMessage(message domaintypes.EncryptedMessage) error
	ListConversation(id domaintypes.ConversationID) ([]domaintypes.EncryptedMessage, error)
}
