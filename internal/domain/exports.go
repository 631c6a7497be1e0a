package domain

import (
	interfaces "github.com/tuongmengleang/firechat/internal/domain/interfaces"
	types "github.com/tuongmengleang/firechat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	UserID           = types.UserID
	Fingerprint      = types.Fingerprint
	ConversationID   = types.ConversationID
	Account          = types.Account
	IdentityRecord   = types.IdentityRecord
	PublicKeyRecord  = types.PublicKeyRecord
	EncryptedPayload = types.EncryptedPayload
	Content          = types.Content
	EncryptedMessage = types.EncryptedMessage
	DecryptedMessage = types.DecryptedMessage
)

// ProtocolVersion is the supported EncryptedPayload version.
const ProtocolVersion = types.ProtocolVersion

// NewConversationID returns the deterministic id for the pair {a, b}.
func NewConversationID(a, b UserID) ConversationID { return types.NewConversationID(a, b) }

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyStore               = interfaces.KeyStore
	HistoryStore           = interfaces.HistoryStore
	Directory              = interfaces.Directory
	MessageStore           = interfaces.MessageStore
	RelayClient            = interfaces.RelayClient
	Authenticator          = interfaces.Authenticator
	AccountStore           = interfaces.AccountStore
	IdentityService        = interfaces.IdentityService
	DirectoryService       = interfaces.DirectoryService
	ConversationKeyService = interfaces.ConversationKeyService
	MessageCodec           = interfaces.MessageCodec
	MessageService         = interfaces.MessageService
)
