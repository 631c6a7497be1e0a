package types

// ProtocolVersion is the only EncryptedPayload version decrypt accepts.
const ProtocolVersion = 1

// EncryptedPayload is the wire representation of one encrypted message body.
type EncryptedPayload struct {
	Ciphertext string `json:"ciphertext"` // base64
	IV         string `json:"iv"`         // base64, 12 bytes decoded
	Version    int    `json:"version"`
}

// Content is the structured plaintext of a message. Attachment fields only
// reference an uploaded blob; they are empty for text-only messages.
type Content struct {
	Text     string `json:"text"`
	FileURL  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// HasAttachment reports whether the content references a file.
func (c Content) HasAttachment() bool { return c.FileURL != "" }

// EncryptedMessage is the record exchanged through the message store.
type EncryptedMessage struct {
	SenderID       UserID           `json:"senderId"`
	RecipientID    UserID           `json:"recipientId"`
	SenderUsername string           `json:"senderUsername"`
	ConversationID ConversationID   `json:"conversationId"`
	CreatedAt      int64            `json:"createdAt"` // unix milliseconds
	Encrypted      EncryptedPayload `json:"encrypted"`
	MessageNonce   string           `json:"messageNonce"`
}

// DecryptedMessage is what the message service hands to the UI. When
// DecryptionFailed is set Content is empty and FailureReason says why.
type DecryptedMessage struct {
	SenderID         UserID         `json:"senderId"`
	RecipientID      UserID         `json:"recipientId"`
	SenderUsername   string         `json:"senderUsername"`
	ConversationID   ConversationID `json:"conversationId"`
	CreatedAt        int64          `json:"createdAt"`
	Content          Content        `json:"content"`
	DecryptionFailed bool           `json:"decryptionFailed,omitempty"`
	FailureReason    string         `json:"failureReason,omitempty"`
}
