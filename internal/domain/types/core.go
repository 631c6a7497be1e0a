package types

import "strings"

// UserID identifies an account in the directory and message store.
type UserID string

// String returns the string form of the user id.
func (u UserID) String() string { return string(u) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// ConversationID identifies the conversation between two users.
type ConversationID string

// String returns the string form of the conversation identifier.
func (id ConversationID) String() string { return string(id) }

// ConversationSeparator joins the two sorted participant ids.
const ConversationSeparator = "_"

// NewConversationID returns the id both participants compute for their
// conversation, independent of argument order.
func NewConversationID(a, b UserID) ConversationID {
	if b < a {
		a, b = b, a
	}
	return ConversationID(strings.Join([]string{a.String(), b.String()}, ConversationSeparator))
}
