package crypto

import (
	"crypto/ecdh"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// conversationSalt is the fixed application salt for conversation keys.
	conversationSalt = "firechat-e2ee-v1"

	// conversationInfoPrefix binds each derived key to one conversation id.
	conversationInfoPrefix = "firechat/conversation-key|"
)

// DeriveConversationKey runs ECDH(priv, pub) and expands the shared secret
// with HKDF-SHA256 into an AES-256-GCM key bound to conversationID.
//
// Both participants obtain the same key as long as they pass the same
// conversationID; a different id yields an unrelated key.
func DeriveConversationKey(priv *ecdh.PrivateKey, pub *ecdh.PublicKey, conversationID string) (*AEADKey, error) {
	secret, err := SharedSecret(priv, pub)
	if err != nil {
		return nil, err
	}
	defer Wipe(secret)

	okm, err := expand(secret, []byte(conversationSalt), []byte(conversationInfoPrefix+conversationID), KeyBytes)
	if err != nil {
		return nil, err
	}
	defer Wipe(okm)
	return NewAEADKey(okm)
}

func expand(ikm, salt, info []byte, n int) ([]byte, error) {
	r := hkdf.New(sha256.New, ikm, salt, info)
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return out, nil
}
