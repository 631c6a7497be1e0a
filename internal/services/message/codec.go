package message

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/tuongmengleang/firechat/internal/crypto"
	"github.com/tuongmengleang/firechat/internal/domain"
	"github.com/tuongmengleang/firechat/internal/observability"
	"github.com/tuongmengleang/firechat/internal/protocol/payload"
	"github.com/tuongmengleang/firechat/internal/protocol/replay"
)

// AdditionalData is bound into every GCM tag.
const AdditionalData = "firechat/v1"

// Codec turns message content into encrypted payloads and back.
type Codec struct {
	auth     domain.Authenticator
	identity domain.IdentityService
	keys     domain.ConversationKeyService
	guard    *replay.Guard
	metrics  *observability.Metrics
	log      *observability.Logger
	now      func() time.Time
}

// NewCodec returns a codec. guard holds the seen-nonce set of the session.
func NewCodec(
	auth domain.Authenticator,
	identity domain.IdentityService,
	keys domain.ConversationKeyService,
	guard *replay.Guard,
	metrics *observability.Metrics,
	log *observability.Logger,
) *Codec {
	return &Codec{
		auth:     auth,
		identity: identity,
		keys:     keys,
		guard:    guard,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Encrypt seals content for the conversation with peer and returns the
// payload together with the fresh message nonce.
func (c *Codec) Encrypt(
	ctx context.Context,
	peer domain.UserID,
	content domain.Content,
) (domain.EncryptedPayload, string, error) {
	key, err := c.keys.GetConversationKey(ctx, peer)
	if err != nil {
		return domain.EncryptedPayload{}, "", err
	}

	start := time.Now()
	nonce, err := crypto.RandomBytes(payload.NonceBytes)
	if err != nil {
		return domain.EncryptedPayload{}, "", fmt.Errorf("%w: %w", domain.ErrEncryptionFailed, err)
	}
	rec := payload.Record{
		Text:     content.Text,
		FileURL:  content.FileURL,
		FileName: content.FileName,
		FileType: content.FileType,
		FileSize: content.FileSize,
	}
	copy(rec.Nonce[:], nonce)

	plaintext, err := payload.Marshal(rec)
	if err != nil {
		return domain.EncryptedPayload{}, "", fmt.Errorf("%w: %w", domain.ErrEncryptionFailed, err)
	}
	defer crypto.Wipe(plaintext)

	iv, ct, err := key.Seal(plaintext, []byte(AdditionalData))
	if err != nil {
		return domain.EncryptedPayload{}, "", fmt.Errorf("%w: %w", domain.ErrEncryptionFailed, err)
	}
	c.metrics.RecordCryptoOperation("encrypt", time.Since(start))

	return domain.EncryptedPayload{
		Ciphertext: crypto.B64(ct),
		IV:         crypto.B64(iv),
		Version:    domain.ProtocolVersion,
	}, crypto.B64(nonce), nil
}

// Decrypt opens p from peer and checks that its embedded nonce matches
// messageNonce. Unless skipReplayCheck is set, the nonce is then recorded
// and a nonce seen before fails with ErrReplayDetected.
func (c *Codec) Decrypt(
	ctx context.Context,
	peer domain.UserID,
	p domain.EncryptedPayload,
	messageNonce string,
	skipReplayCheck bool,
) (domain.Content, error) {
	mode := replayRecord
	if skipReplayCheck {
		mode = replaySkip
	}
	return c.decrypt(ctx, peer, p, messageNonce, mode)
}

func (c *Codec) decrypt(
	ctx context.Context,
	peer domain.UserID,
	p domain.EncryptedPayload,
	messageNonce string,
	mode replayMode,
) (domain.Content, error) {
	if p.Version != domain.ProtocolVersion {
		return domain.Content{}, fmt.Errorf("%w: %d", domain.ErrUnsupportedVersion, p.Version)
	}

	key, err := c.keys.GetConversationKey(ctx, peer)
	if err != nil {
		return domain.Content{}, err
	}

	start := time.Now()
	ct, err := crypto.UnB64(p.Ciphertext)
	if err != nil {
		return domain.Content{}, fmt.Errorf("%w: ciphertext: %w", domain.ErrDecryptionFailed, err)
	}
	iv, err := crypto.UnB64(p.IV)
	if err != nil {
		return domain.Content{}, fmt.Errorf("%w: iv: %w", domain.ErrDecryptionFailed, err)
	}
	if len(iv) != crypto.IVBytes {
		return domain.Content{}, fmt.Errorf("%w: iv is %d bytes", domain.ErrDecryptionFailed, len(iv))
	}

	plaintext, err := key.Open(iv, ct, []byte(AdditionalData))
	if err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			return domain.Content{}, fmt.Errorf("%w: %w", domain.ErrIntegrityFailed, err)
		}
		return domain.Content{}, fmt.Errorf("%w: %w", domain.ErrDecryptionFailed, err)
	}
	defer crypto.Wipe(plaintext)

	rec, err := payload.Unmarshal(plaintext)
	if err != nil {
		return domain.Content{}, fmt.Errorf("%w: %w", domain.ErrDecryptionFailed, err)
	}
	c.metrics.RecordCryptoOperation("decrypt", time.Since(start))

	embedded := crypto.B64(rec.Nonce[:])
	if subtle.ConstantTimeCompare([]byte(embedded), []byte(messageNonce)) != 1 {
		return domain.Content{}, domain.ErrNonceMismatch
	}

	switch mode {
	case replayRecord:
		if !c.guard.Validate(messageNonce) {
			return domain.Content{}, domain.ErrReplayDetected
		}
	case replayCheck:
		if c.guard.Contains(messageNonce) {
			return domain.Content{}, domain.ErrReplayDetected
		}
	}

	return domain.Content{
		Text:     rec.Text,
		FileURL:  rec.FileURL,
		FileName: rec.FileName,
		FileType: rec.FileType,
		FileSize: rec.FileSize,
	}, nil
}

// Prepare encrypts content into a complete record addressed to peer.
func (c *Codec) Prepare(
	ctx context.Context,
	peer domain.UserID,
	content domain.Content,
) (domain.EncryptedMessage, error) {
	_, self, err := c.identity.PrivateKey()
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	acct, _, err := c.auth.CurrentUser(ctx)
	if err != nil {
		return domain.EncryptedMessage{}, fmt.Errorf("read current user: %w", err)
	}

	enc, nonce, err := c.Encrypt(ctx, peer, content)
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	return domain.EncryptedMessage{
		SenderID:       self,
		RecipientID:    peer,
		SenderUsername: acct.DisplayName,
		ConversationID: domain.NewConversationID(self, peer),
		CreatedAt:      c.now().UnixMilli(),
		Encrypted:      enc,
		MessageNonce:   nonce,
	}, nil
}

// Open decrypts a received or cached record. It never fails: a message that
// cannot be opened comes back with DecryptionFailed set and a reason.
func (c *Codec) Open(ctx context.Context, rec domain.EncryptedMessage, skipReplayCheck bool) domain.DecryptedMessage {
	mode := replayRecord
	if skipReplayCheck {
		mode = replaySkip
	}
	out, _ := c.open(ctx, rec, mode, false)
	return out
}

// replayMode selects what decryption does with the replay guard.
type replayMode int

const (
	replayRecord replayMode = iota // reject a seen nonce, then record it
	replaySkip                     // ignore the guard
	replayCheck                    // reject a seen nonce without recording it
)

// open decrypts rec. When inbound is set, rec must be addressed to the
// signed-in user.
func (c *Codec) open(
	ctx context.Context,
	rec domain.EncryptedMessage,
	mode replayMode,
	inbound bool,
) (domain.DecryptedMessage, error) {
	content, err := c.decryptRecord(ctx, rec, mode, inbound)
	if err != nil {
		return c.failed(rec, err), err
	}
	out := header(rec)
	out.Content = content
	return out, nil
}

// failed returns the marker for a record that could not be opened.
func (c *Codec) failed(rec domain.EncryptedMessage, err error) domain.DecryptedMessage {
	reason := domain.FailureReason(err)
	c.metrics.RecordDecryptFailure(reason)
	c.log.DecryptFailed(rec.SenderID.String(), rec.ConversationID.String(), reason, err)

	out := header(rec)
	out.DecryptionFailed = true
	out.FailureReason = reason
	return out
}

// remember records nonce as delivered.
func (c *Codec) remember(nonce string) {
	c.guard.Validate(nonce)
}

func header(rec domain.EncryptedMessage) domain.DecryptedMessage {
	return domain.DecryptedMessage{
		SenderID:       rec.SenderID,
		RecipientID:    rec.RecipientID,
		SenderUsername: rec.SenderUsername,
		ConversationID: rec.ConversationID,
		CreatedAt:      rec.CreatedAt,
	}
}

func (c *Codec) decryptRecord(
	ctx context.Context,
	rec domain.EncryptedMessage,
	mode replayMode,
	inbound bool,
) (domain.Content, error) {
	_, self, err := c.identity.PrivateKey()
	if err != nil {
		return domain.Content{}, err
	}
	peer, err := peerOf(rec, self, inbound)
	if err != nil {
		return domain.Content{}, err
	}
	return c.decrypt(ctx, peer, rec.Encrypted, rec.MessageNonce, mode)
}

// peerOf returns the other participant of rec. Routing fields sit outside
// the GCM tag: the record must involve self and carry the conversation id
// of its two participants.
func peerOf(rec domain.EncryptedMessage, self domain.UserID, inbound bool) (domain.UserID, error) {
	var peer domain.UserID
	switch {
	case rec.RecipientID == self:
		peer = rec.SenderID
	case rec.SenderID == self && !inbound:
		peer = rec.RecipientID
	default:
		return "", fmt.Errorf("%w: record addressed to %q", domain.ErrDecryptionFailed, rec.RecipientID)
	}
	if want := domain.NewConversationID(rec.SenderID, rec.RecipientID); rec.ConversationID != want {
		return "", fmt.Errorf("%w: conversation id %q, want %q", domain.ErrDecryptionFailed, rec.ConversationID, want)
	}
	return peer, nil
}

// Compile-time assertion that Codec implements domain.MessageCodec.
var _ domain.MessageCodec = (*Codec)(nil)
