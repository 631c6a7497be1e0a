package message

import (
	"context"
	"errors"
	"fmt"

	"github.com/tuongmengleang/firechat/internal/domain"
	"github.com/tuongmengleang/firechat/internal/observability"
)

// Service sends and receives messages over the relay.
//
// High-level flow:
//   - Send: encrypt with the conversation key, post to the relay, then keep a
//     copy in local history.
//   - Receive: fetch queued records, open each one, keep the ones that
//     verified, then ack what was handled.
//   - History: re-open cached records without touching the replay guard.
type Service struct {
	codec    *Codec
	identity domain.IdentityService
	relay    domain.MessageStore
	history  domain.HistoryStore
	log      *observability.Logger
}

// New constructs a message Service.
func New(
	codec *Codec,
	identity domain.IdentityService,
	relay domain.MessageStore,
	history domain.HistoryStore,
	log *observability.Logger,
) *Service {
	return &Service{
		codec:    codec,
		identity: identity,
		relay:    relay,
		history:  history,
		log:      log,
	}
}

// Send encrypts content for peer and posts it.
func (s *Service) Send(
	ctx context.Context,
	peer domain.UserID,
	content domain.Content,
) (domain.EncryptedMessage, error) {
	msg, err := s.codec.Prepare(ctx, peer, content)
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	if err := s.relay.PostMessage(ctx, msg); err != nil {
		return domain.EncryptedMessage{}, fmt.Errorf("post message: %w", err)
	}
	if err := s.history.AppendMessage(msg); err != nil {
		s.log.Error(err, "cache sent message")
	}
	s.log.MessageSent(peer.String(), msg.ConversationID.String(), len(msg.Encrypted.Ciphertext))
	return msg, nil
}

// Receive fetches up to limit queued messages and opens them in order.
//
// Messages that fail verification are returned as DecryptionFailed markers
// and acked like any other. A transient failure (relay or directory
// unreachable, session gone) stops processing; that message and the rest
// stay queued for the next call.
//
// Nonces and history are only committed once the relay accepted the ack. If
// the ack fails the opened batch is still returned with the error, and the
// next call delivers the same messages again.
func (s *Service) Receive(ctx context.Context, limit int) ([]domain.DecryptedMessage, error) {
	_, self, err := s.identity.PrivateKey()
	if err != nil {
		return nil, err
	}
	records, err := s.relay.FetchMessages(ctx, self, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	out := make([]domain.DecryptedMessage, 0, len(records))
	batch := make(map[string]struct{}, len(records))
	var verified []domain.EncryptedMessage
	for _, rec := range records {
		dm, err := s.codec.open(ctx, rec, replayCheck, true)
		if err != nil && isTransient(err) {
			break
		}
		if err == nil {
			if _, dup := batch[rec.MessageNonce]; dup {
				dm = s.codec.failed(rec, domain.ErrReplayDetected)
			} else {
				batch[rec.MessageNonce] = struct{}{}
				verified = append(verified, rec)
			}
		}
		out = append(out, dm)
	}

	if len(out) > 0 {
		if err := s.relay.AckMessages(ctx, self, len(out)); err != nil {
			return out, fmt.Errorf("ack %d messages: %w", len(out), err)
		}
	}
	for _, rec := range verified {
		s.codec.remember(rec.MessageNonce)
		if err := s.history.AppendMessage(rec); err != nil {
			s.log.Error(err, "cache received message")
		}
	}
	return out, nil
}

// History re-opens the cached conversation with peer, oldest first.
func (s *Service) History(ctx context.Context, peer domain.UserID) ([]domain.DecryptedMessage, error) {
	_, self, err := s.identity.PrivateKey()
	if err != nil {
		return nil, err
	}
	records, err := s.history.ListConversation(domain.NewConversationID(self, peer))
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]domain.DecryptedMessage, 0, len(records))
	for _, rec := range records {
		out = append(out, s.codec.Open(ctx, rec, true))
	}
	return out, nil
}

// permanentFailures are verdicts about the message itself; retrying cannot
// change them.
var permanentFailures = []error{
	domain.ErrUnsupportedVersion,
	domain.ErrDecryptionFailed,
	domain.ErrIntegrityFailed,
	domain.ErrNonceMismatch,
	domain.ErrReplayDetected,
	domain.ErrPublicKeyNotFound,
	domain.ErrKeyImportFailed,
	domain.ErrKeyDerivationFailed,
}

func isTransient(err error) bool {
	for _, p := range permanentFailures {
		if errors.Is(err, p) {
			return false
		}
	}
	return true
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
