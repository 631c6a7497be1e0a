package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tuongmengleang/firechat/internal/crypto"
	"github.com/tuongmengleang/firechat/internal/domain"
	"github.com/tuongmengleang/firechat/internal/observability"
)

// Service derives the symmetric key of each conversation and caches it by
// peer id until Clear.
type Service struct {
	identity  domain.IdentityService
	directory domain.DirectoryService
	metrics   *observability.Metrics
	log       *observability.Logger

	flight singleflight.Group

	mu         sync.Mutex
	keys       map[domain.UserID]*crypto.AEADKey
	generation uint64
}

// New returns a conversation key service.
func New(
	identity domain.IdentityService,
	directory domain.DirectoryService,
	metrics *observability.Metrics,
	log *observability.Logger,
) *Service {
	return &Service{
		identity:  identity,
		directory: directory,
		metrics:   metrics,
		log:       log,
		keys:      make(map[domain.UserID]*crypto.AEADKey),
	}
}

// ConversationID returns the id shared by a and b, in either order.
func ConversationID(a, b domain.UserID) domain.ConversationID {
	return domain.NewConversationID(a, b)
}

// GetConversationKey returns the key shared with peer, deriving it on the
// first request. Concurrent first requests for the same peer derive once.
func (s *Service) GetConversationKey(ctx context.Context, peer domain.UserID) (*crypto.AEADKey, error) {
	priv, self, err := s.identity.PrivateKey()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	key, ok := s.keys[peer]
	generation := s.generation
	s.mu.Unlock()
	if ok {
		s.metrics.ConversationKeyCacheHits.Inc()
		return key, nil
	}

	// Waiters share this derivation, so one caller's cancellation must not
	// fail it for the others.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(self.String()+"|"+peer.String(), func() (any, error) {
		s.mu.Lock()
		cached, ok := s.keys[peer]
		s.mu.Unlock()
		if ok {
			return cached, nil
		}

		pub, err := s.directory.GetPublicKey(shared, peer)
		if err != nil {
			return nil, err
		}

		cid := ConversationID(self, peer)
		start := time.Now()
		key, err := crypto.DeriveConversationKey(priv, pub, cid.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrKeyDerivationFailed, err)
		}
		elapsed := time.Since(start)
		s.metrics.ConversationKeysDerived.Inc()
		s.metrics.RecordCryptoOperation("derive", elapsed)
		s.log.ConversationKeyDerived(peer.String(), cid.String(), elapsed)

		s.mu.Lock()
		// A Clear during derivation means the key belongs to a finished session.
		if s.generation == generation {
			s.keys[peer] = key
		}
		s.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*crypto.AEADKey), nil
}

// Clear wipes and forgets every cached key.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for peer, key := range s.keys {
		key.Wipe()
		delete(s.keys, peer)
	}
	s.generation++
}

// Len returns the number of cached keys.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Compile-time assertion that Service implements domain.ConversationKeyService.
var _ domain.ConversationKeyService = (*Service)(nil)
