package message_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuongmengleang/firechat/internal/domain"
	"github.com/tuongmengleang/firechat/internal/observability"
	"github.com/tuongmengleang/firechat/internal/protocol/replay"
	"github.com/tuongmengleang/firechat/internal/relay"
	"github.com/tuongmengleang/firechat/internal/services/conversation"
	"github.com/tuongmengleang/firechat/internal/services/directory"
	"github.com/tuongmengleang/firechat/internal/services/identity"
	"github.com/tuongmengleang/firechat/internal/services/message"
	"github.com/tuongmengleang/firechat/internal/store"
)

type fakeAuth struct{ acct domain.Account }

func (a fakeAuth) CurrentUser(context.Context) (domain.Account, bool, error) {
	return a.acct, true, nil
}

type memKeys struct {
	mu   sync.Mutex
	recs map[domain.UserID]domain.IdentityRecord
}

func (m *memKeys) GetIdentity(id domain.UserID) (domain.IdentityRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	return r, ok, nil
}

func (m *memKeys) PutIdentity(id domain.UserID, r domain.IdentityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[id] = r
	return nil
}

func (m *memKeys) DeleteIdentity(id domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, id)
	return nil
}

type party struct {
	id      domain.UserID
	keys    *conversation.Service
	guard   *replay.Guard
	codec   *message.Codec
	svc     *message.Service
	metrics *observability.Metrics
}

func newParty(t *testing.T, r *relay.Memory, id domain.UserID, name string) *party {
	t.Helper()
	return newPartyWithStore(t, r, r, id, name)
}

// newPartyWithStore publishes through r but sends and receives through msgs.
func newPartyWithStore(t *testing.T, r *relay.Memory, msgs domain.MessageStore, id domain.UserID, name string) *party {
	t.Helper()
	metrics := observability.NewMetrics()
	log := observability.Nop()
	auth := fakeAuth{domain.Account{UserID: id, DisplayName: name}}

	dir := directory.New(r, metrics)
	ids := identity.New(auth, &memKeys{recs: map[domain.UserID]domain.IdentityRecord{}}, dir, log)
	require.NoError(t, ids.Initialize(context.Background(), id))

	history, err := store.OpenHistoryBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })

	keys := conversation.New(ids, dir, metrics, log)
	guard := replay.New(0)
	codec := message.NewCodec(auth, ids, keys, guard, metrics, log)
	return &party{
		id:      id,
		keys:    keys,
		guard:   guard,
		codec:   codec,
		svc:     message.New(codec, ids, msgs, history, log),
		metrics: metrics,
	}
}

func pair(t *testing.T) (*relay.Memory, *party, *party) {
	t.Helper()
	r := relay.NewMemory()
	return r, newParty(t, r, "alice", "Alice"), newParty(t, r, "bob", "Bob")
}

// failingAck drops the first n acks.
type failingAck struct {
	*relay.Memory
	mu    sync.Mutex
	fails int
}

func (f *failingAck) AckMessages(ctx context.Context, userID domain.UserID, count int) error {
	f.mu.Lock()
	if f.fails > 0 {
		f.fails--
		f.mu.Unlock()
		return errors.New("relay unavailable")
	}
	f.mu.Unlock()
	return f.Memory.AckMessages(ctx, userID, count)
}
