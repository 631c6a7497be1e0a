package relay

import (
	"context"
	"sync"

	"github.com/tuongmengleang/firechat/internal/domain"
)

// Backend is the storage behind a relay server.
type Backend interface {
	domain.RelayClient
	// Queued returns the number of messages waiting across all users.
	Queued(ctx context.Context) (int, error)
}

// Memory is an in-process relay: a directory and per-user FIFO queues. It
// backs the relay daemon when no data file is configured and stands in for
// the relay in tests.
type Memory struct {
	mu     sync.RWMutex
	users  map[domain.UserID]domain.PublicKeyRecord
	queues map[domain.UserID][]domain.EncryptedMessage
}

// NewMemory returns an empty in-memory relay.
func NewMemory() *Memory {
	return &Memory{
		users:  make(map[domain.UserID]domain.PublicKeyRecord),
		queues: make(map[domain.UserID][]domain.EncryptedMessage),
	}
}

func (m *Memory) PutPublicKeyRecord(_ context.Context, rec domain.PublicKeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[rec.UserID] = rec
	return nil
}

func (m *Memory) GetPublicKeyRecord(_ context.Context, userID domain.UserID) (domain.PublicKeyRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.users[userID]
	return rec, ok, nil
}

func (m *Memory) PostMessage(_ context.Context, msg domain.EncryptedMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[msg.RecipientID] = append(m.queues[msg.RecipientID], msg)
	return nil
}

func (m *Memory) FetchMessages(_ context.Context, userID domain.UserID, limit int) ([]domain.EncryptedMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := m.queues[userID]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	return append([]domain.EncryptedMessage(nil), q...), nil
}

func (m *Memory) AckMessages(_ context.Context, userID domain.UserID, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queues[userID]
	if count >= len(q) {
		delete(m.queues, userID)
		return nil
	}
	if count > 0 {
		m.queues[userID] = append([]domain.EncryptedMessage(nil), q[count:]...)
	}
	return nil
}

func (m *Memory) Queued(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, q := range m.queues {
		n += len(q)
	}
	return n, nil
}

// Inject appends a raw record to userID's queue, bypassing the recipient
// routing of PostMessage. Tests use it to simulate a hostile relay.
func (m *Memory) Inject(userID domain.UserID, msg domain.EncryptedMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[userID] = append(m.queues[userID], msg)
}

var _ Backend = (*Memory)(nil)
