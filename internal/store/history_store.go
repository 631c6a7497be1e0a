package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"

	"github.com/tuongmengleang/firechat/internal/domain"
)

const historyFile = "history.db"

var bucketConversations = []byte("conversations")

// HistoryBoltStore caches validated encrypted messages in a bolt database,
// one nested bucket per conversation keyed by insertion sequence.
type HistoryBoltStore struct {
	db *bolt.DB
}

// OpenHistoryBoltStore opens (or creates) the history database under dir.
func OpenHistoryBoltStore(dir string) (*HistoryBoltStore, error) {
	path := filepath.Join(dir, historyFile)
	db, err := bolt.Open(filepath.Clean(path), 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketConversations)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &HistoryBoltStore{db: db}, nil
}

// Close releases the database file lock.
func (h *HistoryBoltStore) Close() error { return h.db.Close() }

// AppendMessage stores msg at the end of its conversation. A record whose
// nonce is already present is ignored.
func (h *HistoryBoltStore) AppendMessage(msg domain.EncryptedMessage) error {
	val, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketConversations)
		if root == nil {
			return bolt.ErrBucketNotFound
		}
		conv, err := root.CreateBucketIfNotExists([]byte(msg.ConversationID))
		if err != nil {
			return err
		}
		nonces, err := conv.CreateBucketIfNotExists([]byte("nonces"))
		if err != nil {
			return err
		}
		if nonces.Get([]byte(msg.MessageNonce)) != nil {
			return nil
		}
		seq, err := conv.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		if err := nonces.Put([]byte(msg.MessageNonce), key); err != nil {
			return err
		}
		return conv.Put(key, val)
	})
}

// ListConversation returns the stored records of id in insertion order.
func (h *HistoryBoltStore) ListConversation(id domain.ConversationID) ([]domain.EncryptedMessage, error) {
	var out []domain.EncryptedMessage
	err := h.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketConversations)
		if root == nil {
			return nil
		}
		conv := root.Bucket([]byte(id))
		if conv == nil {
			return nil
		}
		c := conv.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if v == nil { // nested bucket
				continue
			}
			var msg domain.EncryptedMessage
			if err := json.Unmarshal(v, &msg); err != nil {
				return fmt.Errorf("decode history record: %w", err)
			}
			out = append(out, msg)
		}
		return nil
	})
	return out, err
}

// Compile-time assertion that HistoryBoltStore implements domain.HistoryStore.
var _ domain.HistoryStore = (*HistoryBoltStore)(nil)
