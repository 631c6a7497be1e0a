package relay

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"

	"github.com/tuongmengleang/firechat/internal/domain"
)

var (
	bucketUsers  = []byte("users")
	bucketQueues = []byte("queues")
)

// Bolt is a relay backend persisted in a single bolt file. Queues are
// nested buckets keyed by recipient, entries keyed by sequence number.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the relay database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(filepath.Clean(path), 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open relay db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(bucketUsers); e != nil {
			return e
		}
		_, e := tx.CreateBucketIfNotExists(bucketQueues)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

// Close releases the database.
func (b *Bolt) Close() error { return b.db.Close() }

func (b *Bolt) PutPublicKeyRecord(_ context.Context, rec domain.PublicKeyRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsers).Put([]byte(rec.UserID), val)
	})
}

func (b *Bolt) GetPublicKeyRecord(_ context.Context, userID domain.UserID) (domain.PublicKeyRecord, bool, error) {
	var (
		rec   domain.PublicKeyRecord
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUsers).Get([]byte(userID))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	return rec, found, err
}

func (b *Bolt) PostMessage(_ context.Context, msg domain.EncryptedMessage) error {
	val, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		q, err := tx.Bucket(bucketQueues).CreateBucketIfNotExists([]byte(msg.RecipientID))
		if err != nil {
			return err
		}
		seq, err := q.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return q.Put(key, val)
	})
}

func (b *Bolt) FetchMessages(_ context.Context, userID domain.UserID, limit int) ([]domain.EncryptedMessage, error) {
	var out []domain.EncryptedMessage
	err := b.db.View(func(tx *bolt.Tx) error {
		q := tx.Bucket(bucketQueues).Bucket([]byte(userID))
		if q == nil {
			return nil
		}
		c := q.Cursor()
		for k, v := c.First(); k != nil && (limit <= 0 || len(out) < limit); k, v = c.Next() {
			var msg domain.EncryptedMessage
			if err := json.Unmarshal(v, &msg); err != nil {
				return err
			}
			out = append(out, msg)
		}
		return nil
	})
	return out, err
}

func (b *Bolt) AckMessages(_ context.Context, userID domain.UserID, count int) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		q := tx.Bucket(bucketQueues).Bucket([]byte(userID))
		if q == nil {
			return nil
		}
		c := q.Cursor()
		for k, _ := c.First(); k != nil && count > 0; k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return err
			}
			count--
		}
		return nil
	})
}

func (b *Bolt) Queued(_ context.Context) (int, error) {
	n := 0
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQueues).ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			n += tx.Bucket(bucketQueues).Bucket(k).Stats().KeyN
			return nil
		})
	})
	return n, err
}

var _ Backend = (*Bolt)(nil)
