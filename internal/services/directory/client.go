package directory

import (
	"context"
	"crypto/ecdh"
	"fmt"
	"sync"

	"github.com/tuongmengleang/firechat/internal/crypto"
	"github.com/tuongmengleang/firechat/internal/domain"
	"github.com/tuongmengleang/firechat/internal/observability"
)

// Client resolves peers' public keys from the directory and keeps every
// imported key for the lifetime of the process.
type Client struct {
	dir     domain.Directory
	metrics *observability.Metrics

	mu    sync.RWMutex
	cache map[domain.UserID]*ecdh.PublicKey
}

// New returns a directory client over dir.
func New(dir domain.Directory, metrics *observability.Metrics) *Client {
	return &Client{
		dir:     dir,
		metrics: metrics,
		cache:   make(map[domain.UserID]*ecdh.PublicKey),
	}
}

// GetPublicKey returns the imported public key of peer.
func (c *Client) GetPublicKey(ctx context.Context, peer domain.UserID) (*ecdh.PublicKey, error) {
	c.mu.RLock()
	pub, ok := c.cache[peer]
	c.mu.RUnlock()
	if ok {
		c.metrics.PublicKeyFetches.WithLabelValues("cache").Inc()
		return pub, nil
	}

	rec, found, err := c.dir.GetPublicKeyRecord(ctx, peer)
	if err != nil {
		return nil, fmt.Errorf("fetch public key of %s: %w", peer, err)
	}
	if !found || rec.PublicKey == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrPublicKeyNotFound, peer)
	}
	pub, err = crypto.ImportPublicKey(rec.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: public key of %s: %w", domain.ErrKeyImportFailed, peer, err)
	}
	c.metrics.PublicKeyFetches.WithLabelValues("directory").Inc()

	c.mu.Lock()
	c.cache[peer] = pub
	c.mu.Unlock()
	return pub, nil
}

// LookupRecord reads the raw directory record of userID, bypassing the cache.
func (c *Client) LookupRecord(ctx context.Context, userID domain.UserID) (domain.PublicKeyRecord, bool, error) {
	return c.dir.GetPublicKeyRecord(ctx, userID)
}

// Publish writes record to the directory and drops any cached key for its
// user.
func (c *Client) Publish(ctx context.Context, record domain.PublicKeyRecord) error {
	if err := c.dir.PutPublicKeyRecord(ctx, record); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.cache, record.UserID)
	c.mu.Unlock()
	return nil
}

// Compile-time assertion that Client implements domain.DirectoryService.
var _ domain.DirectoryService = (*Client)(nil)
