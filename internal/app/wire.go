package app

import (
	"context"
	"fmt"
	"os"

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

// Wire bundles all stores, services, and clients for one client session.
// Every cache lives here, so two Wires never share state.
type Wire struct {
	Log     *observability.Logger
	Metrics *observability.Metrics

	Accounts *store.AccountFileStore
	Keys     *store.KeyFileStore
	History  *store.HistoryBoltStore
	Relay    domain.RelayClient

	Directory     *directory.Client
	Identity      *identity.Service
	Conversations *conversation.Service
	Guard         *replay.Guard
	Codec         *message.Codec
	Messages      *message.Service
}

// NewWire constructs the dependency graph from cfg. Close releases the
// history database.
func NewWire(cfg Config) (*Wire, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, fmt.Errorf("create home %s: %w", cfg.Home, err)
	}

	log := cfg.Log
	if log == nil {
		log = observability.Nop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	// Local stores
	accounts := store.NewAccountFileStore(cfg.Home)
	keys := store.NewKeyFileStore(cfg.Home, cfg.Passphrase)
	if cfg.KeyKDF != "" {
		keys.WithKDF(cfg.KeyKDF)
	}
	history, err := store.OpenHistoryBoltStore(cfg.Home)
	if err != nil {
		return nil, err
	}

	// Relay client
	rc := cfg.Relay
	if rc == nil {
		h := relay.NewHTTP(cfg.RelayURL)
		if cfg.HTTP != nil {
			h.HTTP = cfg.HTTP
		}
		rc = h
	}

	// Services
	dir := directory.New(rc, metrics)
	ids := identity.New(accounts, keys, dir, log)
	convs := conversation.New(ids, dir, metrics, log)
	guard := replay.New(cfg.ReplayCapacity)
	codec := message.NewCodec(accounts, ids, convs, guard, metrics, log)
	msgs := message.New(codec, ids, rc, history, log)

	return &Wire{
		Log:           log,
		Metrics:       metrics,
		Accounts:      accounts,
		Keys:          keys,
		History:       history,
		Relay:         rc,
		Directory:     dir,
		Identity:      ids,
		Conversations: convs,
		Guard:         guard,
		Codec:         codec,
		Messages:      msgs,
	}, nil
}

// SignIn signs in anonymously (creating the account on first use) and
// initializes the identity key pair.
func (w *Wire) SignIn(ctx context.Context, displayName string) (domain.Account, error) {
	acct, err := w.Accounts.SignIn(displayName)
	if err != nil {
		return domain.Account{}, fmt.Errorf("sign in: %w", err)
	}
	if err := w.Identity.Initialize(ctx, acct.UserID); err != nil {
		return domain.Account{}, err
	}
	return acct, nil
}

// Resume initializes the identity of an existing account.
func (w *Wire) Resume(ctx context.Context) (domain.Account, error) {
	acct, ok, err := w.Accounts.CurrentUser(ctx)
	if err != nil {
		return domain.Account{}, err
	}
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: run signin first", domain.ErrNotAuthenticated)
	}
	if err := w.Identity.Initialize(ctx, acct.UserID); err != nil {
		return domain.Account{}, err
	}
	return acct, nil
}

// SignOut forgets conversation keys, seen nonces and the in-memory
// identity, then removes the account. Cached peer public keys are kept.
func (w *Wire) SignOut(_ context.Context) error {
	w.Conversations.Clear()
	w.Guard.Clear()
	w.Identity.Reset()
	return w.Accounts.SignOut()
}

// Close releases resources held by the wire.
func (w *Wire) Close() error {
	return w.History.Close()
}
