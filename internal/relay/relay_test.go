package relay_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/tuongmengleang/firechat/internal/domain"
	"github.com/tuongmengleang/firechat/internal/observability"
	"github.com/tuongmengleang/firechat/internal/relay"
)

func newServer(t *testing.T, backend relay.Backend) (*httptest.Server, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics()
	srv := httptest.NewServer(relay.NewServer(backend, metrics, observability.Nop()).Handler())
	t.Cleanup(srv.Close)
	return srv, metrics
}

func message(from, to domain.UserID, nonce string) domain.EncryptedMessage {
	return domain.EncryptedMessage{
		SenderID:       from,
		RecipientID:    to,
		ConversationID: domain.NewConversationID(from, to),
		Encrypted:      domain.EncryptedPayload{Ciphertext: "ct", IV: "iv", Version: 1},
		MessageNonce:   nonce,
	}
}

func TestHTTP_DirectoryRoundTrip(t *testing.T) {
	srv, _ := newServer(t, relay.NewMemory())
	c := relay.NewHTTP(srv.URL)
	ctx := context.Background()

	_, found, err := c.GetPublicKeyRecord(ctx, "alice")
	require.NoError(t, err)
	require.False(t, found)

	rec := domain.PublicKeyRecord{UserID: "alice", PublicKey: "pk", DisplayName: "Alice", CreatedAt: 1}
	require.NoError(t, c.PutPublicKeyRecord(ctx, rec))

	got, found, err := c.GetPublicKeyRecord(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, rec, got)
}

func TestHTTP_QueueFetchAck(t *testing.T) {
	srv, metrics := newServer(t, relay.NewMemory())
	c := relay.NewHTTP(srv.URL)
	ctx := context.Background()

	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, c.PostMessage(ctx, message("alice", "bob", n)))
	}
	require.Equal(t, float64(3), testutil.ToFloat64(metrics.RelayQueuedMessages))

	msgs, err := c.FetchMessages(ctx, "bob", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "a", msgs[0].MessageNonce)

	require.NoError(t, c.AckMessages(ctx, "bob", 2))
	msgs, err = c.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "c", msgs[0].MessageNonce)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.RelayQueuedMessages))

	empty, err := c.FetchMessages(ctx, "carol", 0)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestServer_RejectsMismatchedRecord(t *testing.T) {
	srv, _ := newServer(t, relay.NewMemory())

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/users/alice",
		strings.NewReader(`{"userId":"mallory","publicKey":"pk"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/msg/bob", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	srv, _ := newServer(t, relay.NewMemory())
	c := relay.NewHTTP(srv.URL)
	require.NoError(t, c.PostMessage(context.Background(), message("alice", "bob", "x")))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(body), `firechat_relay_requests_total{code="202",route="post_msg"} 1`)
}

func TestHTTP_ContextCancelled(t *testing.T) {
	srv, _ := newServer(t, relay.NewMemory())
	c := relay.NewHTTP(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := c.GetPublicKeyRecord(ctx, "alice")
	require.Error(t, err)
}

func TestBolt_PersistsQueuesAndUsers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.db")
	ctx := context.Background()

	b, err := relay.OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, b.PutPublicKeyRecord(ctx, domain.PublicKeyRecord{UserID: "bob", PublicKey: "pk"}))
	for _, n := range []string{"1", "2", "3"} {
		require.NoError(t, b.PostMessage(ctx, message("alice", "bob", n)))
	}
	require.NoError(t, b.AckMessages(ctx, "bob", 1))
	require.NoError(t, b.Close())

	b, err = relay.OpenBolt(path)
	require.NoError(t, err)
	defer b.Close()

	rec, found, err := b.GetPublicKeyRecord(ctx, "bob")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "pk", rec.PublicKey)

	msgs, err := b.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "2", msgs[0].MessageNonce)

	n, err := b.Queued(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, b.AckMessages(ctx, "bob", 10))
	msgs, err = b.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Empty(t, msgs)
}
