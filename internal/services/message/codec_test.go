package message_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/tuongmengleang/firechat/internal/crypto"
	"github.com/tuongmengleang/firechat/internal/domain"
)

func TestCodec_AliceToBob(t *testing.T) {
	_, alice, bob := pair(t)
	ctx := context.Background()

	content := domain.Content{Text: "hi bob", FileURL: "https://x/y.png", FileName: "y.png", FileType: "image/png", FileSize: 12}
	p, nonce, err := alice.codec.Encrypt(ctx, "bob", content)
	require.NoError(t, err)
	require.Equal(t, domain.ProtocolVersion, p.Version)

	iv, err := crypto.UnB64(p.IV)
	require.NoError(t, err)
	require.Len(t, iv, crypto.IVBytes)
	raw, err := crypto.UnB64(nonce)
	require.NoError(t, err)
	require.Len(t, raw, 24)

	got, err := bob.codec.Decrypt(ctx, "alice", p, nonce, false)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestCodec_SenderCanReadOwnMessage(t *testing.T) {
	_, alice, _ := pair(t)
	ctx := context.Background()

	p, nonce, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "note to self"})
	require.NoError(t, err)
	got, err := alice.codec.Decrypt(ctx, "bob", p, nonce, true)
	require.NoError(t, err)
	require.Equal(t, "note to self", got.Text)
}

func TestCodec_FreshIVAndNoncePerMessage(t *testing.T) {
	_, alice, _ := pair(t)
	ctx := context.Background()

	p1, n1, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "same"})
	require.NoError(t, err)
	p2, n2, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "same"})
	require.NoError(t, err)
	require.NotEqual(t, p1.IV, p2.IV)
	require.NotEqual(t, p1.Ciphertext, p2.Ciphertext)
	require.NotEqual(t, n1, n2)
}

func TestCodec_ReplayRejectedUnlessSkipped(t *testing.T) {
	_, alice, bob := pair(t)
	ctx := context.Background()

	p, nonce, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "once"})
	require.NoError(t, err)

	_, err = bob.codec.Decrypt(ctx, "alice", p, nonce, false)
	require.NoError(t, err)
	require.True(t, bob.guard.Contains(nonce))

	_, err = bob.codec.Decrypt(ctx, "alice", p, nonce, false)
	require.ErrorIs(t, err, domain.ErrReplayDetected)

	got, err := bob.codec.Decrypt(ctx, "alice", p, nonce, true)
	require.NoError(t, err)
	require.Equal(t, "once", got.Text)
}

func TestCodec_SkipDoesNotRecordNonce(t *testing.T) {
	_, alice, bob := pair(t)
	ctx := context.Background()

	p, nonce, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "history"})
	require.NoError(t, err)
	_, err = bob.codec.Decrypt(ctx, "alice", p, nonce, true)
	require.NoError(t, err)
	require.False(t, bob.guard.Contains(nonce))
}

func TestCodec_UnsupportedVersionBeforeKeyWork(t *testing.T) {
	_, _, bob := pair(t)
	ctx := context.Background()

	// "ghost" never published a key, so any key work would fail differently.
	_, err := bob.codec.Decrypt(ctx, "ghost", domain.EncryptedPayload{Ciphertext: "", IV: "", Version: 2}, "n", false)
	require.ErrorIs(t, err, domain.ErrUnsupportedVersion)
	require.Equal(t, float64(0), testutil.ToFloat64(bob.metrics.ConversationKeysDerived))
}

func TestCodec_NonceMismatch(t *testing.T) {
	_, alice, bob := pair(t)
	ctx := context.Background()

	p, _, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "x"})
	require.NoError(t, err)
	_, other, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "y"})
	require.NoError(t, err)

	_, err = bob.codec.Decrypt(ctx, "alice", p, other, false)
	require.ErrorIs(t, err, domain.ErrNonceMismatch)
	require.False(t, bob.guard.Contains(other), "a mismatched nonce must not be recorded")
}

func TestCodec_TamperedCiphertext(t *testing.T) {
	_, alice, bob := pair(t)
	ctx := context.Background()

	p, nonce, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "integrity"})
	require.NoError(t, err)
	ct, err := crypto.UnB64(p.Ciphertext)
	require.NoError(t, err)

	for i := range ct {
		mod := append([]byte(nil), ct...)
		mod[i] ^= 0x01
		tampered := p
		tampered.Ciphertext = crypto.B64(mod)
		_, err := bob.codec.Decrypt(ctx, "alice", tampered, nonce, false)
		require.ErrorIs(t, err, domain.ErrIntegrityFailed, "byte %d", i)
	}

	iv, err := crypto.UnB64(p.IV)
	require.NoError(t, err)
	iv[0] ^= 0x80
	badIV := p
	badIV.IV = crypto.B64(iv)
	_, err = bob.codec.Decrypt(ctx, "alice", badIV, nonce, false)
	require.ErrorIs(t, err, domain.ErrIntegrityFailed)
}

func TestCodec_MalformedFields(t *testing.T) {
	_, alice, bob := pair(t)
	ctx := context.Background()

	p, nonce, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "x"})
	require.NoError(t, err)

	bad := p
	bad.Ciphertext = "%%%"
	_, err = bob.codec.Decrypt(ctx, "alice", bad, nonce, false)
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)

	bad = p
	bad.IV = crypto.B64([]byte("short"))
	_, err = bob.codec.Decrypt(ctx, "alice", bad, nonce, false)
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestCodec_WrongConversationFailsIntegrity(t *testing.T) {
	r, alice, _ := pair(t)
	carol := newParty(t, r, "carol", "Carol")
	ctx := context.Background()

	p, nonce, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "for bob only"})
	require.NoError(t, err)
	_, err = carol.codec.Decrypt(ctx, "alice", p, nonce, false)
	require.ErrorIs(t, err, domain.ErrIntegrityFailed)
}

func TestCodec_PeerWithoutKey(t *testing.T) {
	_, alice, _ := pair(t)
	_, _, err := alice.codec.Encrypt(context.Background(), "ghost", domain.Content{Text: "?"})
	require.ErrorIs(t, err, domain.ErrPublicKeyNotFound)
}

func TestCodec_KeyCachedAcrossMessages(t *testing.T) {
	_, alice, _ := pair(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := alice.codec.Encrypt(ctx, "bob", domain.Content{Text: "x"})
		require.NoError(t, err)
	}
	require.Equal(t, float64(1), testutil.ToFloat64(alice.metrics.ConversationKeysDerived))
	require.Equal(t, float64(2), testutil.ToFloat64(alice.metrics.ConversationKeyCacheHits))
}

func TestPrepareOpen_RecordRoundTrip(t *testing.T) {
	_, alice, bob := pair(t)
	ctx := context.Background()

	rec, err := alice.codec.Prepare(ctx, "bob", domain.Content{Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, domain.UserID("alice"), rec.SenderID)
	require.Equal(t, domain.UserID("bob"), rec.RecipientID)
	require.Equal(t, "Alice", rec.SenderUsername)
	require.Equal(t, domain.ConversationID("alice_bob"), rec.ConversationID)
	require.NotZero(t, rec.CreatedAt)

	dm := bob.codec.Open(ctx, rec, false)
	require.False(t, dm.DecryptionFailed)
	require.Equal(t, "hello", dm.Content.Text)
	require.Equal(t, "Alice", dm.SenderUsername)

	replayed := bob.codec.Open(ctx, rec, false)
	require.True(t, replayed.DecryptionFailed)
	require.Equal(t, "replay_detected", replayed.FailureReason)
	require.Empty(t, replayed.Content.Text)
	require.Equal(t, float64(1), testutil.ToFloat64(bob.metrics.DecryptFailuresTotal.WithLabelValues("replay_detected")))
}

func TestOpen_UnknownSenderMarker(t *testing.T) {
	_, _, bob := pair(t)
	dm := bob.codec.Open(context.Background(), domain.EncryptedMessage{
		SenderID:       "ghost",
		RecipientID:    "bob",
		ConversationID: domain.NewConversationID("ghost", "bob"),
		Encrypted:      domain.EncryptedPayload{Ciphertext: "AA==", IV: "AA==", Version: 1},
		MessageNonce:   "n",
	}, false)
	require.True(t, dm.DecryptionFailed)
	require.Equal(t, "public_key_not_found", dm.FailureReason)
}

func TestOpen_RejectsMismatchedConversationID(t *testing.T) {
	_, alice, bob := pair(t)
	ctx := context.Background()

	rec, err := alice.codec.Prepare(ctx, "bob", domain.Content{Text: "hello"})
	require.NoError(t, err)
	rec.ConversationID = "bob_carol"

	dm := bob.codec.Open(ctx, rec, false)
	require.True(t, dm.DecryptionFailed)
	require.Equal(t, "decryption_failed", dm.FailureReason)
	require.False(t, bob.guard.Contains(rec.MessageNonce))
}
