package domain

import "errors"

// Error kinds surfaced by the key-management and message-encryption core.
// Callers match them with errors.Is; most are wrapped with context.
var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrKeyGenerationFailed = errors.New("identity key generation failed")
	ErrKeyImportFailed     = errors.New("key import failed")
	ErrKeyDerivationFailed = errors.New("conversation key derivation failed")
	ErrPublicKeyNotFound   = errors.New("peer has not published a public key")
	ErrEncryptionFailed    = errors.New("encryption failed")
	ErrDecryptionFailed    = errors.New("decryption failed")
	ErrIntegrityFailed     = errors.New("message authentication failed")
	ErrNonceMismatch       = errors.New("embedded nonce does not match message nonce")
	ErrReplayDetected      = errors.New("message nonce already seen")
	ErrUnsupportedVersion  = errors.New("unsupported payload version")
)

var failureReasons = []struct {
	err    error
	reason string
}{
	{ErrUnsupportedVersion, "unsupported_version"},
	{ErrIntegrityFailed, "integrity_failed"},
	{ErrNonceMismatch, "nonce_mismatch"},
	{ErrReplayDetected, "replay_detected"},
	{ErrPublicKeyNotFound, "public_key_not_found"},
	{ErrNotAuthenticated, "not_authenticated"},
	{ErrKeyImportFailed, "key_import_failed"},
	{ErrKeyDerivationFailed, "key_derivation_failed"},
	{ErrKeyGenerationFailed, "key_generation_failed"},
	{ErrEncryptionFailed, "encryption_failed"},
	{ErrDecryptionFailed, "decryption_failed"},
}

// FailureReason maps err to a short stable label for placeholders, logs
// and metric labels. Unknown errors map to "error".
func FailureReason(err error) string {
	for _, fr := range failureReasons {
		if errors.Is(err, fr.err) {
			return fr.reason
		}
	}
	return "error"
}
