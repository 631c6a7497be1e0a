// Package payload defines the canonical plaintext record that is sealed
// inside each encrypted message.
//
// A record carries the message text, an optional attachment reference and
// the 24-byte replay nonce. It is encoded as XDR with a fixed field order,
// so both sides agree on the exact bytes without a schema negotiation.
// Encoding and decoding perform no cryptography.
package payload
