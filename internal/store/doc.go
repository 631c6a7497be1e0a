// Package store provides on-device persistence for the firechat client.
//
// It contains concrete implementations of the domain storage interfaces.
// All methods are concurrency-safe via internal locking or bolt
// transactions. Files live under the configured home directory.
//
// The package includes stores for:
//   - Identity key pairs, passphrase sealed per user id (KeyFileStore)
//   - The anonymous account of this device (AccountFileStore)
//   - Validated encrypted message history (HistoryBoltStore)
//
// Key files are sealed with ChaCha20-Poly1305 under a key derived from the
// passphrase with Argon2id, or scrypt when configured (KDF). Each file
// records its KDF.
package store
