// Package conversation derives one static AES-256-GCM key per pair of users.
//
// The key is ECDH(local private, peer public) expanded with HKDF-SHA256 and
// bound to the conversation id, the two user ids sorted and joined with
// "_". Both sides therefore derive the same key without exchanging
// anything beyond their directory records. Keys are cached per peer for the
// session and concurrent first requests are collapsed with singleflight.
package conversation
