// Package message encrypts, sends, receives and re-reads chat messages.
//
// Codec seals structured content with the conversation key under a fresh
// IV, embeds a random 24-byte nonce in the plaintext and verifies it, along
// with the replay guard, on the way back. Service moves the resulting
// records through the relay and the local history cache.
package message
