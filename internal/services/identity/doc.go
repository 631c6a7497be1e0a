// Package identity manages the long-lived identity key pair of the signed-in
// user.
//
// It loads or generates an ECDH P-256 key pair through the domain.KeyStore,
// keeps the directory record in step with it, and hands the private key to
// the conversation key deriver. Keys are never rotated.
package identity
