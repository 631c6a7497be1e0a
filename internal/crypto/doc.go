// Package crypto exposes the minimal primitives used by firechat.
//
// Contents
//
//   - ECDH P-256 identity keys: generation, PKIX/PKCS#8 export and import,
//     shared secret (GenerateIdentityKey, ExportPublicKey, ImportPublicKey,
//     ExportPrivateKey, ImportPrivateKey, SharedSecret)
//   - Conversation key derivation, ECDH then HKDF-SHA256 bound to a
//     conversation id (DeriveConversationKey)
//   - AES-256-GCM key handles with random per-message IVs (AEADKey)
//   - Passphrase key-encryption keys, Argon2id and scrypt (DeriveKEK,
//     DeriveKEKScrypt)
//   - Best-effort memory wiping, base64 and short fingerprints
//
// # Notes
//
// Functions are pure over byte slices and key handles; nothing here touches
// storage or the network. Callers should treat returned secrets as
// sensitive and rely on Wipe when practical.
package crypto
