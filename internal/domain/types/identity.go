package types

// IdentityRecord is the exported identity key pair kept in the local key
// store. PrivateKey never leaves the device.
type IdentityRecord struct {
	PublicKey  string `json:"publicKey"`  // base64 PKIX DER, P-256
	PrivateKey string `json:"privateKey"` // base64 PKCS#8 DER, P-256
	CreatedAt  int64  `json:"createdAt"`
}

// PublicKeyRecord is the directory entry published for each user.
type PublicKeyRecord struct {
	UserID      UserID `json:"userId"`
	PublicKey   string `json:"publicKey"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}
