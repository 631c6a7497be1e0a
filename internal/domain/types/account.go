package types

// Account is the authenticated user context produced by anonymous sign-in.
type Account struct {
	UserID      UserID `json:"userId"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}
