package domain

// User models an account that owns transactions.
//
// Token holds the single active session token; an empty string means the
// user has no session (the column is NULL).
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Token        string `json:"-"`
}
