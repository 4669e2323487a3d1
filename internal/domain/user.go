package domain

import "time"

// AccessAuth is the only token scope issued by the system.
const AccessAuth = "auth"

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Tokens       []UserToken
}

// UserToken is one active credential in a user's token set. A token
// authenticates a request only while its row is still present; removing
// it revokes the token even though the signature stays valid.
type UserToken struct {
	Access string
	Token  string
}
