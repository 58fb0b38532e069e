// Package domain contains entity without logic, just meta-data
package domain

const (
	MaxUserIDLen   = 128
	MaxUsernameLen = 64
	MaxReviewIDLen = 128
)

type UserID string

type User struct {
	ID       UserID `json:"userId"`
	Username string `json:"username"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
// Field constraints are checked by the gateway before it gets here.
func NewUser(id UserID, username string) *User {
	return &User{ID: id, Username: username}
}
