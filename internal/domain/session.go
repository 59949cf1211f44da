package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the single currently-authenticated user reference. It is a
// lookup key into the roster, not an ownership relation: if the referenced
// user cannot be resolved the caller must treat the session as logged out.
type Session struct {
	// UserID references User.ID.
	UserID int64 `json:"userId"`

	// Token authenticates the HTTP surface's session cookie. A new token
	// is issued on every login.
	Token string `json:"token"`

	// LoginAt is when the session was established.
	LoginAt time.Time `json:"loginAt"`
}

// NewSession creates a session for the given user with a fresh token.
func NewSession(userID int64, now time.Time) *Session {
	return &Session{
		UserID:  userID,
		Token:   uuid.NewString(),
		LoginAt: now,
	}
}
