package model

import "errors"

// Session is the authenticated identity produced by the external auth
// capability. Its absence means logged out: every component deriving state
// from a session must clear that state when the session goes away.
type Session struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Token  string `json:"-"`
}

// Session errors
var (
	ErrSessionRequired = errors.New("no active session")
	ErrInvalidToken    = errors.New("invalid session token")
)
