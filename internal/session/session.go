// Package session keeps the signed-in user record behind an opaque token
// and broadcasts every change to interested components.
package session

import (
	"strings"
	"time"
)

// Session is the persisted record of a signed-in user.
type Session struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FullName          string    `json:"full_name"`
	PreferredLanguage string    `json:"preferred_language"`
	Timezone          string    `json:"timezone"`
	RememberMe        bool      `json:"remember_me"`
	LoginTime         time.Time `json:"login_time"`
}

// Valid reports whether the record carries the fields every consumer relies on.
func (s *Session) Valid() bool {
	return s != nil && strings.TrimSpace(s.ID) != "" && strings.TrimSpace(s.Email) != ""
}

// AuthChanged is published after every Save, including sign-out.
type AuthChanged struct {
	Token   string
	Session *Session
}

// SignedIn reports whether the event carries a session.
func (e AuthChanged) SignedIn() bool {
	return e.Session != nil
}
