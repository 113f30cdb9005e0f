package models

import "time"

// CachedCredential is the single-slot offline login cache.
type CachedCredential struct {
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Salt          []byte    `json:"salt"`
	LastValidated time.Time `json:"last_validated"`
	UserID        string    `json:"user_id,omitempty"`
}

// OfflineSession survives a restart while signed in from the cache.
type OfflineSession struct {
	Email     string    `json:"email"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Verification is the outcome of an offline credential check.
type Verification struct {
	Valid   bool
	UserID  string
	Expired bool
}

// SessionMode tells whether the active session can talk to the remote.
type SessionMode string

const (
	SessionNone    SessionMode = ""
	SessionOnline  SessionMode = "online"
	SessionOffline SessionMode = "offline"
)

// Session is the current authentication state.
type Session struct {
	Email  string
	UserID string
	Mode   SessionMode
}

// Genuine reports a real remote session, as opposed to one restored from
// the credential cache.
func (s Session) Genuine() bool {
	return s.Mode == SessionOnline
}

// Active reports whether anybody is signed in.
func (s Session) Active() bool {
	return s.Mode != SessionNone
}
