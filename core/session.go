package core

import (
	"time"
)

// Session tracks the lifetime of one review session: the window between a
// successful extraction and the reviewer's final submission.
type Session struct {
	// Token is the opaque key handed to the reviewer.
	Token string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSession creates a Session for token that expires after ttl.
func NewSession(token string, ttl time.Duration) Session {
	return NewSessionAt(token, time.Now(), ttl)
}

// NewSessionAt creates a Session starting at now.
func NewSessionAt(token string, now time.Time, ttl time.Duration) Session {
	return Session{
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// ExpiredAt reports whether the session has expired at instant t.
func (s Session) ExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// IsExpired returns true if the session has passed its expiration time.
func (s Session) IsExpired() bool {
	return s.ExpiredAt(time.Now())
}
