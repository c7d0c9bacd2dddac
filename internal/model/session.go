package model

import "time"

// Session is the bearer token issued by the user service and its expiry.
type Session struct {
	ExpiresAt time.Time `json:"expiresAt"`
	Token     string    `json:"accessToken"`
	Username  string    `json:"username"`
	UserID    int       `json:"userId"`
}

// Valid reports whether the session has a token that has not expired at now.
// A zero ExpiresAt never expires.
func (s Session) Valid(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
