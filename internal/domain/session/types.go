package session

import "time"

// Config drives session token behavior.
type Config struct {
	Secret string
	TTL    time.Duration
}

// Token is a freshly signed session token.
type Token struct {
	Value     string
	SessionID string
	ExpiresAt time.Time
}

// Claims are the verified contents of a session token.
type Claims struct {
	SessionID string
	ExpiresAt time.Time
}
