package domain

import "time"

// Session is a signed token minted for an Identity.
type Session struct {
	Token     string
	ID        string // jti
	Identity  Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RevokedSession marks a token as logged out before its natural expiry.
// Rows can be dropped once ExpiresAt has passed since the token would be
// rejected anyway.
type RevokedSession struct {
	JTI       string
	ExpiresAt time.Time
	RevokedAt time.Time
}
