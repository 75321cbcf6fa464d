package core

import "time"

// SessionClaims is the payload embedded in an issued session token.
type SessionClaims struct {
	ProfileID  string
	Email      string
	Name       string
	PictureURL string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenCodec mints and validates session tokens.
type TokenCodec interface {
	NewClaims(profileID, email, name, pictureURL string) SessionClaims
	Issue(claims SessionClaims) (string, error)
	Verify(tokenString string) (*SessionClaims, error)
}
