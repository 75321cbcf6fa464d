package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// handleBytes is the entropy of a pending-redirect handle (256 bits).
const handleBytes = 32

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int64) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// NewHandle returns an unguessable URL-safe identifier, suitable as an
// OAuth state parameter.
func NewHandle() (string, error) {
	buf, err := CryptoRandomBytes(handleBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SHA256Hex returns the SHA-256 hash of s as a lowercase hex string.
// Intended for high-entropy values such as handles, so that they can be
// logged without being replayable.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
