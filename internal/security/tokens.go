package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a session token (256 bits).
const tokenBytes = 32

// NewSessionToken returns a new opaque bearer token, hex-encoded. Tokens are
// never stored raw; persist HashSessionToken(token) and compare with
// SessionTokenHashEqual.
func NewSessionToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashSessionToken returns a SHA-256 hash of the token string, hex-encoded.
// Used for storing and looking up session tokens without storing the raw token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionTokenHashEqual performs constant-time comparison of the provided
// token's hash with the stored hash. Returns true only if they match.
func SessionTokenHashEqual(providedToken, storedHash string) bool {
	providedHash := HashSessionToken(providedToken)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}
