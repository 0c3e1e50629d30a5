package security

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies actor credentials using bcrypt. Callers must not
// log or persist plaintext credentials.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt hash of credential. Returns the hash as a string
// suitable for storage on the actor record.
func (h *Hasher) Hash(credential []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(credential, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies credential against the stored hash. Returns nil if they
// match; returns an error (including bcrypt.ErrMismatchedHashAndPassword) if
// they do not or on invalid hash.
func (h *Hasher) Compare(hash string, credential []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), credential)
}
