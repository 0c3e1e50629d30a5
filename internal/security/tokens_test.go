package security

import (
	"testing"
)

func TestNewSessionToken_UniqueAndHex(t *testing.T) {
	t1, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	t2, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	if t1 == t2 {
		t.Error("two tokens should not collide")
	}
	if len(t1) != tokenBytes*2 {
		t.Errorf("token length = %d, want %d (hex)", len(t1), tokenBytes*2)
	}
}

func TestHashSessionToken_Consistent(t *testing.T) {
	token := "test-session-token-123"
	hash1 := HashSessionToken(token)
	hash2 := HashSessionToken(token)

	if hash1 != hash2 {
		t.Errorf("HashSessionToken not consistent: hash1 = %q, hash2 = %q", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(hash1))
	}
}

func TestHashSessionToken_DifferentTokens(t *testing.T) {
	if HashSessionToken("token-1") == HashSessionToken("token-2") {
		t.Error("HashSessionToken produced same hash for different tokens")
	}
}

func TestSessionTokenHashEqual_CorrectMatch(t *testing.T) {
	token := "test-session-token-456"
	storedHash := HashSessionToken(token)

	if !SessionTokenHashEqual(token, storedHash) {
		t.Error("SessionTokenHashEqual should match correct token")
	}
}

func TestSessionTokenHashEqual_RejectsIncorrect(t *testing.T) {
	storedHash := HashSessionToken("correct-token")

	if SessionTokenHashEqual("wrong-token", storedHash) {
		t.Error("SessionTokenHashEqual should reject incorrect token")
	}
}
