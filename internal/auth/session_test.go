package auth

import (
	"testing"
	"time"
)

func TestSignAndParseSession(t *testing.T) {
	id := Identity{UserID: 42, Username: "alice"}

	token, tokenID, err := SignSession("test-secret", id, time.Hour)
	if err != nil {
		t.Fatalf("sign session: %v", err)
	}
	if tokenID == "" {
		t.Fatalf("expected non-empty token id")
	}

	sess, err := ParseSession("test-secret", token)
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if sess.Identity != id {
		t.Fatalf("unexpected identity: %+v", sess.Identity)
	}
	if sess.TokenID != tokenID {
		t.Fatalf("token id mismatch: %q vs %q", sess.TokenID, tokenID)
	}
	if remaining := time.Until(sess.ExpiresAt); remaining < 59*time.Minute || remaining > time.Hour {
		t.Fatalf("unexpected expiry: %v", sess.ExpiresAt)
	}
}

func TestParseSession_WrongSecret(t *testing.T) {
	token, _, err := SignSession("secret-a", Identity{UserID: 1, Username: "bob"}, time.Hour)
	if err != nil {
		t.Fatalf("sign session: %v", err)
	}
	if _, err := ParseSession("secret-b", token); err != ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestParseSession_Expired(t *testing.T) {
	token, _, err := SignSession("secret", Identity{UserID: 1, Username: "bob"}, -time.Minute)
	if err != nil {
		t.Fatalf("sign session: %v", err)
	}
	if _, err := ParseSession("secret", token); err != ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestParseSession_Garbage(t *testing.T) {
	if _, err := ParseSession("secret", "not-a-token"); err != ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "hunter2" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !CheckPassword(hash, "hunter2") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hash, "hunter3") {
		t.Fatalf("expected wrong password to fail")
	}
}
