package identity

import (
	"errors"
	"testing"
)

func TestOpaqueTokenRoundTrip(t *testing.T) {
	tok, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken: %v", err)
	}
	if len(tok) < 32 {
		t.Fatalf("token too short: %d", len(tok))
	}

	hash := HashToken(tok)
	if hash == tok {
		t.Fatal("hash equals token")
	}
	if !VerifyTokenHash(hash, tok) {
		t.Fatal("valid token rejected")
	}
	if VerifyTokenHash(hash, tok+"x") {
		t.Fatal("tampered token accepted")
	}

	other, _ := NewOpaqueToken()
	if other == tok {
		t.Fatal("tokens not unique")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := VerifyPassword(hash, "correct horse battery"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
	if _, err := HashPassword("short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("short password accepted: %v", err)
	}
}
