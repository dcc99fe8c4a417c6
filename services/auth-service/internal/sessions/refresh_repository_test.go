package sessions

import (
	"testing"
	"time"
)

func TestRefreshTokenActive(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Minute)

	live := RefreshToken{ExpiresAt: now.Add(time.Hour)}
	if !live.Active(now) {
		t.Fatal("unexpired unrevoked token should be active")
	}

	expired := RefreshToken{ExpiresAt: now.Add(-time.Second)}
	if expired.Active(now) {
		t.Fatal("expired token should not be active")
	}

	dead := RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}
	if dead.Active(now) {
		t.Fatal("revoked token should not be active")
	}
}

func TestHashTokenStable(t *testing.T) {
	a := HashToken("token-a")
	if a != HashToken("token-a") {
		t.Fatal("hash should be deterministic")
	}
	if a == HashToken("token-b") {
		t.Fatal("different tokens should hash differently")
	}
	if len(a) != 64 {
		t.Fatalf("expected sha256 hex length 64, got %d", len(a))
	}
}
