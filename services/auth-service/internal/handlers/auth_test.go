package handlers

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/nutribook/nutribook/libs/auth"
)

func TestPasswordHashing(t *testing.T) {
	password := "pass123"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestHS256SignerRoundTrip(t *testing.T) {
	signer := NewHS256Signer("test-secret")
	token, err := signer.Sign(auth.Claims{
		Sub:   "user-1",
		Email: "client@example.com",
		Role:  "client",
		Iat:   time.Now().Unix(),
		Exp:   time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Sub != "user-1" || claims.Role != "client" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := NewHS256Signer("other-secret").Verify(token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestRotatingSignerVerifiesOldKeys(t *testing.T) {
	keyA := generateTestKeyPEM(t)
	keyB := generateTestKeyPEM(t)

	keySet, err := ParseRS256KeySet(keyA + keyB)
	if err != nil {
		t.Fatalf("ParseRS256KeySet failed: %v", err)
	}
	if len(keySet) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keySet))
	}

	var kids []string
	for kid := range keySet {
		kids = append(kids, kid)
	}
	signer, err := NewRotatingRS256Signer(keySet, kids[0])
	if err != nil {
		t.Fatalf("NewRotatingRS256Signer failed: %v", err)
	}

	claims := auth.Claims{
		Sub:  "user-2",
		Role: "dietitian",
		Iat:  time.Now().Unix(),
		Exp:  time.Now().Add(time.Hour).Unix(),
	}
	oldToken, err := signer.Sign(claims)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if err := signer.SetActiveKid(kids[1]); err != nil {
		t.Fatalf("SetActiveKid failed: %v", err)
	}
	newToken, err := signer.Sign(claims)
	if err != nil {
		t.Fatalf("Sign after rotation failed: %v", err)
	}

	for _, token := range []string{oldToken, newToken} {
		got, err := signer.Verify(token)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if got.Sub != "user-2" {
			t.Fatalf("unexpected sub %q", got.Sub)
		}
	}

	if got := len(signer.JWKS()); got != 2 {
		t.Fatalf("expected 2 jwks entries, got %d", got)
	}
}

func generateTestKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return string(pem.EncodeToMemory(block))
}
