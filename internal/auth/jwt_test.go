// internal/auth/jwt_test.go
package auth

import (
	"testing"
	"time"

	"smartmoney/internal/config"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService(config.Config{JWTSecret: "secret", JWTExpiresIn: time.Hour})

	token, err := ts.GenerateToken(7)
	if err != nil {
		t.Fatal(err)
	}
	userID, err := ts.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if userID != 7 {
		t.Fatalf("user_id=%d want=7", userID)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService(config.Config{JWTSecret: "secret-a", JWTExpiresIn: time.Hour})
	verifier := NewTokenService(config.Config{JWTSecret: "secret-b", JWTExpiresIn: time.Hour})

	token, err := issuer.GenerateToken(7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("want error for wrong secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	ts := NewTokenService(config.Config{JWTSecret: "secret", JWTExpiresIn: -time.Minute})

	token, err := ts.GenerateToken(7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ts.ParseToken(token); err == nil {
		t.Fatal("want error for expired token")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	ts := NewTokenService(config.Config{JWTSecret: "secret", JWTExpiresIn: time.Hour})
	if _, err := ts.ParseToken("not-a-token"); err == nil {
		t.Fatal("want error for malformed token")
	}
}
