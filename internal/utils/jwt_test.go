package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	at, err := NewAccessToken(secret, 42, "alice", "MEMBER", 15)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if at.Token == "" {
		t.Fatal("empty token")
	}
	if !at.Exp.After(time.Now()) {
		t.Fatalf("exp %v not in the future", at.Exp)
	}

	parsed, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		t.Fatal("invalid claims")
	}
	if sub, _ := claims["sub"].(float64); uint64(sub) != 42 {
		t.Fatalf("sub = %v, want 42", claims["sub"])
	}
	if claims["nick"] != "alice" {
		t.Fatalf("nick = %v, want alice", claims["nick"])
	}
	if claims["role"] != "MEMBER" {
		t.Fatalf("role = %v, want MEMBER", claims["role"])
	}
}

func TestAccessTokenWrongSecretRejected(t *testing.T) {
	at, err := NewAccessToken("right-secret", 1, "alice", "MEMBER", 15)
	if err != nil {
		t.Fatal(err)
	}
	_, err = jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err == nil {
		t.Fatal("token verified with the wrong secret")
	}
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw length = %d, want 96", len(rt.Raw))
	}
	h1 := HashRefreshRaw(rt.Raw)
	h2 := HashRefreshRaw(rt.Raw)
	if h1 != h2 {
		t.Fatal("hash not deterministic")
	}
	if len(h1) != 64 {
		t.Fatalf("hash length = %d, want 64", len(h1))
	}
	other, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	if other.Raw == rt.Raw {
		t.Fatal("two refresh tokens collided")
	}
}
