package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenExpiry(t *testing.T) {
	exp := time.Unix(1900000000, 0)

	withExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	withoutExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	got, ok := AccessTokenExpiry(withExp)
	if !ok || !got.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v (ok=%v)", exp, got, ok)
	}

	for _, token := range []string{"", "opaque", withoutExp} {
		if _, ok := AccessTokenExpiry(token); ok {
			t.Errorf("expected no expiry for %q", token)
		}
	}
}

func TestTokenPreview(t *testing.T) {
	if got := TokenPreview("abcdefghijklmnopqrstuvwxyz"); got != "abcdef…uvwxyz" {
		t.Errorf("unexpected preview %q", got)
	}
	if got := TokenPreview("short"); got != "…" {
		t.Errorf("short tokens must not leak, got %q", got)
	}
	if got := TokenPreview(""); got != "<none>" {
		t.Errorf("unexpected preview for empty token %q", got)
	}
}
