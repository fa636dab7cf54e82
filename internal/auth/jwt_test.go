package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/contacthub/internal/auth"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	raw, err := m.GenerateToken("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := m.VerifyToken(raw)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-1")
	}
	if claims.Email != "a@x.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "a@x.com")
	}

	got := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if got != time.Hour {
		t.Errorf("token lifetime = %v, want 1h", got)
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	otherSecret := auth.NewManager("another-secret", time.Hour)
	foreign, err := otherSecret.GenerateToken("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	expired := auth.NewManager("test-secret", -time.Minute)
	stale, err := expired.GenerateToken("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: foreign},
		{name: "expired", token: stale},
		{name: "malformed", token: "not-a-token"},
		{name: "empty", token: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.VerifyToken(tc.token)

			if !errors.Is(err, auth.ErrInvalidToken) {
				t.Fatalf("VerifyToken err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
