package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newAuthenticator(t *testing.T) (*OperatorAuthenticator, *TokenService) {
	t.Helper()
	hasher, err := NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	hash, err := hasher.Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	tokens := NewTokenService("test-secret", time.Minute)
	return NewOperatorAuthenticator("admin", hash, hasher, tokens, nil), tokens
}

func TestLoginIssuesValidToken(t *testing.T) {
	authenticator, tokens := newAuthenticator(t)

	session, err := authenticator.Login(" admin ", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Role != RoleOperator {
		t.Fatalf("expected operator role, got %q", session.Role)
	}

	claims, err := tokens.ValidateToken(session.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Username != "admin" || claims.Subject != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	authenticator, _ := newAuthenticator(t)

	cases := []struct{ user, pass string }{
		{"admin", "wrong"},
		{"root", "s3cret"},
		{"", "s3cret"},
		{"admin", ""},
	}
	for _, tc := range cases {
		if _, err := authenticator.Login(tc.user, tc.pass); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("login(%q, %q): expected ErrInvalidCredentials, got %v", tc.user, tc.pass, err)
		}
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	issued := NewTokenService("one", time.Minute)
	token, _, err := issued.GenerateToken("admin", RoleOperator)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewTokenService("two", time.Minute).ValidateToken(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestNewBcryptHasherRejectsCost(t *testing.T) {
	if _, err := NewBcryptHasher(bcrypt.MaxCost + 1); err == nil {
		t.Fatalf("expected cost error")
	}
}
