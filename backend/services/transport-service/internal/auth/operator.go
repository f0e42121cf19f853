// Package auth authenticates the operator allowed to trigger ingestion runs.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidCredentials represents login failure.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Session is a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// OperatorAuthenticator checks the single configured operator account.
type OperatorAuthenticator struct {
	username     string
	passwordHash string
	hasher       Hasher
	tokens       *TokenService
	logger       *zap.Logger
}

// NewOperatorAuthenticator builds the authenticator.
func NewOperatorAuthenticator(username, passwordHash string, hasher Hasher, tokens *TokenService, logger *zap.Logger) *OperatorAuthenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperatorAuthenticator{
		username:     strings.TrimSpace(username),
		passwordHash: passwordHash,
		hasher:       hasher,
		tokens:       tokens,
		logger:       logger.With(zap.String("component", "auth")),
	}
}

// Login authenticates the operator and produces a JWT.
func (a *OperatorAuthenticator) Login(username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		a.logger.Warn("login rejected", zap.String("username", username))
		return Session{}, ErrInvalidCredentials
	}
	if err := a.hasher.Compare(a.passwordHash, password); err != nil {
		a.logger.Warn("login rejected", zap.String("username", username))
		return Session{}, ErrInvalidCredentials
	}

	token, expires, err := a.tokens.GenerateToken(username, RoleOperator)
	if err != nil {
		return Session{}, err
	}

	a.logger.Info("operator logged in", zap.String("username", username))
	return Session{Token: token, ExpiresAt: expires, Username: username, Role: RoleOperator}, nil
}
