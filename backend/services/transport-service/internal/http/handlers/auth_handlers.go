package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"transporte/backend/services/transport-service/internal/auth"
)

// Authenticator issues operator sessions.
type Authenticator interface {
	Login(username, password string) (auth.Session, error)
}

// NewLoginHandler handles POST /auth/login.
func NewLoginHandler(authenticator Authenticator) http.HandlerFunc {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type response struct {
		Token     string `json:"token"`
		TokenType string `json:"tokenType"`
		ExpiresAt string `json:"expiresAt"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		session, err := authenticator.Login(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to login")
			return
		}

		writeJSON(w, http.StatusOK, response{
			Token:     session.Token,
			TokenType: "Bearer",
			ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		})
	}
}
