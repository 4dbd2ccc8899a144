package httpadapter

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
)

// Authenticator issues and validates JWTs for the admin surface. With no
// secret configured the guarded routes are open, mirroring local setups.
type Authenticator struct {
	secret        []byte
	ttl           time.Duration
	adminUsername string
	adminPassword string
}

func NewAuthenticator(secret string, ttl time.Duration, adminUsername, adminPassword string) *Authenticator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Authenticator{
		secret:        []byte(secret),
		ttl:           ttl,
		adminUsername: adminUsername,
		adminPassword: adminPassword,
	}
}

func (a *Authenticator) enabled() bool {
	return len(a.secret) > 0
}

func (a *Authenticator) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if !a.enabled() {
		writeError(w, domain.WrapError(domain.ErrUnauthorized, "login", errors.New("auth is not configured")))
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(a.adminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.adminPassword)) == 1
	if !userOK || !passOK || a.adminPassword == "" {
		writeError(w, domain.WrapError(domain.ErrUnauthorized, "login", errors.New("invalid credentials")))
		return
	}

	expiresAt := time.Now().Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   req.Username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: signed, ExpiresAt: expiresAt.UTC()})
}

func (a *Authenticator) middleware(next http.Handler) http.Handler {
	if !a.enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		const prefix = "Bearer "
		if !strings.HasPrefix(raw, prefix) {
			writeError(w, domain.WrapError(domain.ErrUnauthorized, "authorize", errors.New("missing bearer token")))
			return
		}

		_, err := jwt.ParseWithClaims(
			strings.TrimPrefix(raw, prefix),
			&jwt.RegisteredClaims{},
			func(*jwt.Token) (any, error) { return a.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil {
			writeError(w, domain.WrapError(domain.ErrUnauthorized, "authorize", err))
			return
		}

		next.ServeHTTP(w, r)
	})
}
