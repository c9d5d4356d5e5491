package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// AuthMiddleware verifies the bearer token of API requests and places the
// caller's user ID into the request context
type AuthMiddleware struct {
	secret           []byte
	noAuthentication bool
}

// NewAuthMiddleware creates a new authentication middleware. With
// noAuthentication set, every request runs as the anonymous user (local
// development only).
func NewAuthMiddleware(secret []byte, noAuthentication bool) *AuthMiddleware {
	return &AuthMiddleware{
		secret:           secret,
		noAuthentication: noAuthentication,
	}
}

// Middleware returns the authentication middleware handler
func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.noAuthentication {
			ctx := ContextWithUserID(r.Context(), types.AnonymousUserID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		userID, err := m.verifyRequest(r)
		if err != nil {
			ctxlog.From(r.Context()).Warn("rejected unauthenticated request",
				"path", r.URL.Path,
				"error", err)
			writeUnauthorizedResponse(w, "Authentication required")
			return
		}

		ctx := ContextWithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// verifyRequest validates the HS256 bearer token and extracts the subject
func (m *AuthMiddleware) verifyRequest(r *http.Request) (types.UserID, error) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return "", jwt.ErrTokenMalformed
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}

	userID := types.UserID(subject)
	if !userID.IsValid() {
		return "", jwt.ErrTokenInvalidSubject
	}

	return userID, nil
}

// writeUnauthorizedResponse writes an unauthorized response
func writeUnauthorizedResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    http.StatusText(http.StatusUnauthorized),
			"message": message,
		},
	})
}
