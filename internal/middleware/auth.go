package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/artconnect/artconnect/internal/logging"
)

// Authenticator resolves a bearer access token to an account identifier.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// RequireSession rejects requests without a valid bearer token and stores the
// authenticated user on the request context (see logging.UserIDFromContext).
func RequireSession(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token := BearerToken(r)
			if token == "" {
				unauthorized(w, "Authentication required")
				return
			}
			if authenticator == nil {
				logger.Error("session authenticator unavailable")
				unauthorized(w, "Authentication required")
				return
			}

			userID, err := authenticator.Authenticate(ctx, token)
			if err != nil {
				logger.Warn("bearer authentication failed", "error", err)
				unauthorized(w, "Session expired, please log in again")
				return
			}

			next.ServeHTTP(w, r.WithContext(logging.WithUserID(ctx, userID)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
