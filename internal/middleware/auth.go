package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"ortho-assist/internal/auth"
	"ortho-assist/internal/models"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDFromContext returns the authenticated user id, or "" when the request
// carries no identity
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// WithUserID returns a copy of ctx carrying the given identity
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequireAuth rejects requests without a valid bearer token before the
// wrapped handler runs, so the request body is never read
func RequireAuth(tokens auth.TokenService, message string, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			userID, err := tokens.ValidateToken(token)
			if err != nil {
				logger.Printf("Rejected token from %s: %v", r.RemoteAddr, err)
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.APIError{
		Error:     message,
		Timestamp: models.Now(),
	})
}
