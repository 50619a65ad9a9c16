package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// UserIDHeader carries the caller's identity. Authentication itself is
	// handled at the edge; by the time a request reaches this service the
	// header is trusted.
	UserIDHeader = "X-User-ID"

	// UserIDContextKey is the context key for the caller's user ID
	UserIDContextKey contextKey = "user_id"
)

// WithUserID extracts the caller's user ID from the identity header and adds
// it to the request context. Optional: requests without the header pass
// through unchanged.
func WithUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUserID ensures the request carries a well-formed user ID. Routes
// that operate on a user's cart, orders, or profile sit behind this.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := GetUserID(r.Context())
		if userID == "" {
			respondUnauthorized(w, r)
			return
		}
		if _, err := uuid.Parse(userID); err != nil {
			respondBadRequest(w, r, "malformed user ID")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUserID retrieves the caller's user ID from the request context.
// Returns an empty string when the identity header was absent.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDContextKey).(string); ok {
		return id
	}
	return ""
}
