package httpapi

import (
	"context"
	"net/http"
)

type ctxKey int

const userIDKey ctxKey = iota

// RequireUser extracts the authenticated user id propagated by the gateway.
// Authentication itself happens upstream; requests without an identity are
// rejected here.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user identity")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
