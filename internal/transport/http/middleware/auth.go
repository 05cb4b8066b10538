package middleware

import (
	"context"
	"net/http"

	"nutrisnap/internal/httputil"
	"nutrisnap/internal/model"
	"nutrisnap/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// SessionKey is the context key for the active session
	SessionKey contextKey = "session"
)

// RequireSession gates a route on an active session. The session was
// validated (JWT signature and claims) when its token was installed; here
// it only needs to exist. The session rides in the request context.
func RequireSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := store.Current()
			if sess == nil {
				httputil.WriteUnauthorized(w, "No active session")
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext extracts the active session from the request
// context. Returns the session and true if found.
func GetSessionFromContext(ctx context.Context) (*model.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*model.Session)
	return sess, ok
}
