package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/thermoters/jobd/internal/auth/session"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the verified caller attached to the request context.
type Identity struct {
	AccountKey string
	SubjectID  string
	Email      string
}

// SessionAuth validates the session token from the cookie or Authorization
// header and attaches the caller's identity to the context.
func SessionAuth(sessions *session.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ""
			if cookie, err := r.Cookie(session.CookieName); err == nil {
				tokenString = cookie.Value
			}
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				tokenString = strings.TrimPrefix(auth, "Bearer ")
			}
			if tokenString == "" {
				unauthorized(w)
				return
			}

			claims, err := sessions.Verify(tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			ident := Identity{
				AccountKey: claims.AccountKey,
				SubjectID:  claims.Subject,
				Email:      claims.Email,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "Unauthorized"}`))
}

// WithIdentity stores the verified identity in the context.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFrom retrieves the verified identity from the context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}
