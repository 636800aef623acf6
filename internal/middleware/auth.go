package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ersinakyuz/todoapp-backend/internal/auth"
)

// TokenValidator validates a signed session token.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// SessionResolver maps a principal session id to its username.
type SessionResolver interface {
	Get(ctx context.Context, sessionID string) (string, error)
}

// RequireAuth resolves the request identity from, in order: a Bearer
// Authorization header, the token cookie, or the principal session
// cookie. Unresolvable requests are rejected with 401.
func RequireAuth(tokens TokenValidator, sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := resolve(r, tokens, sessions); ok {
				next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}`))
		})
	}
}

func resolve(r *http.Request, tokens TokenValidator, sessions SessionResolver) (auth.Identity, bool) {
	if tokenStr := bearerToken(r); tokenStr != "" {
		if claims, err := tokens.Validate(tokenStr); err == nil {
			return auth.Identity{UserID: claims.UserID(), Username: claims.Username}, true
		}
		// An explicit but invalid bearer token is not allowed to fall
		// back to the cookie channels.
		return auth.Identity{}, false
	}

	if cookie, err := r.Cookie(auth.TokenCookie); err == nil && cookie.Value != "" {
		if claims, err := tokens.Validate(cookie.Value); err == nil {
			return auth.Identity{UserID: claims.UserID(), Username: claims.Username}, true
		}
	}

	if cookie, err := r.Cookie(auth.SessionCookie); err == nil && cookie.Value != "" {
		if username, err := sessions.Get(r.Context(), cookie.Value); err == nil && username != "" {
			return auth.Identity{Username: username}, true
		}
	}

	return auth.Identity{}, false
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
