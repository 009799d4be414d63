package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bryanwahyu/pullup-coach/internal/domain/users"
)

type contextKey string

const userKey contextKey = "user"

// TokenParser verifies an access token and returns its user id.
type TokenParser interface {
	Parse(token string) (int64, error)
}

// UserLoader loads the user behind a token.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
}

// JWTAuth validates the Bearer token and puts the user into the request context.
func JWTAuth(tokens TokenParser, loader UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}

			uid, err := tokens.Parse(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			// user yang sudah dihapus tidak boleh lolos
			u, err := loader.GetByID(r.Context(), uid)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "user no longer exists")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireAdmin must run after JWTAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !u.IsAdmin() {
			writeError(w, http.StatusForbidden, users.ErrAdminRequired.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, u *users.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext extracts the authenticated user.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	u, ok := ctx.Value(userKey).(*users.User)
	return u, ok && u != nil
}

// writeError writes the same envelope the API handlers use.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"code": status, "message": msg, "data": nil})
}
