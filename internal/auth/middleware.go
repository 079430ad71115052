package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/couponvault/couponvault/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey ContextKey = "user_id"
)

// bearerPrefix must match exactly, including case; anything else counts as
// no credentials at all rather than an error.
const bearerPrefix = "Bearer "

// Middleware handles authentication and role checks for protected routes
type Middleware struct {
	tokenService TokenService
	users        UserStore
}

func NewMiddleware(tokenService TokenService, users UserStore) *Middleware {
	return &Middleware{tokenService: tokenService, users: users}
}

// Authenticate resolves the caller's identity from the Authorization header.
// Absent or malformed headers leave the request anonymous and let it
// through; a well-formed bearer token that fails validation is rejected.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
		if !ok || token == "" {
			// Anonymous caller; role checks further down decide whether
			// that is acceptable
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			if err == ErrExpiredToken {
				httputil.RespondError(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondError(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondError(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous callers. Must run after Authenticate.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			httputil.RespondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers without the admin flag. The flag is looked up
// fresh on every request; an id that no longer exists in the store is
// treated the same as a non-admin, not as a distinct error.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			httputil.RespondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		isAdmin, err := m.users.IsAdmin(r.Context(), userID)
		if err != nil {
			httputil.RespondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}
		if !isAdmin {
			httputil.RespondError(w, "admin required", httputil.CodeForbidden, http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}
