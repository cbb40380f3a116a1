// internal/api/auth.go
//
// Bearer-credential check, consumed as an opaque collaborator.
//
// Context
// -------
// Loft's editor API sits behind the platform's identity service.  This
// core does not implement authentication; it consumes a single capability
// —"whose token is this?"—behind the Authorizer interface, so the real
// verifier (or a static token in dev) can be injected at boot.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned by Authorizers for unusable credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Authorizer verifies a bearer credential and returns the caller's user
// id.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (userID string, err error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, token string) (string, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// StaticAuthorizer accepts one fixed token; the dev-mode default.
func StaticAuthorizer(token, userID string) Authorizer {
	return AuthorizerFunc(func(_ context.Context, got string) (string, error) {
		if token != "" && got == token {
			return userID, nil
		}
		return "", ErrUnauthorized
	})
}

type userKey struct{}

// UserID returns the authenticated user for a request context, or "".
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userKey{}).(string)
	return v
}

// requireAuth rejects requests without a valid bearer token and stores
// the user id on the context for handlers.
func requireAuth(auth Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(raw, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			userID, err := auth.Authorize(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			ctx := context.WithValue(r.Context(), userKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
