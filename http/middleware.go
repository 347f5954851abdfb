package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/avelts/filecrate"
)

// Authenticator verifies a bearer token and returns the principal id it was
// issued to. The auth package provides the JWT implementation.
type Authenticator interface {
	Verify(token string) (string, error)
}

type contextKey int

const principalKey contextKey = iota

// PrincipalFromContext returns the authenticated principal id set by
// AuthMiddleware.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(principalKey).(string)
	return principal, ok
}

// AuthMiddleware creates middleware that enforces bearer token authentication.
// A missing token yields 401, an invalid or expired one 403. Pass nil for
// auth to disable authentication (public access).
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	if auth == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				HandleError(w, fmt.Errorf("auth: missing authorization header: %w", filecrate.ErrUnauthenticated))
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				HandleError(w, fmt.Errorf("auth: malformed authorization header: %w", filecrate.ErrUnauthenticated))
				return
			}

			principal, err := auth.Verify(token)
			if err != nil {
				HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
