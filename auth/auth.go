// Package auth verifies the bearer tokens gating the file API.
//
// Tokens are HMAC-signed JWTs. Verification distinguishes a missing or
// unusable token (ErrUnauthenticated, 401 at the HTTP layer) from a token
// that fails validation (ErrForbidden, 403), matching how the API has always
// answered.
package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avelts/filecrate"
)

// Claims are the custom claims carried by an API token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against a shared HMAC secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given signing secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("new verifier: secret cannot be empty")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify parses and validates a bearer token and returns the principal id.
// It returns filecrate.ErrUnauthenticated when no token is presented and
// filecrate.ErrForbidden when the token is malformed, mis-signed, or expired.
func (v *Verifier) Verify(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("verify token: token is missing: %w", filecrate.ErrUnauthenticated)
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("verify token: %w: %w", filecrate.ErrForbidden, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("verify token: invalid claims: %w", filecrate.ErrForbidden)
	}

	principal := claims.UserID
	if principal == "" {
		principal = claims.Subject
	}
	if principal == "" {
		return "", fmt.Errorf("verify token: no principal in claims: %w", filecrate.ErrForbidden)
	}

	return principal, nil
}

// FromAuthorizationHeader extracts the bearer token from an Authorization
// header value. An empty result means no token was presented.
func FromAuthorizationHeader(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
