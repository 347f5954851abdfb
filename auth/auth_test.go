package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelts/filecrate"
	"github.com/avelts/filecrate/auth"
)

const secret = "test-signing-secret"

func signToken(t *testing.T, claims jwt.Claims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestNewVerifier(t *testing.T) {
	t.Run("requires a secret", func(t *testing.T) {
		_, err := auth.NewVerifier("")
		assert.Error(t, err)
	})

	t.Run("creates a verifier", func(t *testing.T) {
		v, err := auth.NewVerifier(secret)
		require.NoError(t, err)
		assert.NotNil(t, v)
	})
}

func TestVerifier_Verify(t *testing.T) {
	v, err := auth.NewVerifier(secret)
	require.NoError(t, err)

	t.Run("valid token yields the user id", func(t *testing.T) {
		token := signToken(t, auth.Claims{
			UserID: "user-1",
			Email:  "user@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, secret)

		principal, err := v.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", principal)
	})

	t.Run("falls back to the subject claim", func(t *testing.T) {
		token := signToken(t, jwt.RegisteredClaims{
			Subject:   "subject-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}, secret)

		principal, err := v.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "subject-1", principal)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := v.Verify("")
		assert.ErrorIs(t, err, filecrate.ErrUnauthenticated)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.Verify("not-a-jwt")
		assert.ErrorIs(t, err, filecrate.ErrForbidden)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := signToken(t, auth.Claims{UserID: "user-1"}, "other-secret")

		_, err := v.Verify(token)
		assert.ErrorIs(t, err, filecrate.ErrForbidden)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, auth.Claims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}, secret)

		_, err := v.Verify(token)
		assert.ErrorIs(t, err, filecrate.ErrForbidden)
	})

	t.Run("no principal in claims", func(t *testing.T) {
		token := signToken(t, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}, secret)

		_, err := v.Verify(token)
		assert.ErrorIs(t, err, filecrate.ErrForbidden)
	})
}

func TestFromAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer token", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case-insensitive scheme", header: "bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "surrounding whitespace", header: "Bearer   abc.def.ghi  ", want: "abc.def.ghi"},
		{name: "empty header", header: "", want: ""},
		{name: "scheme only", header: "Bearer ", want: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.FromAuthorizationHeader(tt.header))
		})
	}
}
