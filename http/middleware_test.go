package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	filecratehttp "github.com/avelts/filecrate/http"
)

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := filecratehttp.PrincipalFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(principal))
	})

	serve := func(t *testing.T, handler http.Handler, authorization string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid token sets the principal", func(t *testing.T) {
		handler := filecratehttp.AuthMiddleware(authStub{})(next)

		rec := serve(t, handler, "Bearer good-token")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		handler := filecratehttp.AuthMiddleware(authStub{})(next)

		rec := serve(t, handler, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-bearer header", func(t *testing.T) {
		handler := filecratehttp.AuthMiddleware(authStub{})(next)

		rec := serve(t, handler, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejected token", func(t *testing.T) {
		handler := filecratehttp.AuthMiddleware(authStub{})(next)

		rec := serve(t, handler, "Bearer bad-token")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("nil authenticator passes through", func(t *testing.T) {
		passthrough := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := filecratehttp.PrincipalFromContext(r.Context())
			assert.False(t, ok)
			w.WriteHeader(http.StatusOK)
		})
		handler := filecratehttp.AuthMiddleware(nil)(passthrough)

		rec := serve(t, handler, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPrincipalFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	principal, ok := filecratehttp.PrincipalFromContext(req.Context())
	assert.False(t, ok)
	assert.Empty(t, principal)
}
