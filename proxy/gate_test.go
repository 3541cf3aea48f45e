package proxy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
	"github.com/jrsteele09/mcp-oauth-gateway/proxy"
	"github.com/jrsteele09/mcp-oauth-gateway/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierFunc func(ctx context.Context, raw string) (*token.AccessClaims, error)

func (f verifierFunc) Verify(ctx context.Context, raw string) (*token.AccessClaims, error) {
	return f(ctx, raw)
}

func okHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  BEARER abc  ", "abc", true},
		{"Bearer", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearerabc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			tok, ok := proxy.BearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, tok)
		})
	}
}

func TestGate_Relaxed(t *testing.T) {
	gate := proxy.NewGate(nil)
	require.False(t, gate.Strict())

	t.Run("missing header", func(t *testing.T) {
		called := false
		rec := httptest.NewRecorder()
		gate.Middleware(okHandler(t, &called)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))

		require.False(t, called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, `Bearer realm="mcp"`, rec.Header().Get("WWW-Authenticate"))
		require.Empty(t, rec.Body.Bytes())
	})

	t.Run("wrong scheme", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		gate.Middleware(okHandler(t, &called)).ServeHTTP(rec, req)

		require.False(t, called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("any bearer token is admitted", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		gate.Middleware(okHandler(t, &called)).ServeHTTP(rec, req)

		require.True(t, called)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGate_Strict(t *testing.T) {
	gate := proxy.NewGate(verifierFunc(func(_ context.Context, raw string) (*token.AccessClaims, error) {
		if raw != "good" {
			return nil, gwerrors.ErrInvalidToken
		}
		return &token.AccessClaims{Subject: "chatgpt-user"}, nil
	}))
	require.True(t, gate.Strict())

	t.Run("invalid token", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rec := httptest.NewRecorder()
		gate.Middleware(okHandler(t, &called)).ServeHTTP(rec, req)

		require.False(t, called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, `Bearer realm="mcp", error="invalid_token"`, rec.Header().Get("WWW-Authenticate"))
		require.Empty(t, rec.Body.Bytes())
	})

	t.Run("missing token has no error attribute", func(t *testing.T) {
		called := false
		rec := httptest.NewRecorder()
		gate.Middleware(okHandler(t, &called)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))

		require.Equal(t, `Bearer realm="mcp"`, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("valid token carries claims", func(t *testing.T) {
		var subject string
		req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := proxy.ClaimsFromContext(r.Context())
			require.True(t, ok)
			subject = claims.Subject
		})).ServeHTTP(rec, req)

		require.Equal(t, "chatgpt-user", subject)
	})
}
