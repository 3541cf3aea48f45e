// Package proxy gates the protected path on a bearer token and forwards
// admitted requests to the single upstream resource.
package proxy

import (
	"context"
	"net/http"
	"strings"

	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
	"github.com/jrsteele09/mcp-oauth-gateway/token"
	"github.com/rs/zerolog/log"
)

// Realm is advertised in every bearer challenge.
const Realm = "mcp"

const bearerPrefix = "bearer "

// TokenVerifier checks a raw access token. token.Verifier satisfies it.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*token.AccessClaims, error)
}

// Gate admits requests that carry a bearer token.
//
// Without a verifier the gate is relaxed: any syntactically present bearer
// token is admitted and its validity is left to the upstream. With a
// verifier the token's signature, issuer, audience and expiry must check out.
type Gate struct {
	verifier TokenVerifier
}

// NewGate returns a relaxed gate when verifier is nil and a strict one otherwise.
func NewGate(verifier TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

// Strict reports whether tokens are verified.
func (g *Gate) Strict() bool {
	return g.verifier != nil
}

type claimsKey struct{}

// ClaimsFromContext returns the verified claims placed on the request by a
// strict gate.
func ClaimsFromContext(ctx context.Context) (*token.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*token.AccessClaims)
	return claims, ok
}

// Check decides whether r may pass. The returned context carries verified
// claims in strict mode. Errors wrap ErrAuthenticationRequired or
// ErrInvalidToken.
func (g *Gate) Check(r *http.Request) (context.Context, error) {
	raw, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, gwerrors.ErrAuthenticationRequired
	}
	if g.verifier == nil {
		return r.Context(), nil
	}

	claims, err := g.verifier.Verify(r.Context(), raw)
	if err != nil {
		return nil, err
	}
	return context.WithValue(r.Context(), claimsKey{}, claims), nil
}

// Middleware rejects unauthenticated requests with a 401 challenge and an
// empty body.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := g.Check(r)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("bearer gate rejected request")
			WriteChallenge(w, gwerrors.Is(err, gwerrors.ErrInvalidToken))
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the credential from an Authorization header value.
// The scheme match is case-insensitive after trimming surrounding space.
func BearerToken(header string) (string, bool) {
	trimmed := strings.TrimSpace(header)
	if !strings.HasPrefix(strings.ToLower(trimmed), bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(bearerPrefix):]), true
}

// WriteChallenge sends 401 with a Bearer challenge and no body.
func WriteChallenge(w http.ResponseWriter, invalidToken bool) {
	challenge := `Bearer realm="` + Realm + `"`
	if invalidToken {
		challenge += `, error="invalid_token"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	w.WriteHeader(http.StatusUnauthorized)
}
