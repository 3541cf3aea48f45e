package token

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
	"github.com/jrsteele09/mcp-oauth-gateway/token/keys"
)

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	Subject  string   `json:"sub"`
	Email    string   `json:"email,omitempty"`
	ClientID string   `json:"client_id,omitempty"`
	Scope    string   `json:"scope,omitempty"`
	Audience []string `json:"-"`
}

// Verifier checks access tokens against the gateway's own keys, issuer and
// audience.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

type VerifierOption func(*oidc.Config)

// WithVerifierNowFunc overrides the clock used for expiry checks.
func WithVerifierNowFunc(now func() time.Time) VerifierOption {
	return func(c *oidc.Config) {
		c.Now = now
	}
}

func NewVerifier(issuer, audience string, keySet oidc.KeySet, options ...VerifierOption) *Verifier {
	cfg := &oidc.Config{
		ClientID:             audience,
		SupportedSigningAlgs: []string{keys.RS256},
	}
	for _, opt := range options {
		opt(cfg)
	}
	return &Verifier{verifier: oidc.NewVerifier(issuer, keySet, cfg)}
}

// Verify validates signature, issuer, audience and expiry. Failures wrap
// ErrInvalidToken.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*AccessClaims, error) {
	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gwerrors.ErrInvalidToken, err)
	}

	var claims AccessClaims
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", gwerrors.ErrInvalidToken, err)
	}
	claims.Audience = tok.Audience
	return &claims, nil
}
