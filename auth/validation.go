package auth

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/mcp-oauth-gateway/clients"
	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
	"github.com/jrsteele09/mcp-oauth-gateway/oauthmodel"
)

// Validator provides the request validation rules for the authorize and
// token endpoints.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAuthorizationRequest checks params against the registered client
// and returns the redirect URI the flow will use.
func (v *Validator) ValidateAuthorizationRequest(params *oauthmodel.AuthorizationParameters, client *clients.Client) (string, error) {
	// Validate client exists
	if client == nil {
		return "", invalid(gwerrors.ErrInvalidRequest, fmt.Errorf("client not found"))
	}

	// The redirect URI is checked first so later failures are never sent to
	// an unregistered location
	redirectURI, err := client.ResolveRedirectURI(params.RedirectURI)
	if err != nil {
		return "", invalid(gwerrors.ErrInvalidRequest, err)
	}

	if err := params.ValidateParameters(); err != nil {
		return "", invalid(gwerrors.ErrInvalidRequest, err)
	}

	// Public clients must use PKCE, which ValidateParameters already requires
	if !client.IsPublic() {
		return "", invalid(gwerrors.ErrInvalidClient, fmt.Errorf("client %s is not a public client", client.ID))
	}

	return redirectURI, nil
}

// ValidateTokenRequest checks the shape of a token request before any code
// is consumed.
func (v *Validator) ValidateTokenRequest(req oauthmodel.TokenRequest) error {
	if req.GrantType == "" {
		return invalid(gwerrors.ErrInvalidRequest, fmt.Errorf("grant_type is required"))
	}
	if req.GrantType != oauthmodel.AuthorizationCodeGrant {
		return invalid(gwerrors.ErrUnsupportedGrantType, fmt.Errorf("grant_type %q is not supported", req.GrantType))
	}
	if strings.TrimSpace(req.Code) == "" {
		return invalid(gwerrors.ErrInvalidRequest, fmt.Errorf("code is required"))
	}
	if req.RedirectURI == "" {
		return invalid(gwerrors.ErrInvalidRequest, fmt.Errorf("redirect_uri is required"))
	}
	if req.CodeVerifier == "" {
		return invalid(gwerrors.ErrInvalidRequest, fmt.Errorf("code_verifier is required"))
	}
	return nil
}

// invalid tags cause with an error class from internal/errors.
func invalid(class, cause error) error {
	return fmt.Errorf("%w: %w", class, cause)
}
