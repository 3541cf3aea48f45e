package clients

import (
	"net/url"
	"slices"
	"strings"

	"github.com/jrsteele09/mcp-oauth-gateway/oauthmodel"
	"github.com/pkg/errors"
)

// Registration limits.
const (
	MaxRedirectURICount = 10
	MaxClientNameLength = 256
)

// Client is a dynamically registered public OAuth client (RFC 7591).
// Clients are immutable once stored.
type Client struct {
	ID                      string                             `json:"client_id"`
	IssuedAt                int64                              `json:"client_id_issued_at,omitempty"`
	Name                    string                             `json:"client_name,omitempty"`
	RedirectURIs            []string                           `json:"redirect_uris"`
	GrantTypes              []oauthmodel.GrantType             `json:"grant_types"`
	ResponseTypes           []oauthmodel.ResponseType          `json:"response_types"`
	TokenEndpointAuthMethod oauthmodel.TokenEndpointAuthMethod `json:"token_endpoint_auth_method"`
	Scope                   string                             `json:"scope,omitempty"`
}

// IsPublic returns true if the client has no secret and relies on PKCE.
func (c *Client) IsPublic() bool {
	return c.TokenEndpointAuthMethod == oauthmodel.AuthMethodNone
}

// HasRedirectURI reports whether uri exactly matches a registered redirect URI.
// No normalisation is applied.
func (c *Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// ResolveRedirectURI returns the redirect URI to use for an authorization
// request. The request must name a registered URI exactly, even when only
// one is registered, since the token request has to repeat it.
func (c *Client) ResolveRedirectURI(requested string) (string, error) {
	if requested == "" {
		return "", oauthmodel.ErrMissingRedirectUri
	}
	if !c.HasRedirectURI(requested) {
		return "", oauthmodel.ErrInvalidRedirectUri
	}
	return requested, nil
}

// RegistrationRequest is the RFC 7591 client metadata sent to {base}/register.
type RegistrationRequest struct {
	RedirectURIs            []string `json:"redirect_uris"`
	ClientName              string   `json:"client_name,omitempty"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
}

// Validate checks the metadata and returns a Client with defaults applied.
// The caller assigns the ID and issue time.
func (r *RegistrationRequest) Validate() (*Client, error) {
	if len(r.RedirectURIs) == 0 {
		return nil, errors.New("redirect_uris is required")
	}
	if len(r.RedirectURIs) > MaxRedirectURICount {
		return nil, errors.Errorf("too many redirect_uris (maximum %d)", MaxRedirectURICount)
	}
	for _, uri := range r.RedirectURIs {
		if err := ValidateRedirectURI(uri); err != nil {
			return nil, err
		}
	}

	if len(r.ClientName) > MaxClientNameLength {
		return nil, errors.Errorf("client_name too long (maximum %d characters)", MaxClientNameLength)
	}

	authMethod := oauthmodel.TokenEndpointAuthMethod(r.TokenEndpointAuthMethod)
	if authMethod == "" {
		authMethod = oauthmodel.AuthMethodNone
	}
	if authMethod != oauthmodel.AuthMethodNone {
		return nil, errors.New("token_endpoint_auth_method must be 'none'")
	}

	grantTypes := []oauthmodel.GrantType{oauthmodel.AuthorizationCodeGrant}
	for _, gt := range r.GrantTypes {
		if oauthmodel.GrantType(gt) != oauthmodel.AuthorizationCodeGrant {
			return nil, errors.Errorf("unsupported grant_type %q", gt)
		}
	}

	responseTypes := []oauthmodel.ResponseType{oauthmodel.CodeResponseType}
	for _, rt := range r.ResponseTypes {
		if oauthmodel.ResponseType(rt) != oauthmodel.CodeResponseType {
			return nil, errors.Errorf("unsupported response_type %q", rt)
		}
	}

	if strings.ContainsAny(r.Scope, "\n\r\t\"\\") {
		return nil, errors.New("scope contains invalid characters")
	}

	return &Client{
		Name:                    r.ClientName,
		RedirectURIs:            slices.Clone(r.RedirectURIs),
		GrantTypes:              grantTypes,
		ResponseTypes:           responseTypes,
		TokenEndpointAuthMethod: authMethod,
		Scope:                   strings.Join(strings.Fields(r.Scope), " "),
	}, nil
}

// ValidateRedirectURI requires an absolute http(s) URI without a fragment.
func ValidateRedirectURI(uri string) error {
	if strings.TrimSpace(uri) != uri || uri == "" {
		return errors.Errorf("redirect_uri %q is malformed", uri)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return errors.Wrapf(err, "redirect_uri %q", uri)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("redirect_uri %q must use http or https", uri)
	}
	if u.Host == "" {
		return errors.Errorf("redirect_uri %q must be absolute", uri)
	}
	if u.Fragment != "" || strings.Contains(uri, "#") {
		return errors.Errorf("redirect_uri %q must not contain a fragment", uri)
	}
	return nil
}
