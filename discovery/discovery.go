// Package discovery builds the RFC 9728 protected resource metadata and the
// RFC 8414 authorization server metadata documents.
package discovery

import (
	"net/http"
	"net/url"
	"strings"

	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
	"github.com/jrsteele09/mcp-oauth-gateway/oauthmodel"
	"github.com/pkg/errors"
)

// Endpoint paths relative to the issuer base path.
const (
	PathRegister    = "/register"
	PathAuthorize   = "/authorize"
	PathInteraction = "/interaction"
	PathToken       = "/token"
	PathJWKS        = "/jwks"
)

// Well-known document locations.
const (
	WellKnownProtectedResource   = "/.well-known/oauth-protected-resource"
	WellKnownAuthorizationServer = "/.well-known/oauth-authorization-server"
	WellKnownOpenIDConfiguration = "/.well-known/openid-configuration"
)

// ProtectedResourceMetadata is the RFC 9728 document for the gated resource.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ResourceName           string   `json:"resource_name,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported,omitempty"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
}

// AuthorizationServerMetadata is the RFC 8414 document for the gateway's
// authorization server.
type AuthorizationServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	ResponseModesSupported            []string `json:"response_modes_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
}

// ResourceSettings are the inputs to the protected resource document.
type ResourceSettings struct {
	IssuerURL       string
	ProtectedPath   string
	ResourceName    string
	ScopesSupported []string
}

// NewProtectedResourceMetadata builds the resource document. It requires a
// configured issuer and fails with ErrConfiguration otherwise.
func NewProtectedResourceMetadata(s ResourceSettings) (*ProtectedResourceMetadata, error) {
	issuer := strings.TrimRight(s.IssuerURL, "/")
	if issuer == "" {
		return nil, errors.Wrap(gwerrors.ErrConfiguration, "ISSUER_URL is not configured")
	}
	resource, err := ResourceURL(issuer, s.ProtectedPath)
	if err != nil {
		return nil, errors.Wrap(gwerrors.ErrConfiguration, err.Error())
	}
	return &ProtectedResourceMetadata{
		Resource:               resource,
		AuthorizationServers:   []string{issuer},
		ResourceName:           s.ResourceName,
		BearerMethodsSupported: []string{"header"},
		ScopesSupported:        s.ScopesSupported,
	}, nil
}

// NewAuthorizationServerMetadata builds the authorization server document for issuer.
func NewAuthorizationServerMetadata(issuer string, scopesSupported []string) *AuthorizationServerMetadata {
	issuer = strings.TrimRight(issuer, "/")
	return &AuthorizationServerMetadata{
		Issuer:                            issuer,
		AuthorizationEndpoint:             issuer + PathAuthorize,
		TokenEndpoint:                     issuer + PathToken,
		RegistrationEndpoint:              issuer + PathRegister,
		JWKSURI:                           issuer + PathJWKS,
		ResponseTypesSupported:            []string{string(oauthmodel.CodeResponseType)},
		ResponseModesSupported:            []string{string(oauthmodel.QueryResponseMode)},
		GrantTypesSupported:               []string{string(oauthmodel.AuthorizationCodeGrant)},
		CodeChallengeMethodsSupported:     []string{string(oauthmodel.CodeMethodTypeS256)},
		TokenEndpointAuthMethodsSupported: []string{string(oauthmodel.AuthMethodNone)},
		ScopesSupported:                   scopesSupported,
	}
}

// ResourceURL is the protected resource identifier: the issuer's origin
// joined with the gated path.
func ResourceURL(issuer, protectedPath string) (string, error) {
	u, err := url.Parse(issuer)
	if err != nil {
		return "", errors.Wrapf(err, "parsing issuer %q", issuer)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Errorf("issuer %q is not an absolute URL", issuer)
	}
	return u.Scheme + "://" + u.Host + protectedPath, nil
}

// IssuerFromRequest returns configured when set, otherwise derives the issuer
// from the request's scheme and Host plus basePath.
func IssuerFromRequest(configured, basePath string, r *http.Request) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	return RequestScheme(r) + "://" + r.Host + basePath
}

// RequestScheme honours TLS and the X-Forwarded-Proto header set by a
// terminating proxy.
func RequestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		// Use the first value when proxies chain.
		proto = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
		if proto == "https" || proto == "http" {
			return proto
		}
	}
	return "http"
}
