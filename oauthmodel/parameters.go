package oauthmodel

import (
	"net/url"
	"strings"
)

// AuthorizationParameters holds parameters for the OAuth2 authorization request.
// These are received as query parameters at the {base}/authorize endpoint and
// are stored with the pending interaction until a code is issued.
type AuthorizationParameters struct {
	// ClientID identifies the application requesting authorization.
	// Required: Yes
	// Validated against: clients.Client.ID in the client store
	ClientID string `json:"client_id"`

	// ResponseType specifies what the authorization endpoint should return.
	// Required: Yes
	// Example: "code" (the only supported value)
	ResponseType ResponseType `json:"response_type"`

	// RedirectURI is where the authorization response will be sent.
	// Required: Yes, unless the client registered exactly one redirect URI
	// Validated against: clients.Client.RedirectURIs, exact string match
	// Security: Must exactly match a registered URI to prevent open redirects
	RedirectURI string `json:"redirect_uri"`

	// ResponseMode controls how the authorization response is returned.
	// Required: No (defaults to "query", the only supported value)
	ResponseMode ResponseModeType `json:"response_mode,omitempty"`

	// Scope specifies the permissions being requested.
	// Required: No
	// Example: "openid profile email"
	Scope string `json:"scope,omitempty"`

	// State is an opaque value used by the client to maintain state between request and callback.
	// Required: Recommended (CSRF protection)
	// Echoed back unchanged on the redirect.
	State string `json:"state,omitempty"`

	// CodeChallenge is the PKCE challenge derived from code_verifier.
	// Required: Yes
	// Example: BASE64URL(SHA256(code_verifier))
	// Length: 43 characters when using S256
	CodeChallenge string `json:"code_challenge"`

	// CodeChallengeMethod specifies how code_challenge was derived.
	// Required: Yes
	// Example: "S256" ("plain" is rejected)
	CodeChallengeMethod CodeMethodType `json:"code_challenge_method"`

	// Resource is the RFC 8707 resource indicator naming the protected resource.
	// Required: No
	// Example: "https://gateway.example.com/mcp"
	// Used for: the aud claim of the issued access token
	Resource string `json:"resource,omitempty"`
}

// ParseAuthorizationParameters reads an authorization request from a query string.
func ParseAuthorizationParameters(q url.Values) *AuthorizationParameters {
	return &AuthorizationParameters{
		ClientID:            q.Get("client_id"),
		ResponseType:        ResponseType(q.Get("response_type")),
		RedirectURI:         q.Get("redirect_uri"),
		ResponseMode:        ResponseModeType(q.Get("response_mode")),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: CodeMethodType(q.Get("code_challenge_method")),
		Resource:            q.Get("resource"),
	}
}

// Scopes splits the space separated scope parameter.
func (p *AuthorizationParameters) Scopes() []string {
	return SplitScopes(p.Scope)
}

// ValidateParameters checks the request on its own, without reference to a
// registered client.
func (p *AuthorizationParameters) ValidateParameters() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return ErrMissingClientID
	}

	// Check that the response type is valid
	if p.ResponseType != CodeResponseType {
		return ErrInvalidResponseType
	}

	// Check that the response mode is valid
	if p.ResponseMode != "" && p.ResponseMode != QueryResponseMode {
		return ErrInvalidResponseMode
	}

	// PKCE is mandatory and only S256 is accepted
	if strings.TrimSpace(p.CodeChallenge) == "" {
		return ErrMissingCodeChallenge
	}
	if p.CodeChallengeMethod != CodeMethodTypeS256 {
		return ErrInvalidCodeChallengeMethod
	}
	if !validPKCEValue(p.CodeChallenge) {
		return ErrInvalidCodeChallenge
	}

	if !validScope(p.Scope) {
		return ErrInvalidScope
	}
	return nil
}

// SplitScopes splits a space separated scope string, dropping empty entries.
func SplitScopes(scope string) []string {
	return strings.Fields(scope)
}

// validPKCEValue checks the RFC 7636 shape of a challenge or verifier:
// 43 to 128 characters from the unreserved set.
func validPKCEValue(v string) bool {
	if len(v) < 43 || len(v) > 128 {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-', c == '.', c == '_', c == '~':
		default:
			return false
		}
	}
	return true
}

// ValidCodeVerifier reports whether v is a well-formed PKCE code verifier.
func ValidCodeVerifier(v string) bool {
	return validPKCEValue(v)
}

func validScope(scope string) bool {
	return !strings.ContainsAny(scope, "\n\r\t\"\\")
}
