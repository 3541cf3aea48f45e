package oauthmodel

import "net/url"

// TokenRequest holds parameters for the OAuth2 token request.
// This represents the form body sent to the {base}/token endpoint.
type TokenRequest struct {
	// GrantType must be "authorization_code".
	// Required: Yes
	GrantType GrantType

	// ClientID identifies the public client making the request.
	// Required: No, but when supplied it must match the client the code was issued to
	ClientID string

	// Code is the authorization code received from the authorization endpoint.
	// Required: Yes
	// Usage: Exchanged once, then becomes invalid
	Code string

	// RedirectURI must be identical to the redirect_uri used at authorize time.
	// Required: Yes
	RedirectURI string

	// CodeVerifier is the PKCE code verifier that matches the code_challenge.
	// Required: Yes
	// Example: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	// Validation: Server compares BASE64URL(SHA256(code_verifier)) with stored code_challenge
	// Security: Never log this value
	CodeVerifier string

	// Resource is an optional RFC 8707 resource indicator.
	Resource string

	// Issuer is the issuer identifier the request was received under. It is
	// resolved by the HTTP layer and is not read from the form.
	Issuer string
}

// ParseTokenRequest reads a token request from a parsed form body.
func ParseTokenRequest(form url.Values) TokenRequest {
	return TokenRequest{
		GrantType:    GrantType(form.Get("grant_type")),
		ClientID:     form.Get("client_id"),
		Code:         form.Get("code"),
		RedirectURI:  form.Get("redirect_uri"),
		CodeVerifier: form.Get("code_verifier"),
		Resource:     form.Get("resource"),
	}
}
