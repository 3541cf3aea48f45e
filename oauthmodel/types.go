package oauthmodel

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow, the only flow
	// the gateway supports.
	// Example: {base}/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// ResponseModeType denotes how the authorization response parameters are returned to the client.
type ResponseModeType string

const (
	// QueryResponseMode returns parameters in the URL query string.
	// Example: https://client.example.com/callback?code=ABC123&state=xyz
	QueryResponseMode ResponseModeType = "query"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	// Server validates: SHA256(provided code_verifier) == stored code_challenge
	CodeMethodTypeS256 CodeMethodType = "S256"

	// CodeMethodTypePlain sends the verifier as the challenge. It is recognised
	// only so that it can be rejected.
	CodeMethodTypePlain CodeMethodType = "plain"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for an access token.
	// Token request includes: code, redirect_uri, code_verifier, and optionally client_id.
	AuthorizationCodeGrant GrantType = "authorization_code"
)

// TokenEndpointAuthMethod is how a client authenticates at the token endpoint.
type TokenEndpointAuthMethod string

const (
	// AuthMethodNone marks a public client: no secret, PKCE only.
	AuthMethodNone TokenEndpointAuthMethod = "none"
)

// TokenTypeBearer is the token_type of every issued access token.
const TokenTypeBearer = "Bearer"
