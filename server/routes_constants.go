package server

import "github.com/jrsteele09/mcp-oauth-gateway/discovery"

// Route path constants
// Authorization server routes are relative to the issuer base path
const (
	RouteIndex = "/{$}"

	// Discovery
	RouteWellKnownProtectedResource   = discovery.WellKnownProtectedResource
	RouteWellKnownAuthorizationServer = discovery.WellKnownAuthorizationServer
	RouteWellKnownOpenIDConfig        = discovery.WellKnownOpenIDConfiguration

	// OAuth2 routes
	RouteOAuth2Register    = discovery.PathRegister
	RouteOAuth2Authorize   = discovery.PathAuthorize
	RouteOAuth2Interaction = discovery.PathInteraction + "/{uid}"
	RouteOAuth2Token       = discovery.PathToken
	RouteOAuth2JWKS        = discovery.PathJWKS
)
