package server

import (
	"net/http"
	"slices"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteIndex, s.IndexHandler())

	base := s.config.GetIssuerBasePath()
	protected := s.config.GetProtectedPath()

	// Protected resource metadata, at the RFC 9728 path-inserted location and the root alias
	s.apiRoute(http.MethodGet, RouteWellKnownProtectedResource+protected, s.ProtectedResourceMetadata())
	if protected != "" && protected != "/" {
		s.apiRoute(http.MethodGet, RouteWellKnownProtectedResource, s.ProtectedResourceMetadata())
	}

	// Authorization server metadata. With the issuer at the root the three
	// locations collapse into two.
	var metadataPaths []string
	for _, p := range []string{
		base + RouteWellKnownAuthorizationServer,
		base + RouteWellKnownOpenIDConfig,
		RouteWellKnownAuthorizationServer + base,
	} {
		if !slices.Contains(metadataPaths, p) {
			metadataPaths = append(metadataPaths, p)
		}
	}
	for _, p := range metadataPaths {
		s.apiRoute(http.MethodGet, p, s.AuthorizationServerMetadata())
	}

	// OAuth2 API routes
	s.apiRoute(http.MethodPost, base+RouteOAuth2Register, s.Register())
	s.apiRoute(http.MethodGet, base+RouteOAuth2Authorize, s.Authorize())
	s.apiRoute(http.MethodGet, base+RouteOAuth2Interaction, s.Interaction())
	s.apiRoute(http.MethodPost, base+RouteOAuth2Token, s.Token())
	s.apiRoute(http.MethodGet, base+RouteOAuth2JWKS, s.JWKS())

	// Gated proxy, every method on the exact path and its subtree
	gated := ChainMiddleware(s.ProxyHandler(), s.GatedMiddleware()...)
	s.RegisterRouteHandler(protected, gated)
	s.RegisterRouteHandler(protected+"/", gated)
}

// apiRoute registers handler for method and answers CORS preflight on the same path.
func (s *Server) apiRoute(method, path string, handler http.HandlerFunc) {
	s.RegisterRouteHandler(method+" "+path, ChainMiddleware(handler, s.APIMiddleware()...))
	s.RegisterRouteHandler(http.MethodOptions+" "+path, ChainMiddleware(preflightHandler, s.APIMiddleware()...))
}

// preflightHandler is reached only when CorsMiddleware did not answer.
func preflightHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
