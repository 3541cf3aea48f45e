package server

import (
	"net/http"

	"github.com/jrsteele09/mcp-oauth-gateway/discovery"
	"github.com/jrsteele09/mcp-oauth-gateway/internal/config"
	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
	"github.com/rs/zerolog/log"
)

// ProtectedResourceMetadata serves the RFC 9728 document. It needs a
// configured issuer and answers 500 without one.
func (s *Server) ProtectedResourceMetadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metadata, err := discovery.NewProtectedResourceMetadata(discovery.ResourceSettings{
			IssuerURL:       s.config.GetIssuerURL(),
			ProtectedPath:   s.config.GetProtectedPath(),
			ResourceName:    s.config.GetResourceName(),
			ScopesSupported: s.config.GetScopesSupported(),
		})
		if err != nil {
			log.Error().Err(err).Msg("protected resource metadata unavailable")
			writeJSONError(w, gwerrors.CodeServerError, "ISSUER_URL is not configured", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, metadata)
	}
}

// AuthorizationServerMetadata serves the RFC 8414 document.
func (s *Server) AuthorizationServerMetadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metadata := discovery.NewAuthorizationServerMetadata(s.issuer(r), s.config.GetScopesSupported())
		writeJSON(w, http.StatusOK, metadata)
	}
}

// JWKS returns the JSON Web Key Set used to validate tokens
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		writeJSON(w, http.StatusOK, s.auth.GetJWKS())
	}
}

// issuer is ISSUER_URL, or the request's own origin plus the base path.
func (s *Server) issuer(r *http.Request) string {
	return discovery.IssuerFromRequest(s.config.GetIssuerURL(), s.config.GetIssuerBasePath(), r)
}

func resourceURL(cfg config.Config) (string, error) {
	return discovery.ResourceURL(cfg.GetIssuerURL(), cfg.GetProtectedPath())
}
