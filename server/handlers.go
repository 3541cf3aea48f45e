package server

import (
	"io"
	"net/http"

	"github.com/jrsteele09/mcp-oauth-gateway/proxy"
	"github.com/rs/zerolog/log"
)

// IndexHandler answers liveness checks.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "OK")
	}
}

// ProxyHandler relays a request the gate admitted to the upstream.
func (s *Server) ProxyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := proxy.ClaimsFromContext(r.Context()); ok {
			log.Debug().
				Str("sub", claims.Subject).
				Str("client_id", claims.ClientID).
				Str("path", r.URL.Path).
				Msg("forwarding verified request")
		}
		s.forwarder.ServeHTTP(w, r)
	}
}
