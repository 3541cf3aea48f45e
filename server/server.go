package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/mcp-oauth-gateway/auth"
	"github.com/jrsteele09/mcp-oauth-gateway/interaction"
	"github.com/jrsteele09/mcp-oauth-gateway/internal/config"
	"github.com/jrsteele09/mcp-oauth-gateway/proxy"
	"github.com/jrsteele09/mcp-oauth-gateway/token"
	"github.com/jrsteele09/mcp-oauth-gateway/token/keys"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.AuthorizationService
	decider   interaction.Decider
	gate      *proxy.Gate
	forwarder *proxy.Forwarder
}

// Option customises a Server.
type Option func(*serverOptions)

type serverOptions struct {
	decider interaction.Decider
}

// WithDecider replaces the fixed pseudo-account decider.
func WithDecider(decider interaction.Decider) Option {
	return func(o *serverOptions) {
		o.decider = decider
	}
}

// New wires the authorization server, the bearer gate and the upstream
// forwarder onto one mux.
func New(cfg config.Config, repos auth.Repos, keyRing *keys.KeyRing, options ...Option) (*Server, error) {
	opts := serverOptions{decider: interaction.NewFixedIdentity()}
	for _, opt := range options {
		opt(&opts)
	}

	tokenManager := token.New(keyRing, token.WithAccessTokenExpiry(cfg.GetDefaultAccessTokenExpiry()))

	authService, err := auth.NewAuthorizationService(repos, tokenManager,
		auth.WithTimeouts(cfg.GetAuthCodeTimeout(), cfg.GetInteractionTimeout(), cfg.GetLoginSessionTimeout()),
		auth.WithResourcePath(cfg.GetProtectedPath()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create authorization service")
	}

	forwarder, err := proxy.NewForwarder(cfg.GetUpstreamURL(), cfg.GetUpstreamTimeout())
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create upstream forwarder")
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		auth:      authService,
		decider:   opts.decider,
		gate:      newGate(cfg, keyRing),
		forwarder: forwarder,
	}

	s.initRoutes()
	s.logRoutes()

	log.Info().
		Str("protected_path", cfg.GetProtectedPath()).
		Str("upstream", forwarder.Target()).
		Str("bearer_mode", cfg.GetBearerMode()).
		Bool("verify_tokens", s.gate.Strict()).
		Msg("gateway configured")

	return s, nil
}

func newGate(cfg config.Config, keyRing *keys.KeyRing) *proxy.Gate {
	if cfg.GetBearerMode() != config.BearerModeStrict {
		return proxy.NewGate(nil)
	}
	// Config validation guarantees a configured issuer in strict mode
	audience, _ := resourceURL(cfg)
	return proxy.NewGate(token.NewVerifier(cfg.GetIssuerURL(), audience, keyRing))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "ANY", route
		}
		log.Debug().Str("method", method).Str("path", path).Msg("route")
	}
}
