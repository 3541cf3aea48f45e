package server

import (
	"net/http"

	"github.com/jrsteele09/mcp-oauth-gateway/auth"
	"github.com/jrsteele09/mcp-oauth-gateway/discovery"
)

const loginSessionCookieName = "mcpgw_session"

// SetLoginSessionCookie binds the browser to a login session so later
// authorization requests go straight to consent.
func (s *Server) SetLoginSessionCookie(w http.ResponseWriter, session *auth.Session, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     loginSessionCookieName,
		Value:    session.ID,
		Path:     s.cookiePath(),
		HttpOnly: true,
		Secure:   discovery.RequestScheme(r) == "https", // Only set Secure flag if using HTTPS
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.auth.SessionTimeout().Seconds()),
	})
}

// loginSessionID returns the session cookie value, or "" when absent.
func loginSessionID(r *http.Request) string {
	cookie, err := r.Cookie(loginSessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Server) cookiePath() string {
	if base := s.config.GetIssuerBasePath(); base != "" {
		return base
	}
	return "/"
}
