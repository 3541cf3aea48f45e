package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/elnormous/contenttype"
	"github.com/jrsteele09/mcp-oauth-gateway/clients"
	"github.com/jrsteele09/mcp-oauth-gateway/discovery"
	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
	"github.com/jrsteele09/mcp-oauth-gateway/oauthmodel"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	maxRegistrationBody = 64 * 1024
	maxTokenBody        = 16 * 1024
)

var (
	jsonMediaType = contenttype.NewMediaType("application/json")
	formMediaType = contenttype.NewMediaType("application/x-www-form-urlencoded")
)

// Register handles RFC 7591 dynamic client registration.
func (s *Server) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctype, err := contenttype.GetMediaType(r)
		if err != nil || !ctype.Matches(jsonMediaType) {
			writeJSONError(w, gwerrors.CodeInvalidClientMetadata, "content-type must be application/json", http.StatusBadRequest)
			return
		}

		var req clients.RegistrationRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRegistrationBody)).Decode(&req); err != nil {
			writeJSONError(w, gwerrors.CodeInvalidClientMetadata, "request body is not valid JSON", http.StatusBadRequest)
			return
		}

		client, err := s.auth.RegisterClient(r.Context(), &req)
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		log.Info().Str("client_id", client.ID).Str("client_name", client.Name).Msg("client registered")
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusCreated, client)
	}
}

// Authorize begins the authorization flow. Errors are answered directly and
// never redirected, since the redirect URI may be the thing that failed.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := oauthmodel.ParseAuthorizationParameters(r.URL.Query())

		it, err := s.auth.Authorize(r.Context(), params, loginSessionID(r))
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		http.Redirect(w, r, s.interactionURL(r, it.UID), http.StatusFound)
	}
}

// Interaction resolves a pending login or consent prompt through the
// decider and continues the flow.
func (s *Server) Interaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		uid := r.PathValue("uid")

		it, err := s.auth.Interaction(ctx, uid)
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		decision, err := s.decider.Decide(ctx, it.ToPrompt())
		if err != nil {
			if abandonErr := s.auth.AbandonInteraction(ctx, uid); abandonErr != nil {
				log.Warn().Err(abandonErr).Str("uid", uid).Msg("failed to abandon interaction")
			}
			writeOAuthError(w, fmt.Errorf("%w: %w", gwerrors.ErrInteraction, err))
			return
		}

		result, err := s.auth.CompleteInteraction(ctx, uid, it.Prompt, decision)
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		if result.Session != nil {
			s.SetLoginSessionCookie(w, result.Session, r)
		}
		if result.Next != nil {
			http.Redirect(w, r, s.interactionURL(r, result.Next.UID), http.StatusFound)
			return
		}
		http.Redirect(w, r, result.RedirectURI, http.StatusFound)
	}
}

// Token exchanges an authorization code for an access token.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctype, err := contenttype.GetMediaType(r)
		if err != nil || !ctype.Matches(formMediaType) {
			writeJSONError(w, gwerrors.CodeInvalidRequest, "content-type must be application/x-www-form-urlencoded", http.StatusBadRequest)
			return
		}

		// Parse token request from form data
		r.Body = http.MaxBytesReader(w, r.Body, maxTokenBody)
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, gwerrors.CodeInvalidRequest, "Failed to parse form data", http.StatusBadRequest)
			return
		}

		tokenReq := oauthmodel.ParseTokenRequest(r.PostForm)
		tokenReq.Issuer = s.issuer(r)

		tokenResponse, err := s.auth.Token(r.Context(), tokenReq)
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, http.StatusOK, tokenResponse)
	}
}

func (s *Server) interactionURL(r *http.Request, uid string) string {
	return s.issuer(r) + discovery.PathInteraction + "/" + url.PathEscape(uid)
}

// writeOAuthError maps err onto its OAuth error code and HTTP status.
// Client errors are described by their cause alone. Internal failures are
// logged and not described to the client.
func writeOAuthError(w http.ResponseWriter, err error) {
	class := gwerrors.Classify(err)
	description := gwerrors.Describe(err)
	if class.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		description = "internal error"
	}
	writeJSONError(w, class.Code, description, class.Status)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
