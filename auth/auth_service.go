package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
	"github.com/jrsteele09/mcp-oauth-gateway/clients"
	"github.com/jrsteele09/mcp-oauth-gateway/discovery"
	"github.com/jrsteele09/mcp-oauth-gateway/interaction"
	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
	"github.com/jrsteele09/mcp-oauth-gateway/oauthmodel"
	"github.com/jrsteele09/mcp-oauth-gateway/storage"
	"github.com/jrsteele09/mcp-oauth-gateway/token"
	"github.com/pkg/errors"
)

var errInteractionGone = errors.New("interaction expired or not found")

const (
	codeGenerationLength      = 32
	defaultAuthCodeTimeout    = 60 * time.Second
	defaultInteractionTimeout = 10 * time.Minute
	defaultSessionTimeout     = 14 * 24 * time.Hour
	defaultResourcePath       = "/mcp"
)

// Repos holds all repository dependencies for the AuthorizationService
type Repos struct {
	Clients      clients.Repo    // Registered OAuth clients
	Interactions InteractionRepo // Pending login and consent prompts
	Sessions     SessionRepo     // Browser login sessions
	Codes        CodeRepo        // Issued authorization codes
}

// InteractionResult is the outcome of completing an interaction. Exactly one
// of Next and RedirectURI is set.
type InteractionResult struct {
	// Next is the follow-up prompt, e.g. consent after login.
	Next *Interaction
	// RedirectURI sends the user agent back to the client with a code or an error.
	RedirectURI string
	// Session is set when this step established a login session.
	Session *Session
}

// AuthorizationService provides methods for OAuth2 authorization and token requests.
type AuthorizationService struct {
	repos              Repos            // All repository dependencies
	tokenCreator       *token.Manager   // Create and handle token generation
	validator          *Validator       // Request validation rules
	resourcePath       string           // Gated path used to build the default audience
	authCodeTimeout    time.Duration    // Lifetime of an authorization code
	interactionTimeout time.Duration    // Lifetime of a pending interaction
	sessionTimeout     time.Duration    // Lifetime of a login session
	nowTime            func() time.Time // nowTime function (injectable for testing)
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

// WithTimeouts overrides the code, interaction and session lifetimes. Zero
// values keep the defaults.
func WithTimeouts(authCode, interactionTimeout, session time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		if authCode > 0 {
			as.authCodeTimeout = authCode
		}
		if interactionTimeout > 0 {
			as.interactionTimeout = interactionTimeout
		}
		if session > 0 {
			as.sessionTimeout = session
		}
	}
}

// WithResourcePath sets the gated path that forms the default token audience.
func WithResourcePath(path string) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.resourcePath = path
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
// Optional configuration can be provided via options (e.g., WithNowTime for testing).
func NewAuthorizationService(
	repos Repos,
	tokenCreator *token.Manager,
	options ...AuthorizationServiceOption,
) (*AuthorizationService, error) {
	// Validate required parameters
	if repos.Clients == nil {
		return nil, errors.New("[NewAuthorizationService] Clients repo is required")
	}
	if repos.Interactions == nil {
		return nil, errors.New("[NewAuthorizationService] Interactions repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewAuthorizationService] Sessions repo is required")
	}
	if repos.Codes == nil {
		return nil, errors.New("[NewAuthorizationService] Codes repo is required")
	}
	if tokenCreator == nil {
		return nil, errors.New("[NewAuthorizationService] tokenCreator is required")
	}

	authService := &AuthorizationService{
		repos:              repos,
		tokenCreator:       tokenCreator,
		validator:          NewValidator(),
		resourcePath:       defaultResourcePath,
		authCodeTimeout:    defaultAuthCodeTimeout,
		interactionTimeout: defaultInteractionTimeout,
		sessionTimeout:     defaultSessionTimeout,
		nowTime:            time.Now,
	}

	// Apply optional configuration
	for _, opt := range options {
		opt(authService)
	}

	return authService, nil
}

// SessionTimeout is the lifetime of a login session.
func (as *AuthorizationService) SessionTimeout() time.Duration {
	return as.sessionTimeout
}

// RegisterClient validates RFC 7591 metadata and stores a new public client.
func (as *AuthorizationService) RegisterClient(ctx context.Context, req *clients.RegistrationRequest) (*clients.Client, error) {
	client, err := req.Validate()
	if err != nil {
		return nil, invalid(gwerrors.ErrInvalidClientMetadata, err)
	}

	client.ID = uuid.New().String()
	client.IssuedAt = as.nowTime().Unix()
	if err := as.repos.Clients.Create(ctx, client); err != nil {
		return nil, errors.Wrap(err, "[RegisterClient] failed to store client")
	}
	return client, nil
}

// Authorize validates an authorization request and opens the first
// interaction for it: login, or consent when sessionID names a live login
// session.
func (as *AuthorizationService) Authorize(ctx context.Context, params *oauthmodel.AuthorizationParameters, sessionID string) (*Interaction, error) {
	if strings.TrimSpace(params.ClientID) == "" {
		return nil, invalid(gwerrors.ErrInvalidRequest, oauthmodel.ErrMissingClientID)
	}

	// Get the Client
	client, err := as.repos.Clients.Get(ctx, params.ClientID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, invalid(gwerrors.ErrInvalidRequest, errors.Errorf("unknown client %s", params.ClientID))
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Authorize] loading client")
	}

	// Validate the essential parameters with the client
	redirectURI, err := as.validator.ValidateAuthorizationRequest(params, client)
	if err != nil {
		return nil, errors.Wrap(err, "[Authorize] failed parameter validation")
	}
	resolved := *params
	resolved.RedirectURI = redirectURI
	if resolved.ResponseMode == "" {
		resolved.ResponseMode = oauthmodel.QueryResponseMode
	}

	it := as.newInteraction(interaction.PromptLogin, resolved)

	// Already have a logged in account, go straight to consent
	if session := as.liveSession(ctx, sessionID); session != nil {
		it.Prompt = interaction.PromptConsent
		it.AccountID = session.AccountID
		it.Email = session.Email
	}

	if err := as.repos.Interactions.Create(ctx, it, as.interactionTimeout); err != nil {
		return nil, errors.Wrap(err, "[Authorize] failed to create interaction")
	}
	return it, nil
}

// Interaction returns a pending interaction. Unknown, completed and expired
// uids fail with ErrInvalidRequest.
func (as *AuthorizationService) Interaction(ctx context.Context, uid string) (*Interaction, error) {
	it, err := as.repos.Interactions.Get(ctx, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, invalid(gwerrors.ErrInvalidRequest, errInteractionGone)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Interaction] loading interaction")
	}
	if as.nowTime().After(it.ExpiresAt) {
		return nil, invalid(gwerrors.ErrInvalidRequest, errInteractionGone)
	}
	return it, nil
}

// AbandonInteraction discards a pending interaction after a failure so it
// cannot be resumed.
func (as *AuthorizationService) AbandonInteraction(ctx context.Context, uid string) error {
	return errors.Wrap(as.repos.Interactions.Delete(ctx, uid), "[AbandonInteraction]")
}

// CompleteInteraction applies a decision to the interaction uid, which must
// currently be waiting on prompt. The interaction is consumed either way.
func (as *AuthorizationService) CompleteInteraction(ctx context.Context, uid string, prompt interaction.PromptKind, decision interaction.Decision) (*InteractionResult, error) {
	pending, err := as.Interaction(ctx, uid)
	if err != nil {
		return nil, err
	}
	if pending.Prompt != prompt {
		return nil, invalid(gwerrors.ErrInvalidRequest, errors.Errorf("interaction is waiting for %s, not %s", pending.Prompt, prompt))
	}

	it, err := as.repos.Interactions.Take(ctx, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, invalid(gwerrors.ErrInvalidRequest, errors.New("interaction already completed"))
	}
	if err != nil {
		return nil, errors.Wrap(err, "[CompleteInteraction] taking interaction")
	}

	if decision.Denied {
		return &InteractionResult{RedirectURI: errorRedirect(it.Params, gwerrors.CodeAccessDenied, decision.Reason)}, nil
	}

	switch it.Prompt {
	case interaction.PromptLogin:
		return as.completeLogin(ctx, it, decision)
	case interaction.PromptConsent:
		return as.completeConsent(ctx, it, decision)
	default:
		return nil, errors.Wrapf(gwerrors.ErrInteraction, "[CompleteInteraction] %v: %q", interaction.ErrUnrecognizedPrompt, it.Prompt)
	}
}

func (as *AuthorizationService) completeLogin(ctx context.Context, it *Interaction, decision interaction.Decision) (*InteractionResult, error) {
	if decision.AccountID == "" {
		return nil, errors.Wrap(gwerrors.ErrInteraction, "[completeLogin] login decision has no account")
	}

	now := as.nowTime()
	session := &Session{
		ID:        uuid.New().String(),
		AccountID: decision.AccountID,
		Email:     decision.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(as.sessionTimeout),
	}
	if err := as.repos.Sessions.Create(ctx, session, as.sessionTimeout); err != nil {
		return nil, errors.Wrap(err, "[completeLogin] failed to create session")
	}

	next := as.newInteraction(interaction.PromptConsent, it.Params)
	next.AccountID = decision.AccountID
	next.Email = decision.Email
	if err := as.repos.Interactions.Create(ctx, next, as.interactionTimeout); err != nil {
		return nil, errors.Wrap(err, "[completeLogin] failed to create consent interaction")
	}
	return &InteractionResult{Next: next, Session: session}, nil
}

func (as *AuthorizationService) completeConsent(ctx context.Context, it *Interaction, decision interaction.Decision) (*InteractionResult, error) {
	if decision.AccountID != "" && decision.AccountID != it.AccountID {
		return nil, invalid(gwerrors.ErrInvalidRequest, errors.New("consent given for a different account"))
	}

	code, err := generateCode()
	if err != nil {
		return nil, errors.Wrap(err, "[completeConsent] generating code")
	}

	now := as.nowTime()
	authCode := &AuthorizationCode{
		Code:                code,
		ClientID:            it.Params.ClientID,
		RedirectURI:         it.Params.RedirectURI,
		CodeChallenge:       it.Params.CodeChallenge,
		CodeChallengeMethod: it.Params.CodeChallengeMethod,
		AccountID:           it.AccountID,
		Email:               it.Email,
		Scope:               strings.Join(decision.GrantedScopes, " "),
		Resource:            it.Params.Resource,
		IssuedAt:            now,
		ExpiresAt:           now.Add(as.authCodeTimeout),
	}
	if err := as.repos.Codes.Create(ctx, authCode, as.authCodeTimeout); err != nil {
		return nil, errors.Wrap(err, "[completeConsent] failed to store code")
	}

	return &InteractionResult{RedirectURI: codeRedirect(it.Params, code)}, nil
}

// Token handles the OAuth 2.0 token request.
func (as *AuthorizationService) Token(ctx context.Context, req oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	if err := as.validator.ValidateTokenRequest(req); err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Token]")
	}

	// The code is consumed before any check so a failed attempt also burns it
	code, err := as.repos.Codes.Take(ctx, req.Code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, invalid(gwerrors.ErrInvalidGrant, errors.New("code is invalid, expired or already used"))
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Token] taking code")
	}

	if !as.nowTime().Before(code.ExpiresAt) {
		return nil, invalid(gwerrors.ErrInvalidGrant, errors.New("code expired"))
	}
	if req.ClientID != "" && req.ClientID != code.ClientID {
		return nil, invalid(gwerrors.ErrInvalidGrant, errors.New("code was issued to another client"))
	}
	if req.RedirectURI != code.RedirectURI {
		return nil, invalid(gwerrors.ErrInvalidGrant, errors.New("redirect_uri does not match the authorization request"))
	}

	// Code Verifier challenge
	if !checkCodeChallenge(code.CodeChallenge, req.CodeVerifier, code.CodeChallengeMethod) {
		return nil, invalid(gwerrors.ErrInvalidGrant, errors.New("code_verifier does not match the code challenge"))
	}

	audience, err := as.audience(req, code)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Token] resolving audience")
	}

	accessToken, err := as.tokenCreator.CreateAccessToken(token.AccessTokenSpecifics{
		Issuer:   req.Issuer,
		Subject:  code.AccountID,
		Email:    code.Email,
		Audience: audience,
		ClientID: code.ClientID,
		Scope:    code.Scope,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationService.Token] tokenCreator.CreateAccessToken")
	}

	return &oauthmodel.TokenResponse{
		AccessToken: accessToken,
		TokenType:   oauthmodel.TokenTypeBearer,
		ExpiresIn:   int(as.tokenCreator.AccessTokenExpiry().Seconds()),
		Scope:       code.Scope,
	}, nil
}

// GetJWKS returns the JSON Web Key Set for public key distribution
func (as *AuthorizationService) GetJWKS() jose.JSONWebKeySet {
	return as.tokenCreator.GetJWKS()
}

// audience prefers the resource indicator bound at authorize time, then
// the one sent to the token endpoint, then the gateway's own resource.
func (as *AuthorizationService) audience(req oauthmodel.TokenRequest, code *AuthorizationCode) (string, error) {
	if code.Resource != "" {
		return code.Resource, nil
	}
	if req.Resource != "" {
		return req.Resource, nil
	}
	return discovery.ResourceURL(req.Issuer, as.resourcePath)
}

func (as *AuthorizationService) newInteraction(prompt interaction.PromptKind, params oauthmodel.AuthorizationParameters) *Interaction {
	now := as.nowTime()
	return &Interaction{
		UID:       uuid.New().String(),
		Prompt:    prompt,
		Params:    params,
		CreatedAt: now,
		ExpiresAt: now.Add(as.interactionTimeout),
	}
}

func (as *AuthorizationService) liveSession(ctx context.Context, sessionID string) *Session {
	if sessionID == "" {
		return nil
	}
	session, err := as.repos.Sessions.Get(ctx, sessionID)
	if err != nil || !as.nowTime().Before(session.ExpiresAt) {
		return nil
	}
	return session
}

func generateCode() (string, error) {
	bytes := make([]byte, codeGenerationLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func codeRedirect(params oauthmodel.AuthorizationParameters, code string) string {
	values := url.Values{}
	values.Set("code", code)
	if params.State != "" {
		values.Set("state", params.State)
	}
	return appendQuery(params.RedirectURI, values)
}

func errorRedirect(params oauthmodel.AuthorizationParameters, errorCode, description string) string {
	values := url.Values{}
	values.Set("error", errorCode)
	if description != "" {
		values.Set("error_description", description)
	}
	if params.State != "" {
		values.Set("state", params.State)
	}
	return appendQuery(params.RedirectURI, values)
}

// appendQuery adds values to the redirect URI, keeping any query it was
// registered with.
func appendQuery(redirectURI string, values url.Values) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI
	}
	q := u.Query()
	for k, vs := range values {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
