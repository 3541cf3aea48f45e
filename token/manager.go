package token

import (
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/mcp-oauth-gateway/token/keys"
	"github.com/pkg/errors"
)

const defaultAccessTokenExpiry = time.Hour

// AccessTokenSpecifics are the per-grant values embedded in an access token.
type AccessTokenSpecifics struct {
	Issuer   string
	Subject  string
	Email    string
	Audience string
	ClientID string
	Scope    string
}

// KeySource publishes the keys tokens are signed with.
type KeySource interface {
	keys.Signer
	JWKS() jose.JSONWebKeySet
}

type Manager struct {
	keys              KeySource
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func New(keySource KeySource, options ...ManagerOption) *Manager {
	m := &Manager{
		keys: keySource,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry <= 0 {
		m.accessTokenExpiry = defaultAccessTokenExpiry
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// AccessTokenExpiry is the lifetime stamped into every access token.
func (c *Manager) AccessTokenExpiry() time.Duration {
	return c.accessTokenExpiry
}

// CreateAccessToken mints an RS256 access token.
func (c *Manager) CreateAccessToken(specifics AccessTokenSpecifics) (string, error) {
	if specifics.Issuer == "" {
		return "", errors.New("[Manager.CreateAccessToken] issuer is required")
	}
	if specifics.Subject == "" {
		return "", errors.New("[Manager.CreateAccessToken] subject is required")
	}

	now := c.nowFunc()
	claims := jwt.MapClaims{
		"iss":       specifics.Issuer,
		"sub":       specifics.Subject,
		"aud":       specifics.Audience,
		"client_id": specifics.ClientID,
		"iat":       now.Unix(),
		"exp":       now.Add(c.accessTokenExpiry).Unix(),
		"jti":       uuid.New().String(),
	}
	if specifics.Email != "" {
		claims["email"] = specifics.Email
	}
	if specifics.Scope != "" {
		claims["scope"] = specifics.Scope
	}

	signed, err := c.keys.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.CreateAccessToken] sign")
	}
	return signed, nil
}

// GetJWKS returns the JSON Web Key Set for public key distribution
func (c *Manager) GetJWKS() jose.JSONWebKeySet {
	return c.keys.JWKS()
}
