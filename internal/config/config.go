package config

import (
	"github.com/joeshaw/envdecode"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	IssuerConfig
	ProxyConfig
	StoreConfig
	CorsConfig
	OAuthConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Issuer
	Proxy
	Store
	Cors
	OAuth
}

// Option overrides a decoded setting, typically from a command line flag.
type Option func(*mainConfig)

// WithPort overrides PORT.
func WithPort(port string) Option {
	return func(c *mainConfig) {
		if port != "" {
			c.EnvVars.Port = port
		}
	}
}

// WithIssuerURL overrides ISSUER_URL.
func WithIssuerURL(issuerURL string) Option {
	return func(c *mainConfig) {
		if issuerURL != "" {
			c.Issuer.URL = issuerURL
		}
	}
}

// New reads the process environment and applies any overrides.
func New(options ...Option) (Config, error) {
	c := &mainConfig{}
	if err := envdecode.Decode(c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, errors.Wrap(err, "decoding environment")
	}
	for _, opt := range options {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *mainConfig) validate() error {
	switch c.GetBearerMode() {
	case BearerModeRelaxed, BearerModeStrict:
	default:
		return errors.Errorf("BEARER_MODE must be %q or %q, got %q", BearerModeRelaxed, BearerModeStrict, c.Proxy.BearerMode)
	}
	switch c.GetStoreBackend() {
	case StoreBackendMemory, StoreBackendRedis:
	default:
		return errors.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendMemory, StoreBackendRedis, c.Store.Backend)
	}
	if c.Issuer.URL != "" {
		if _, err := parseAbsoluteURL(c.Issuer.URL); err != nil {
			return errors.Wrap(err, "ISSUER_URL")
		}
	}
	// Strict verification pins the issuer claim, so it cannot be derived per request
	if c.GetBearerMode() == BearerModeStrict && c.Issuer.URL == "" {
		return errors.New("BEARER_MODE=strict requires ISSUER_URL")
	}
	if _, err := parseAbsoluteURL(c.Proxy.UpstreamOrigin); err != nil {
		return errors.Wrap(err, "UPSTREAM_ORIGIN")
	}
	return nil
}
