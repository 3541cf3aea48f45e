package config

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const defaultBasePath = "/oidc"

type IssuerConfig interface {
	// GetIssuerURL returns the configured public issuer, or "" when unset.
	GetIssuerURL() string
	// GetIssuerBasePath returns the path the authorization server is mounted on.
	GetIssuerBasePath() string
}

type Issuer struct {
	URL      string `env:"ISSUER_URL"`
	BasePath string `env:"ISSUER_BASE_PATH,default=/oidc"`
}

var _ IssuerConfig = Issuer{}

func (i Issuer) GetIssuerURL() string {
	return strings.TrimRight(strings.TrimSpace(i.URL), "/")
}

// GetIssuerBasePath prefers the path component of ISSUER_URL so that the
// routes always line up with the advertised issuer.
func (i Issuer) GetIssuerBasePath() string {
	if issuer := i.GetIssuerURL(); issuer != "" {
		if u, err := url.Parse(issuer); err == nil {
			return normalisePath(u.Path)
		}
	}
	if i.BasePath == "" {
		return defaultBasePath
	}
	return normalisePath(i.BasePath)
}

func normalisePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("%q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, errors.Errorf("%q has no host", raw)
	}
	return u, nil
}
