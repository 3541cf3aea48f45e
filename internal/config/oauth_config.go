package config

import "time"

type OAuthConfig interface {
	GetAuthCodeTimeout() time.Duration
	GetInteractionTimeout() time.Duration
	GetLoginSessionTimeout() time.Duration
	GetDefaultAccessTokenExpiry() time.Duration
	GetScopesSupported() []string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetAuthCodeTimeout() time.Duration {
	return 60 * time.Second
}

func (OAuth) GetInteractionTimeout() time.Duration {
	return 10 * time.Minute
}

func (OAuth) GetLoginSessionTimeout() time.Duration {
	return 14 * 24 * time.Hour
}

func (OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (OAuth) GetScopesSupported() []string {
	return []string{"openid", "profile", "email"}
}
