package config

import (
	"strings"
	"time"
)

const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

type StoreConfig interface {
	GetStoreBackend() string
	GetRedisURL() string
	// GetSigningKeyPEM returns a PEM encoded RSA private key, or "" to generate one.
	GetSigningKeyPEM() string
	// GetSigningKeyRotateInterval returns how often a fresh signing key is
	// generated, or 0 to keep one key for the life of the process.
	GetSigningKeyRotateInterval() time.Duration
}

type Store struct {
	Backend       string `env:"STORE_BACKEND,default=memory"`
	RedisURL      string `env:"REDIS_URL,default=redis://localhost:6379/0"`
	SigningKeyPEM string `env:"SIGNING_KEY_PEM"`

	SigningKeyRotateInterval time.Duration `env:"SIGNING_KEY_ROTATE_INTERVAL,default=0s"`
}

var _ StoreConfig = Store{}

func (s Store) GetStoreBackend() string {
	if s.Backend == "" {
		return StoreBackendMemory
	}
	return strings.ToLower(strings.TrimSpace(s.Backend))
}

func (s Store) GetRedisURL() string {
	if s.RedisURL == "" {
		return "redis://localhost:6379/0"
	}
	return s.RedisURL
}

func (s Store) GetSigningKeyPEM() string {
	return s.SigningKeyPEM
}

func (s Store) GetSigningKeyRotateInterval() time.Duration {
	if s.SigningKeyRotateInterval < 0 {
		return 0
	}
	return s.SigningKeyRotateInterval
}
