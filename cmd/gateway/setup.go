package main

import (
	"context"
	"os"
	"time"

	"github.com/jrsteele09/mcp-oauth-gateway/internal/config"
	"github.com/jrsteele09/mcp-oauth-gateway/storage"
	"github.com/jrsteele09/mcp-oauth-gateway/storage/memory"
	redisstore "github.com/jrsteele09/mcp-oauth-gateway/storage/redis"
	"github.com/jrsteele09/mcp-oauth-gateway/token/keys"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const signingKeyBits = 2048

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// openStore selects the record store backend.
func openStore(ctx context.Context, c config.StoreConfig) (storage.Store, error) {
	switch c.GetStoreBackend() {
	case config.StoreBackendRedis:
		store, err := redisstore.NewFromURL(ctx, c.GetRedisURL())
		if err != nil {
			return nil, errors.Wrap(err, "opening redis store")
		}
		log.Info().Msg("using redis store")
		return store, nil
	default:
		log.Info().Msg("using in-memory store, state is lost on restart")
		return memory.New(), nil
	}
}

// loadKeyRing uses SIGNING_KEY_PEM when set and otherwise generates a key
// that lives as long as the process.
func loadKeyRing(c config.StoreConfig) (*keys.KeyRing, error) {
	var (
		kp  *keys.KeyPair
		err error
	)
	if pem := c.GetSigningKeyPEM(); pem != "" {
		kp, err = keys.LoadKeyPairFromPEM("", pem)
		if err != nil {
			return nil, errors.Wrap(err, "loading SIGNING_KEY_PEM")
		}
	} else {
		kp, err = keys.GenerateRSAKeyPair("", signingKeyBits)
		if err != nil {
			return nil, errors.Wrap(err, "generating signing key")
		}
		log.Warn().Msg("SIGNING_KEY_PEM is not set, tokens will not survive a restart")
	}
	log.Info().Str("kid", kp.KeyID).Msg("signing key loaded")
	return keys.NewKeyRing(kp), nil
}

// rotateKeys swaps in a freshly generated signing key every interval until
// ctx ends. Retired keys stay in the JWKS for a while so issued tokens
// keep verifying.
func rotateKeys(ctx context.Context, ring *keys.KeyRing, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rotateKey(ring); err != nil {
				log.Error().Err(err).Msg("signing key rotation failed")
			}
		}
	}
}

func rotateKey(ring *keys.KeyRing) error {
	kp, err := keys.GenerateRSAKeyPair("", signingKeyBits)
	if err != nil {
		return errors.Wrap(err, "generating signing key")
	}
	retired := ring.Current().KeyID
	ring.Rotate(kp)
	log.Info().Str("kid", kp.KeyID).Str("retired_kid", retired).Msg("signing key rotated")
	return nil
}
