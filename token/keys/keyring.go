package keys

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-jose/go-jose/v4"
)

// DefaultRetainedKeys is how many retired keys stay published after rotation.
const DefaultRetainedKeys = 2

// KeyRing holds the active signing key and recently retired keys. Retired
// keys remain in the JWKS so tokens signed before a rotation still verify.
//
// KeyRing satisfies go-oidc's KeySet interface.
type KeyRing struct {
	mu       sync.RWMutex
	current  *KeyPair
	retired  []*KeyPair
	retained int
}

// NewKeyRing creates a ring whose active key is current.
func NewKeyRing(current *KeyPair) *KeyRing {
	return &KeyRing{current: current, retained: DefaultRetainedKeys}
}

// Current returns the active signing key.
func (r *KeyRing) Current() *KeyPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Rotate makes next the active key and retires the previous one.
func (r *KeyRing) Rotate(next *KeyPair) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.retired = append([]*KeyPair{r.current}, r.retired...)
	if len(r.retired) > r.retained {
		r.retired = r.retired[:r.retained]
	}
	r.current = next
}

// JWKS returns the public keys, active key first.
func (r *KeyRing) JWKS() jose.JSONWebKeySet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{r.current.ToJWK()}}
	for _, kp := range r.retired {
		set.Keys = append(set.Keys, kp.ToJWK())
	}
	return set
}

// VerifySignature checks a compact JWS against the published keys and
// returns its payload.
func (r *KeyRing) VerifySignature(_ context.Context, raw string) ([]byte, error) {
	jws, err := jose.ParseSigned(raw, []jose.SignatureAlgorithm{jose.RS256})
	if err != nil {
		return nil, fmt.Errorf("malformed jws: %w", err)
	}

	var kid string
	if len(jws.Signatures) > 0 {
		kid = jws.Signatures[0].Header.KeyID
	}

	for _, key := range r.JWKS().Keys {
		if kid != "" && key.KeyID != kid {
			continue
		}
		if payload, err := jws.Verify(key.Key); err == nil {
			return payload, nil
		}
	}
	return nil, fmt.Errorf("no published key verifies the signature")
}
