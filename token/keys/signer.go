package keys

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs JWT claims.
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.MapClaims) (string, error)
}

var _ Signer = (*KeyRing)(nil)

// Sign signs claims with the active key and stamps its kid header.
func (r *KeyRing) Sign(claims jwt.MapClaims) (string, error) {
	kp := r.Current()
	token := jwt.NewWithClaims(kp.GetSigningMethod(), claims)
	token.Header["kid"] = kp.KeyID

	signedToken, err := token.SignedString(kp.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token with asymmetric key: %w", err)
	}
	return signedToken, nil
}
