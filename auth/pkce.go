package auth

import (
	"crypto/subtle"

	"github.com/jrsteele09/mcp-oauth-gateway/oauthmodel"
	"golang.org/x/oauth2"
)

// checkCodeChallenge reports whether BASE64URL(SHA256(verifier)) equals the
// stored challenge. Only S256 is accepted and the comparison is exact.
func checkCodeChallenge(storedChallenge, verifier string, method oauthmodel.CodeMethodType) bool {
	if method != oauthmodel.CodeMethodTypeS256 || storedChallenge == "" {
		return false
	}
	if !oauthmodel.ValidCodeVerifier(verifier) {
		return false
	}
	computed := oauth2.S256ChallengeFromVerifier(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedChallenge)) == 1
}
