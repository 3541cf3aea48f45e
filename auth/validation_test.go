package auth_test

import (
	"testing"

	"github.com/jrsteele09/mcp-oauth-gateway/auth"
	"github.com/jrsteele09/mcp-oauth-gateway/clients"
	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
	"github.com/jrsteele09/mcp-oauth-gateway/oauthmodel"
	"github.com/stretchr/testify/require"
)

func validParams() *oauthmodel.AuthorizationParameters {
	return &oauthmodel.AuthorizationParameters{
		ClientID:            testClientID,
		ResponseType:        oauthmodel.CodeResponseType,
		RedirectURI:         testRedirectURI,
		State:               testState,
		CodeChallenge:       testCodeChallenge,
		CodeChallengeMethod: oauthmodel.CodeMethodTypeS256,
	}
}

func publicClient() *clients.Client {
	return &clients.Client{
		ID:                      testClientID,
		RedirectURIs:            []string{testRedirectURI},
		TokenEndpointAuthMethod: oauthmodel.AuthMethodNone,
	}
}

func TestValidator_ValidateAuthorizationRequest(t *testing.T) {
	v := auth.NewValidator()

	t.Run("valid request", func(t *testing.T) {
		redirect, err := v.ValidateAuthorizationRequest(validParams(), publicClient())
		require.NoError(t, err)
		require.Equal(t, testRedirectURI, redirect)
	})

	t.Run("redirect uri required with a single registered uri", func(t *testing.T) {
		params := validParams()
		params.RedirectURI = ""
		_, err := v.ValidateAuthorizationRequest(params, publicClient())
		require.ErrorIs(t, err, gwerrors.ErrInvalidRequest)
		require.ErrorIs(t, err, oauthmodel.ErrMissingRedirectUri)
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := v.ValidateAuthorizationRequest(validParams(), nil)
		require.ErrorIs(t, err, gwerrors.ErrInvalidRequest)
	})

	t.Run("redirect uri mismatch", func(t *testing.T) {
		params := validParams()
		params.RedirectURI = "https://client.example/other"
		_, err := v.ValidateAuthorizationRequest(params, publicClient())
		require.ErrorIs(t, err, gwerrors.ErrInvalidRequest)
		require.ErrorIs(t, err, oauthmodel.ErrInvalidRedirectUri)
	})

	t.Run("trailing slash is a mismatch", func(t *testing.T) {
		params := validParams()
		params.RedirectURI = testRedirectURI + "/"
		_, err := v.ValidateAuthorizationRequest(params, publicClient())
		require.ErrorIs(t, err, oauthmodel.ErrInvalidRedirectUri)
	})

	t.Run("plain PKCE rejected", func(t *testing.T) {
		params := validParams()
		params.CodeChallengeMethod = oauthmodel.CodeMethodTypePlain
		_, err := v.ValidateAuthorizationRequest(params, publicClient())
		require.ErrorIs(t, err, gwerrors.ErrInvalidRequest)
		require.ErrorIs(t, err, oauthmodel.ErrInvalidCodeChallengeMethod)
	})

	t.Run("missing challenge", func(t *testing.T) {
		params := validParams()
		params.CodeChallenge = ""
		_, err := v.ValidateAuthorizationRequest(params, publicClient())
		require.ErrorIs(t, err, oauthmodel.ErrMissingCodeChallenge)
	})

	t.Run("confidential client", func(t *testing.T) {
		client := publicClient()
		client.TokenEndpointAuthMethod = "client_secret_basic"
		_, err := v.ValidateAuthorizationRequest(validParams(), client)
		require.ErrorIs(t, err, gwerrors.ErrInvalidClient)
	})
}

func TestValidator_ValidateTokenRequest(t *testing.T) {
	v := auth.NewValidator()
	valid := oauthmodel.TokenRequest{
		GrantType:    oauthmodel.AuthorizationCodeGrant,
		Code:         "abc",
		RedirectURI:  testRedirectURI,
		CodeVerifier: testCodeVerifier,
	}

	require.NoError(t, v.ValidateTokenRequest(valid))

	tests := []struct {
		name   string
		modify func(*oauthmodel.TokenRequest)
		want   error
	}{
		{"missing grant type", func(r *oauthmodel.TokenRequest) { r.GrantType = "" }, gwerrors.ErrInvalidRequest},
		{"refresh grant", func(r *oauthmodel.TokenRequest) { r.GrantType = "refresh_token" }, gwerrors.ErrUnsupportedGrantType},
		{"missing code", func(r *oauthmodel.TokenRequest) { r.Code = "" }, gwerrors.ErrInvalidRequest},
		{"missing redirect", func(r *oauthmodel.TokenRequest) { r.RedirectURI = "" }, gwerrors.ErrInvalidRequest},
		{"missing verifier", func(r *oauthmodel.TokenRequest) { r.CodeVerifier = "" }, gwerrors.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.modify(&req)
			require.ErrorIs(t, v.ValidateTokenRequest(req), tt.want)
		})
	}
}
