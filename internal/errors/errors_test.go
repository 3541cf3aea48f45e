package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"metadata", gwerrors.ErrInvalidClientMetadata, http.StatusBadRequest, "invalid_client_metadata"},
		{"wrapped grant", pkgerrors.Wrap(gwerrors.ErrInvalidGrant, "code expired"), http.StatusBadRequest, "invalid_grant"},
		{"wrapped twice", pkgerrors.Wrap(fmt.Errorf("%w: %w", gwerrors.ErrInvalidRequest, pkgerrors.New("inner")), "outer"), http.StatusBadRequest, "invalid_request"},
		{"grant type", gwerrors.ErrUnsupportedGrantType, http.StatusBadRequest, "unsupported_grant_type"},
		{"client", gwerrors.ErrInvalidClient, http.StatusBadRequest, "invalid_client"},
		{"configuration", gwerrors.ErrConfiguration, http.StatusInternalServerError, "server_error"},
		{"upstream", gwerrors.ErrUpstream, http.StatusBadGateway, "server_error"},
		{"unknown", pkgerrors.New("boom"), http.StatusInternalServerError, "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := gwerrors.Classify(tt.err)
			require.Equal(t, tt.status, c.Status)
			require.Equal(t, tt.code, c.Code)
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sentinel", gwerrors.ErrInvalidGrant, "invalid grant"},
		{"classified cause", fmt.Errorf("%w: %w", gwerrors.ErrInvalidRequest, pkgerrors.New("redirect_uri is required")), "redirect_uri is required"},
		{
			"wrapped classified cause",
			pkgerrors.Wrap(fmt.Errorf("%w: %w", gwerrors.ErrInvalidRequest, pkgerrors.New("code is required")), "[AuthorizationService.Token]"),
			"code is required",
		},
		{"wrapped sentinel", pkgerrors.Wrap(gwerrors.ErrConfiguration, "ISSUER_URL is not configured"), "gateway is not configured"},
		{"plain", pkgerrors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, gwerrors.Describe(tt.err))
		})
	}
}
