package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/mcp-oauth-gateway/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	for _, k := range []string{"ISSUER_URL", "ISSUER_BASE_PATH", "UPSTREAM_ORIGIN", "UPSTREAM_PATH", "PROTECTED_PATH", "PORT", "BEARER_MODE", "STORE_BACKEND", "ALLOWED_ORIGINS", "UPSTREAM_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":3000", cfg.GetPort())
	require.Equal(t, "", cfg.GetIssuerURL())
	require.Equal(t, "/oidc", cfg.GetIssuerBasePath())
	require.Equal(t, "https://mcp.example.com/mcp", cfg.GetUpstreamURL())
	require.Equal(t, "/mcp", cfg.GetProtectedPath())
	require.Equal(t, "MCP Server", cfg.GetResourceName())
	require.Equal(t, config.BearerModeRelaxed, cfg.GetBearerMode())
	require.Equal(t, 30*time.Second, cfg.GetUpstreamTimeout())
	require.Equal(t, config.StoreBackendMemory, cfg.GetStoreBackend())
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("*"))
	require.False(t, cfg.GetAllowedOrigins().IsAllowedOrigin("https://anything.example"))
	require.Equal(t, 60*time.Second, cfg.GetAuthCodeTimeout())
	require.Equal(t, 10*time.Minute, cfg.GetInteractionTimeout())
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("ISSUER_URL", "https://gw.example.com/auth/")
	t.Setenv("UPSTREAM_ORIGIN", "http://10.0.0.5:8080/")
	t.Setenv("UPSTREAM_PATH", "rpc")
	t.Setenv("PORT", "9090")
	t.Setenv("BEARER_MODE", "STRICT")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example/")

	cfg, err := config.New()
	require.NoError(t, err)

	require.Equal(t, "https://gw.example.com/auth", cfg.GetIssuerURL())
	require.Equal(t, "/auth", cfg.GetIssuerBasePath())
	require.Equal(t, "http://10.0.0.5:8080/rpc", cfg.GetUpstreamURL())
	require.Equal(t, ":9090", cfg.GetPort())
	require.Equal(t, config.BearerModeStrict, cfg.GetBearerMode())
	require.Equal(t, 5*time.Second, cfg.GetUpstreamTimeout())

	origins := cfg.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://b.example"))
	require.False(t, origins.IsAllowedOrigin("https://c.example"))
	require.False(t, origins.IsAllowedOrigin("*"))
}

func TestNew_IssuerAtRoot(t *testing.T) {
	t.Setenv("ISSUER_URL", "https://gw.example.com")
	t.Setenv("ISSUER_BASE_PATH", "/ignored")

	cfg, err := config.New()
	require.NoError(t, err)
	require.Equal(t, "", cfg.GetIssuerBasePath())
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("ISSUER_URL", "")

	cfg, err := config.New(config.WithPort("5000"), config.WithIssuerURL("https://flag.example/oidc"), config.WithPort(""))
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.GetPort())
	require.Equal(t, "https://flag.example/oidc", cfg.GetIssuerURL())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bearer mode", "BEARER_MODE", "lenient"},
		{"store backend", "STORE_BACKEND", "etcd"},
		{"issuer scheme", "ISSUER_URL", "ftp://gw.example.com"},
		{"upstream host", "UPSTREAM_ORIGIN", "https://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.New()
			require.Error(t, err)
		})
	}
}

func TestNew_StrictModeRequiresIssuer(t *testing.T) {
	t.Setenv("BEARER_MODE", "strict")
	t.Setenv("ISSUER_URL", "")
	_, err := config.New()
	require.Error(t, err)

	cfg, err := config.New(config.WithIssuerURL("https://gw.example.com/oidc"))
	require.NoError(t, err)
	require.Equal(t, config.BearerModeStrict, cfg.GetBearerMode())
}
