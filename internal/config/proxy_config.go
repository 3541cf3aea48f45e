package config

import (
	"strings"
	"time"
)

const (
	BearerModeRelaxed = "relaxed"
	BearerModeStrict  = "strict"
)

type ProxyConfig interface {
	GetUpstreamOrigin() string
	GetUpstreamPath() string
	// GetUpstreamURL is the single target every gated request is sent to.
	GetUpstreamURL() string
	GetProtectedPath() string
	GetResourceName() string
	GetBearerMode() string
	GetUpstreamTimeout() time.Duration
}

type Proxy struct {
	UpstreamOrigin  string        `env:"UPSTREAM_ORIGIN,default=https://mcp.example.com"`
	UpstreamPath    string        `env:"UPSTREAM_PATH,default=/mcp"`
	ProtectedPath   string        `env:"PROTECTED_PATH,default=/mcp"`
	ResourceName    string        `env:"RESOURCE_NAME,default=MCP Server"`
	BearerMode      string        `env:"BEARER_MODE,default=relaxed"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT,default=30s"`
}

var _ ProxyConfig = Proxy{}

func (p Proxy) GetUpstreamOrigin() string {
	if p.UpstreamOrigin == "" {
		return "https://mcp.example.com"
	}
	return strings.TrimRight(p.UpstreamOrigin, "/")
}

func (p Proxy) GetUpstreamPath() string {
	if p.UpstreamPath == "" {
		return "/mcp"
	}
	return normalisePath(p.UpstreamPath)
}

func (p Proxy) GetUpstreamURL() string {
	return p.GetUpstreamOrigin() + p.GetUpstreamPath()
}

func (p Proxy) GetProtectedPath() string {
	if path := normalisePath(p.ProtectedPath); path != "" {
		return path
	}
	return "/mcp"
}

func (p Proxy) GetResourceName() string {
	if p.ResourceName == "" {
		return "MCP Server"
	}
	return p.ResourceName
}

func (p Proxy) GetBearerMode() string {
	if p.BearerMode == "" {
		return BearerModeRelaxed
	}
	return strings.ToLower(strings.TrimSpace(p.BearerMode))
}

func (p Proxy) GetUpstreamTimeout() time.Duration {
	if p.UpstreamTimeout <= 0 {
		return 30 * time.Second
	}
	return p.UpstreamTimeout
}
