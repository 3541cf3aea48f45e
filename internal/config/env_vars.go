package config

import (
	"fmt"
	"strings"
)

type EnvVars struct {
	Port     string `env:"PORT,default=3000"`
	AppName  string `env:"APP_NAME,default=MCP OAuth Gateway"`
	Env      string `env:"ENV,default=DEV"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

var _ EnvConfig = EnvVars{}

// GetPort returns the listen address, e.g. ":3000".
func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "3000"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	if e.AppName == "" {
		return "MCP OAuth Gateway"
	}
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	if e.LogLevel == "" {
		return "info"
	}
	return strings.ToLower(e.LogLevel)
}
