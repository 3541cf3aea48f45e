package config

import "strings"

type Cors struct {
	Origins string `env:"ALLOWED_ORIGINS,default=*"`
}

var _ CorsConfig = Cors{}

// AllowedOrigins is a set of origins. A "*" entry is a wildcard and is
// matched only by IsAllowedOrigin("*").
type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (c Cors) GetAllowedOrigins() AllowedOrigins {
	raw := c.Origins
	if strings.TrimSpace(raw) == "" {
		raw = "*"
	}
	origins := AllowedOrigins{}
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = nullValue{}
		}
	}
	return origins
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, PUT, PATCH, DELETE, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization, Mcp-Session-Id, Mcp-Protocol-Version"
}
