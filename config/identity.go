package config

import (
	"strings"
	"time"
)

const defaultIdentityTimeout = 10 * time.Second

// IdentityConfig points the portal at the identity service.
type IdentityConfig struct {
	// BaseURL is prefixed to every identity endpoint, e.g. "https://id.example.com/api".
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8081"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"10s"`
}

// Sanitize trims the base URL and restores a usable timeout.
func (c *IdentityConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultIdentityTimeout
	}
}
