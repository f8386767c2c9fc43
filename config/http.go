package config

import "time"

// HTTPConfig contains portal HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"ADDR" envDefault:":8080"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// LoginPerMinute is the sustained sign-in attempts allowed per client IP.
	LoginPerMinute float64 `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	// LoginBurst is the number of attempts allowed back to back.
	LoginBurst int `env:"LOGIN_BURST" envDefault:"5"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 30 * time.Second
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 30 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
	if h.LoginPerMinute <= 0 {
		h.LoginPerMinute = 10
	}
	if h.LoginBurst < 1 {
		h.LoginBurst = 1
	}
}
