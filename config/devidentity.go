package config

import (
	"fmt"
	"strings"
	"time"
)

// DevIdentityConfig configures the in-process identity service used for local development.
type DevIdentityConfig struct {
	Addr       string        `env:"ADDR"        envDefault:":8081"`
	SigningKey string        `env:"SIGNING_KEY"`
	TokenTTL   time.Duration `env:"TOKEN_TTL"   envDefault:"8h"`
	// Users seeds accounts as "email:password:role[:full name]" entries separated by ";".
	Users []string `env:"USERS" envSeparator:";"`
}

// SeedUser is one parsed DEV_IDENTITY_USERS entry.
type SeedUser struct {
	Email    string
	Password string
	Role     string
	FullName string
}

// Sanitize drops blank seed entries.
func (c *DevIdentityConfig) Sanitize() {
	if c.Addr == "" {
		c.Addr = ":8081"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 8 * time.Hour
	}
	users := c.Users[:0]
	for _, u := range c.Users {
		if u = strings.TrimSpace(u); u != "" {
			users = append(users, u)
		}
	}
	c.Users = users
}

// SeedUsers parses the configured seed accounts.
func (c *DevIdentityConfig) SeedUsers() ([]SeedUser, error) {
	out := make([]SeedUser, 0, len(c.Users))
	for _, raw := range c.Users {
		parts := strings.SplitN(strings.TrimSpace(raw), ":", 4)
		if len(parts) < 3 {
			return nil, fmt.Errorf("invalid DEV_IDENTITY_USERS entry %q: want email:password:role[:full name]", raw)
		}
		u := SeedUser{
			Email:    strings.TrimSpace(parts[0]),
			Password: parts[1],
			Role:     strings.ToLower(strings.TrimSpace(parts[2])),
		}
		if len(parts) == 4 {
			u.FullName = strings.TrimSpace(parts[3])
		}
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("invalid DEV_IDENTITY_USERS entry %q: email and password are required", raw)
		}
		switch u.Role {
		case "candidate", "recruiter", "admin":
		default:
			return nil, fmt.Errorf("invalid DEV_IDENTITY_USERS entry %q: unknown role %q", raw, u.Role)
		}
		out = append(out, u)
	}
	return out, nil
}
