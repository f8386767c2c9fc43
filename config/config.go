package config

import (
	"errors"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - identity.go: Identity service endpoint
//   - storage.go: Durable session record backend
//   - database.go: Postgres and Redis connections
//   - http.go: Portal HTTP server
//   - devidentity.go: Local development identity service
//   - observability.go: Logging and metrics
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Identity IdentityConfig `envPrefix:"IDENTITY_"`

	// Storage selects where the durable session record lives.
	Storage StorageConfig `envPrefix:"SESSION_"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig `envPrefix:"HTTP_"`

	DevIdentity DevIdentityConfig `envPrefix:"DEV_IDENTITY_"`

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Identity.Sanitize()
	c.Storage.Sanitize()
	c.HTTP.Sanitize()
	c.DevIdentity.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// Validate reports configuration that cannot be repaired by Sanitize.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Storage.Backend == StoreBackendPostgres && strings.TrimSpace(c.Postgres.Name) == "" {
		errs = append(errs, errors.New("DB_NAME is required for the postgres session store"))
	}
	if c.Storage.Backend == StoreBackendRedis && !c.Redis.UseSentinel && strings.TrimSpace(c.Redis.URI) == "" {
		errs = append(errs, errors.New("REDIS_URI is required for the redis session store"))
	}
	if _, err := c.DevIdentity.SeedUsers(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
