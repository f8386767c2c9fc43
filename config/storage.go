package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StoreBackend names a durable session record backend.
type StoreBackend string

const (
	// StoreBackendFile keeps the record in a JSON file (default for the CLI).
	StoreBackendFile StoreBackend = "file"
	// StoreBackendRedis keeps the record in a Redis hash.
	StoreBackendRedis StoreBackend = "redis"
	// StoreBackendPostgres keeps the record in the session_records table.
	StoreBackendPostgres StoreBackend = "postgres"
	// StoreBackendMemory keeps the record for the life of the process.
	StoreBackendMemory StoreBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (b *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch StoreBackend(v) {
	case StoreBackendFile, StoreBackendRedis, StoreBackendPostgres, StoreBackendMemory:
		*b = StoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: file, redis, postgres, memory)", v)
	}
}

// StorageConfig selects and configures the durable session record backend.
type StorageConfig struct {
	Backend StoreBackend `env:"STORE" envDefault:"file"`
	// File is the record path for the file backend. Defaults to
	// <user config dir>/jobboard/session.json.
	File string `env:"FILE"`
	// Namespace separates records that share a Redis or Postgres backend.
	Namespace   string        `env:"NAMESPACE"    envDefault:"default"`
	RedisPrefix string        `env:"REDIS_PREFIX" envDefault:"jobboard:session:"`
	TTL         time.Duration `env:"TTL"          envDefault:"0s"`
}

// Sanitize fills in the default file path and namespace.
func (c *StorageConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = StoreBackendFile
	}
	c.Namespace = strings.TrimSpace(c.Namespace)
	if c.Namespace == "" {
		c.Namespace = "default"
	}
	if c.TTL < 0 {
		c.TTL = 0
	}
	c.File = strings.TrimSpace(c.File)
	if c.File == "" {
		c.File = DefaultSessionFile()
	}
}

// Validate reports an unusable storage selection.
func (c *StorageConfig) Validate() error {
	if c.Backend == StoreBackendFile && c.File == "" {
		return errors.New("SESSION_FILE is required when no user config directory is available")
	}
	return nil
}

// DefaultSessionFile is the per-user record path, or "" when the platform has no config dir.
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "jobboard", "session.json")
}
