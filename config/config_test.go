package config

import (
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func parseEnv(t *testing.T, vars map[string]string) AppConfig {
	t.Helper()
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := parseEnv(t, map[string]string{})
	cfg.Sanitize()

	if cfg.Storage.Backend != StoreBackendFile {
		t.Fatalf("expected file backend by default, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Namespace != "default" {
		t.Fatalf("expected default namespace, got %q", cfg.Storage.Namespace)
	}
	if cfg.Identity.BaseURL != "http://localhost:8081" {
		t.Fatalf("unexpected identity base url %q", cfg.Identity.BaseURL)
	}
	if cfg.Identity.Timeout != 10*time.Second {
		t.Fatalf("unexpected identity timeout %v", cfg.Identity.Timeout)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.HTTP.LoginBurst != 5 || cfg.HTTP.LoginPerMinute != 10 {
		t.Fatalf("unexpected http defaults: %#v", cfg.HTTP)
	}
	if cfg.DevIdentity.Addr != ":8081" || cfg.DevIdentity.TokenTTL != 8*time.Hour {
		t.Fatalf("unexpected dev identity defaults: %#v", cfg.DevIdentity)
	}
	if cfg.Postgres.Name != "jobboard" {
		t.Fatalf("unexpected db name %q", cfg.Postgres.Name)
	}
	if !cfg.Observability.MetricsEnabled || cfg.Observability.LogLevel != "info" {
		t.Fatalf("unexpected observability defaults: %#v", cfg.Observability)
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	cfg := parseEnv(t, map[string]string{
		"IDENTITY_BASE_URL":          "https://id.example.com/api/",
		"IDENTITY_TIMEOUT":           "3s",
		"SESSION_STORE":              "Redis",
		"SESSION_NAMESPACE":          "kiosk-1",
		"SESSION_REDIS_PREFIX":       "jb:",
		"SESSION_TTL":                "720h",
		"REDIS_URI":                  "redis://cache:6379/2",
		"HTTP_ADDR":                  "127.0.0.1:9000",
		"HTTP_LOGIN_RATE_PER_MINUTE": "30",
		"HTTP_LOGIN_BURST":           "3",
		"DEV_IDENTITY_USERS":         "a@example.com:pw:admin:Ada Admin; r@example.com:pw:recruiter",
		"LOG_LEVEL":                  "DEBUG",
	})
	cfg.Sanitize()

	if cfg.Identity.BaseURL != "https://id.example.com/api" || cfg.Identity.Timeout != 3*time.Second {
		t.Fatalf("unexpected identity config: %#v", cfg.Identity)
	}
	expectedStorage := StorageConfig{
		Backend:     StoreBackendRedis,
		File:        DefaultSessionFile(),
		Namespace:   "kiosk-1",
		RedisPrefix: "jb:",
		TTL:         720 * time.Hour,
	}
	if !reflect.DeepEqual(cfg.Storage, expectedStorage) {
		t.Fatalf("unexpected storage configuration:\nexpected: %#v\ngot:      %#v", expectedStorage, cfg.Storage)
	}
	if cfg.Redis.URI != "redis://cache:6379/2" {
		t.Fatalf("unexpected redis uri %q", cfg.Redis.URI)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9000" || cfg.HTTP.LoginPerMinute != 30 || cfg.HTTP.LoginBurst != 3 {
		t.Fatalf("unexpected http config: %#v", cfg.HTTP)
	}
	if cfg.Observability.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.Observability.SlogLevel())
	}

	users, err := cfg.DevIdentity.SeedUsers()
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}
	expectedUsers := []SeedUser{
		{Email: "a@example.com", Password: "pw", Role: "admin", FullName: "Ada Admin"},
		{Email: "r@example.com", Password: "pw", Role: "recruiter"},
	}
	if !reflect.DeepEqual(users, expectedUsers) {
		t.Fatalf("unexpected seed users:\nexpected: %#v\ngot:      %#v", expectedUsers, users)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestStoreBackend_Invalid(t *testing.T) {
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{"SESSION_STORE": "sqlite"}})
	if err == nil {
		t.Fatal("expected invalid backend to fail parsing")
	}
	if !strings.Contains(err.Error(), "valid options") {
		t.Fatalf("expected options hint, got %v", err)
	}
}

func TestStorageConfig_Sanitize(t *testing.T) {
	cfg := StorageConfig{Namespace: "  ", TTL: -time.Second, File: " /tmp/s.json "}
	cfg.Sanitize()

	if cfg.Backend != StoreBackendFile {
		t.Fatalf("expected file backend, got %q", cfg.Backend)
	}
	if cfg.Namespace != "default" {
		t.Fatalf("expected default namespace, got %q", cfg.Namespace)
	}
	if cfg.TTL != 0 {
		t.Fatalf("expected negative ttl to clamp to zero, got %v", cfg.TTL)
	}
	if cfg.File != "/tmp/s.json" {
		t.Fatalf("expected trimmed file, got %q", cfg.File)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{LoginPerMinute: -1, LoginBurst: 0}
	cfg.Sanitize()

	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.LoginPerMinute != 10 || cfg.LoginBurst != 1 {
		t.Fatalf("unexpected login limits: %v/%d", cfg.LoginPerMinute, cfg.LoginBurst)
	}
	if cfg.ReadTimeout != 30*time.Second || cfg.WriteTimeout != 30*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected timeouts: %#v", cfg)
	}
}

func TestObservabilityConfig_Sanitize(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range tests {
		cfg := ObservabilityConfig{LogLevel: raw}
		cfg.Sanitize()
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("level %q: expected %v, got %v", raw, want, got)
		}
	}
}

func TestDevIdentityConfig_SeedUsersErrors(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{name: "too few fields", entry: "a@example.com:pw"},
		{name: "unknown role", entry: "a@example.com:pw:owner"},
		{name: "missing password", entry: "a@example.com::admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DevIdentityConfig{Users: []string{tt.entry}}
			if _, err := cfg.SeedUsers(); err == nil {
				t.Fatalf("expected error for %q", tt.entry)
			}
		})
	}
}

func TestDevIdentityConfig_SanitizeDropsBlankEntries(t *testing.T) {
	cfg := DevIdentityConfig{Users: []string{" ", "a@example.com:pw:candidate", ""}}
	cfg.Sanitize()

	if !reflect.DeepEqual(cfg.Users, []string{"a@example.com:pw:candidate"}) {
		t.Fatalf("unexpected users: %#v", cfg.Users)
	}
}

func TestAppConfig_Validate(t *testing.T) {
	cfg := AppConfig{
		Storage:     StorageConfig{Backend: StoreBackendPostgres, File: "x"},
		DevIdentity: DevIdentityConfig{Users: []string{"broken"}},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "DB_NAME") || !strings.Contains(err.Error(), "DEV_IDENTITY_USERS") {
		t.Fatalf("expected joined errors, got %v", err)
	}
}

func TestAppConfig_DetectDevMode(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{}
	cfg.Sanitize()
	if !cfg.IsDev {
		t.Fatal("expected NODE_ENV=development to enable dev mode")
	}
}
