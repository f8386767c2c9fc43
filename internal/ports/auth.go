package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
)

// IdentityService is the remote identity/profile service consumed by the session.
type IdentityService interface {
	// Login exchanges credentials for a session. A payload with success=false is an error.
	Login(ctx context.Context, in domainauth.LoginRequest) (domainauth.LoginResult, error)

	// Register creates an identity. It does not sign the caller in.
	Register(ctx context.Context, in domainauth.RegisterRequest) (domainauth.RegisterResult, error)

	// Logout revokes the current credential server-side.
	Logout(ctx context.Context) error

	// Me validates the current credential and returns identity and profile records.
	Me(ctx context.Context) (domainauth.MeResult, error)
}

// RecordStore is durable string key/value storage for the session record.
// Set and Delete apply to all given keys or none.
type RecordStore interface {
	// Get returns the subset of keys that are present. Missing keys are omitted, not errors.
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// CredentialHolder holds the bearer credential attached to outgoing requests.
type CredentialHolder interface {
	SetCredential(token string)
	Credential(ctx context.Context) string
}
