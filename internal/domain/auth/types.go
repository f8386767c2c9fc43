package auth

// Package auth contains domain-level types for the job board session lifecycle.
// It is pure and free of framework/adapter concerns.

import "strings"

// Role represents a portal role.
// Keep string form for easy persistence in the durable record.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// Default portal routes per role.
const (
	RouteCandidateDashboard = "/candidate-dashboard"
	RouteRecruiterDashboard = "/recruiter-dashboard"
	RouteAdminDashboard     = "/admin-dashboard"
	RouteSignIn             = "/login"
)

// ParseRole normalizes raw role text. The second return is false when the
// input is not one of the known roles.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleCandidate:
		return RoleCandidate, true
	case RoleRecruiter:
		return RoleRecruiter, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) String() string { return string(r) }

// DefaultRoute returns the landing view for a role. Unknown roles land on the
// candidate dashboard.
func DefaultRoute(r Role) string {
	switch r {
	case RoleAdmin:
		return RouteAdminDashboard
	case RoleRecruiter:
		return RouteRecruiterDashboard
	default:
		return RouteCandidateDashboard
	}
}

// SessionState is the lifecycle state of the process-wide session.
type SessionState int

const (
	// StateRestoring is the initial state, before the first durable-storage check completes.
	StateRestoring SessionState = iota
	// StateAnonymous means no valid credential is held.
	StateAnonymous
	// StateAuthenticated means a credential and a resolved UserView are held.
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is an immutable view of the session published to readers.
type Snapshot struct {
	State SessionState `json:"state"`
	User  *UserView    `json:"user,omitempty"`
}

// Authenticated reports whether the snapshot carries a signed-in principal.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}

// Durable record keys. They are written together and cleared together.
const (
	KeyAuthToken  = "authToken"
	KeyUserData   = "userData"
	KeyUserRole   = "userRole"
	KeyRememberMe = "rememberMe"
)

// RecordKeys lists every key that belongs to the durable session record.
func RecordKeys() []string {
	return []string{KeyAuthToken, KeyUserData, KeyUserRole, KeyRememberMe}
}

// Attributes is a loosely typed identity or profile record as returned by the identity service.
type Attributes map[string]any

// SessionInfo is the credential payload issued on login.
type SessionInfo struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	// ExpiresAt is a unix timestamp in seconds.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// LoginResult is the data section of a successful login response.
type LoginResult struct {
	User    Attributes
	Profile Attributes
	Session SessionInfo
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     Role       `json:"role"`
	Profile  Attributes `json:"profile,omitempty"`
}

// RegisterResult carries the created identity's public fields.
type RegisterResult struct {
	User Attributes
}

// MeResult is the data section of GET /users/me.
type MeResult struct {
	User    Attributes
	Profile Attributes
}
