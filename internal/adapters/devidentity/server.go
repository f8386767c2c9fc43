// Package devidentity is an in-memory identity service for local development
// and end-to-end tests. It speaks the same JSON contract as the production
// identity service: POST /auth/login, POST /auth/register, POST /auth/logout
// and GET /users/me.
package devidentity

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL   = 8 * time.Hour
	minPasswordLength = 8 // keep errWeakPassword in sync
	maxBodyBytes      = 64 << 10
)

// SeedUser is an account created at startup.
type SeedUser struct {
	Email    string
	Password string
	Role     domainauth.Role
	FullName string
}

// Config controls the dev identity server.
type Config struct {
	// SigningKey signs issued tokens. A random key is generated when empty,
	// which invalidates tokens across restarts.
	SigningKey []byte
	// TokenTTL defaults to 8h.
	TokenTTL time.Duration
	Users    []SeedUser
	Logger   *slog.Logger
	// BcryptCost defaults to bcrypt.DefaultCost; tests lower it.
	BcryptCost int
	Now        func() time.Time
}

type account struct {
	id        string
	email     string
	hash      []byte
	profile   domainauth.Attributes
	createdAt time.Time
}

// Server implements the identity HTTP contract over in-memory accounts.
type Server struct {
	key    []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *slog.Logger
	mux    *http.ServeMux

	mu       sync.RWMutex
	accounts map[string]*account  // by lowercased email
	revoked  map[string]time.Time // token id -> expiry
}

// New constructs a Server and seeds its accounts.
func New(cfg Config) (*Server, error) {
	s := &Server{
		key:      cfg.SigningKey,
		ttl:      cfg.TokenTTL,
		cost:     cfg.BcryptCost,
		now:      cfg.Now,
		logger:   cfg.Logger,
		accounts: make(map[string]*account),
		revoked:  make(map[string]time.Time),
	}
	if len(s.key) == 0 {
		s.key = []byte(uuid.NewString() + uuid.NewString())
	}
	if s.ttl <= 0 {
		s.ttl = defaultTokenTTL
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "dev_identity")

	for _, u := range cfg.Users {
		profile := domainauth.Attributes{}
		if u.FullName != "" {
			profile["full_name"] = u.FullName
		}
		if _, err := s.createAccount(u.Email, u.Password, u.Role, profile); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /users/me", s.handleMe)
	s.mux = mux
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// rejection is an error whose text is shown to the caller verbatim.
type rejection string

func (r rejection) Error() string { return string(r) }

const (
	errEmailTaken    rejection = "Email already registered"
	errWeakPassword  rejection = "Password must be at least 8 characters"
	errInvalidRole   rejection = "Role must be candidate, recruiter or admin"
	errMissingFields rejection = "Email and password are required"
	errMissingToken  rejection = "Missing bearer token"
	errInvalidToken  rejection = "Invalid or expired token"
	errRevokedToken  rejection = "Token has been revoked"
	errUnknownUser   rejection = "Account no longer exists"
)

func (s *Server) createAccount(email, password string, role domainauth.Role, profile domainauth.Attributes) (*account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errMissingFields
	}
	if len(password) < minPasswordLength {
		return nil, errWeakPassword
	}
	parsed, ok := domainauth.ParseRole(string(role))
	if !ok {
		return nil, errInvalidRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := make(domainauth.Attributes, len(profile)+1)
	maps.Copy(p, profile)
	p["role"] = string(parsed)

	acct := &account{
		id:        uuid.NewString(),
		email:     email,
		hash:      hash,
		profile:   p,
		createdAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		return nil, errEmailTaken
	}
	s.accounts[email] = acct
	return acct, nil
}

func (a *account) user() domainauth.Attributes {
	return domainauth.Attributes{
		"id":         a.id,
		"email":      a.email,
		"created_at": a.createdAt.Format(time.RFC3339),
	}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginBody
	if !decode(w, r, &in) {
		return
	}

	s.mu.RLock()
	acct := s.accounts[strings.ToLower(strings.TrimSpace(in.Email))]
	s.mu.RUnlock()

	if acct == nil || bcrypt.CompareHashAndPassword(acct.hash, []byte(in.Password)) != nil {
		fail(w, http.StatusUnauthorized, "Invalid login credentials")
		return
	}

	role, _ := domainauth.ParseRole(fmt.Sprint(acct.profile["role"]))
	if in.Role != "" {
		if hint, ok := domainauth.ParseRole(in.Role); ok && hint != role {
			// Rejected at the application level: the request itself was fine.
			fail(w, http.StatusOK, fmt.Sprintf("This account is not registered as a %s", hint))
			return
		}
	}

	now := s.now()
	expires := now.Add(s.ttl)
	token, err := s.issue(acct, now, expires)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "issue token failed", "error", err)
		fail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	s.logger.InfoContext(r.Context(), "login", "user_id", acct.id, "role", role)
	ok(w, http.StatusOK, map[string]any{
		"user":    acct.user(),
		"profile": acct.profile,
		"session": domainauth.SessionInfo{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   int64(s.ttl / time.Second),
			ExpiresAt:   expires.Unix(),
		},
	})
}

type registerBody struct {
	Email    string                `json:"email"`
	Password string                `json:"password"`
	Role     string                `json:"role"`
	Profile  domainauth.Attributes `json:"profile"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerBody
	if !decode(w, r, &in) {
		return
	}

	acct, err := s.createAccount(in.Email, in.Password, domainauth.Role(in.Role), in.Profile)
	var rej rejection
	switch {
	case errors.Is(err, errEmailTaken):
		fail(w, http.StatusConflict, err.Error())
		return
	case errors.As(err, &rej):
		fail(w, http.StatusBadRequest, rej.Error())
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "register failed", "error", err)
		fail(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.logger.InfoContext(r.Context(), "registered", "user_id", acct.id, "role", acct.profile["role"])
	ok(w, http.StatusCreated, map[string]any{"user": acct.user()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authenticate(r)
	if err != nil {
		fail(w, http.StatusUnauthorized, err.Error())
		return
	}
	s.mu.Lock()
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	s.pruneRevokedLocked()
	s.mu.Unlock()

	ok(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authenticate(r)
	if err != nil {
		fail(w, http.StatusUnauthorized, err.Error())
		return
	}

	s.mu.RLock()
	var acct *account
	for _, a := range s.accounts {
		if a.id == claims.Subject {
			acct = a
			break
		}
	}
	s.mu.RUnlock()
	if acct == nil {
		fail(w, http.StatusUnauthorized, errUnknownUser.Error())
		return
	}

	ok(w, http.StatusOK, map[string]any{"user": acct.user(), "profile": acct.profile})
}

func (s *Server) issue(acct *account, now, expires time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   acct.id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

func (s *Server) authenticate(r *http.Request) (*jwt.RegisteredClaims, error) {
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || raw == "" {
		return nil, errMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errInvalidToken
	}

	s.mu.RLock()
	_, revoked := s.revoked[claims.ID]
	s.mu.RUnlock()
	if revoked {
		return nil, errRevokedToken
	}
	return claims, nil
}

func (s *Server) pruneRevokedLocked() {
	now := s.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		fail(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
