package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	apperrors "github.com/target/jobboard-portal/internal/errors"
	"github.com/target/jobboard-portal/internal/observability/metrics"
	"github.com/target/jobboard-portal/internal/ports"
)

// AuthSessionOptions groups dependencies for AuthSession.
type AuthSessionOptions struct {
	Identity    ports.IdentityService
	Records     ports.RecordStore
	Credentials ports.CredentialHolder
	Logger      *slog.Logger
	Metrics     metrics.AuthRecorder
	// Now is used for token expiry checks; defaults to time.Now.
	Now func() time.Time
}

// AuthSession owns the process-wide authentication state. It is the only writer
// of the session state, the user view, the durable record and the credential holder.
//
// Network calls run outside of any lock. Commits (durable write, credential and
// state update) are serialized, and a result is discarded when the session has
// moved on while the call was in flight.
type AuthSession struct {
	identity    ports.IdentityService
	records     ports.RecordStore
	credentials ports.CredentialHolder
	logger      *slog.Logger
	metrics     metrics.AuthRecorder
	now         func() time.Time

	commitMu sync.Mutex

	mu     sync.RWMutex
	state  domainauth.SessionState
	user   *domainauth.UserView
	epoch  uint64 // bumped by SignOut and Close
	logins uint64 // bumped by every committed SignIn
	closed bool

	subMu   sync.Mutex
	subs    map[int]func(domainauth.Snapshot)
	nextSub int
}

var (
	errSessionClosed     = apperrors.Canceled("session closed")
	errSignInSuperseded  = apperrors.Canceled("sign-in superseded by sign-out")
	errRestoreSuperseded = apperrors.Canceled("restore superseded")
)

// NewAuthSession constructs a session in the restoring state.
func NewAuthSession(opts AuthSessionOptions) *AuthSession {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthSession{
		identity:    opts.Identity,
		records:     opts.Records,
		credentials: opts.Credentials,
		logger:      logger.With("component", "auth_session"),
		metrics:     rec,
		now:         now,
		state:       domainauth.StateRestoring,
		subs:        make(map[int]func(domainauth.Snapshot)),
	}
}

// Snapshot returns the current state and user view. The view is shared and must be treated as read-only.
func (s *AuthSession) Snapshot() domainauth.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domainauth.Snapshot{State: s.state, User: s.user}
}

// State returns the current lifecycle state.
func (s *AuthSession) State() domainauth.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user view, or nil.
func (s *AuthSession) User() *domainauth.UserView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Subscribe registers fn to receive every committed snapshot, in commit order.
// fn runs on the committing goroutine and must not call back into the session's
// mutating operations. The returned function unregisters it.
func (s *AuthSession) Subscribe(fn func(domainauth.Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Close discards the results of in-flight operations and drops subscribers.
// State and durable storage are left as they are.
func (s *AuthSession) Close() {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	s.closed = true
	s.epoch++
	s.mu.Unlock()

	s.subMu.Lock()
	clear(s.subs)
	s.subMu.Unlock()
}

type generation struct {
	epoch  uint64
	logins uint64
}

func (s *AuthSession) generation() (generation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return generation{epoch: s.epoch, logins: s.logins}, s.closed
}

// current reports whether nothing has committed since g was taken.
// Callers hold commitMu.
func (s *AuthSession) current(g generation) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.epoch == g.epoch && s.logins == g.logins
}

// commit publishes a new state. Callers hold commitMu.
func (s *AuthSession) commit(state domainauth.SessionState, user *domainauth.UserView, login bool) {
	s.mu.Lock()
	s.state = state
	s.user = user
	if login {
		s.logins++
	}
	snap := domainauth.Snapshot{State: s.state, User: s.user}
	s.mu.Unlock()

	s.subMu.Lock()
	fns := make([]func(domainauth.Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Restore rebuilds the session from durable storage. It leaves the restoring
// state on every path; a missing or unusable record is not an error. The only
// error returned is a canceled error when the session moved on (sign-in,
// sign-out or close) before restoration could commit.
func (s *AuthSession) Restore(ctx context.Context) error {
	gen, closed := s.generation()
	if closed {
		return errSessionClosed
	}

	rec, err := readRecord(ctx, s.records)
	if err != nil {
		s.logger.WarnContext(ctx, "session storage unreadable, discarding record", "error", err)
		return s.restoreAnonymous(ctx, gen, true, metrics.RestoreDiscarded)
	}

	if rec.Token == "" {
		// Leftover keys without a credential are a partial record.
		return s.restoreAnonymous(ctx, gen, rec.Present, metrics.RestoreAnonymous)
	}

	if tokenExpired(rec.Token, s.now()) {
		s.logger.InfoContext(ctx, "stored credential expired, discarding record")
		return s.restoreAnonymous(ctx, gen, true, metrics.RestoreDiscarded)
	}

	if rec.corrupt != nil {
		// A credential without a readable user is not a usable record.
		s.logger.WarnContext(ctx, "stored session is corrupt, discarding record", "error", rec.corrupt)
		return s.restoreAnonymous(ctx, gen, true, metrics.RestoreDiscarded)
	}

	// The validation call itself must carry the stored credential.
	if !s.setCredentialIfCurrent(gen, rec.Token) {
		return errRestoreSuperseded
	}

	me, meErr := s.identity.Me(ctx)

	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	if !s.current(gen) {
		s.logger.DebugContext(ctx, "restore result discarded, session moved on")
		return errRestoreSuperseded
	}

	if meErr == nil {
		view := domainauth.BuildUserView(me.User, me.Profile, rec.cachedRole())
		values, err := userValues(view)
		if err == nil {
			err = s.records.Set(ctx, values)
		}
		if err != nil {
			// The in-memory session is valid; the cache stays warm on the next sign-in.
			s.logger.WarnContext(ctx, "refresh cached user data failed", "error", err)
		}
		s.commit(domainauth.StateAuthenticated, &view, false)
		s.metrics.RecordRestore(metrics.RestoreAuthenticated)
		s.logger.InfoContext(ctx, "session restored", "user_id", view.ID, "role", view.Role)
		return nil
	}

	// A record with a token always carries a decoded user past the corruption check.
	s.logger.WarnContext(ctx, "session validation failed, using cached user",
		"error", meErr, "user_id", rec.User.ID)
	s.commit(domainauth.StateAuthenticated, rec.User, false)
	s.metrics.RecordRestore(metrics.RestoreDegraded)
	return nil
}

func (s *AuthSession) restoreAnonymous(ctx context.Context, gen generation, wipe bool, outcome string) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	if !s.current(gen) {
		return errRestoreSuperseded
	}
	if wipe {
		s.discardLocked(ctx)
	}
	s.commit(domainauth.StateAnonymous, nil, false)
	s.metrics.RecordRestore(outcome)
	return nil
}

// discardLocked wipes every durable key and the credential. Callers hold commitMu.
func (s *AuthSession) discardLocked(ctx context.Context) {
	if err := clearRecord(context.WithoutCancel(ctx), s.records); err != nil {
		s.logger.ErrorContext(ctx, "discard session record failed", "error", err)
	}
	s.credentials.SetCredential("")
}

func (s *AuthSession) setCredentialIfCurrent(gen generation, token string) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	if !s.current(gen) {
		return false
	}
	s.credentials.SetCredential(token)
	return true
}

// SignInInput groups sign-in parameters.
type SignInInput struct {
	Email    string
	Password string
	// Role is forwarded to the identity service as a hint. The role it returns is authoritative.
	Role       domainauth.Role
	RememberMe bool
}

// SignInResult is returned on a successful sign-in.
type SignInResult struct {
	User    domainauth.UserView
	Session domainauth.SessionInfo
}

// SignIn authenticates against the identity service. Nothing is persisted and
// the state does not change unless the service reports success.
func (s *AuthSession) SignIn(ctx context.Context, in SignInInput) (SignInResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return SignInResult{}, apperrors.ValidationField("email", "email is required")
	}
	if in.Password == "" {
		return SignInResult{}, apperrors.ValidationField("password", "password is required")
	}

	gen, closed := s.generation()
	if closed {
		return SignInResult{}, errSessionClosed
	}

	res, err := s.identity.Login(ctx, domainauth.LoginRequest{
		Email:    email,
		Password: in.Password,
		Role:     in.Role,
	})
	s.metrics.RecordSignIn(err)
	if err != nil {
		s.logger.InfoContext(ctx, "sign-in rejected", "error", err, "code", apperrors.GetCode(err))
		return SignInResult{}, err
	}

	view := domainauth.BuildUserView(res.User, res.Profile, s.cachedRole(ctx))

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.RLock()
	moved := s.closed || s.epoch != gen.epoch
	s.mu.RUnlock()
	if moved {
		s.logger.InfoContext(ctx, "sign-in result discarded, session signed out or closed")
		return SignInResult{}, errSignInSuperseded
	}

	if err := writeRecord(ctx, s.records, res.Session.AccessToken, view, in.RememberMe); err != nil {
		s.logger.ErrorContext(ctx, "persist session failed", "error", err)
		if cerr := clearRecord(context.WithoutCancel(ctx), s.records); cerr != nil {
			s.logger.ErrorContext(ctx, "clear partial session record failed", "error", cerr)
		}
		return SignInResult{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "could not save session")
	}

	s.credentials.SetCredential(res.Session.AccessToken)
	s.commit(domainauth.StateAuthenticated, &view, true)
	s.logger.InfoContext(ctx, "signed in", "user_id", view.ID, "role", view.Role)

	return SignInResult{User: view, Session: res.Session}, nil
}

// cachedRole is the previously established role: the in-memory user's, else the stored one.
func (s *AuthSession) cachedRole(ctx context.Context) domainauth.Role {
	if u := s.User(); u != nil {
		return u.Role
	}
	values, err := s.records.Get(ctx, domainauth.KeyUserRole)
	if err != nil {
		return ""
	}
	role, _ := domainauth.ParseRole(values[domainauth.KeyUserRole])
	return role
}

// SignUpInput groups registration parameters.
type SignUpInput struct {
	Email    string
	Password string
	Role     domainauth.Role
	Profile  domainauth.RegistrationProfile
}

// SignUpResult carries the created identity's public fields.
type SignUpResult struct {
	User domainauth.Attributes
}

// SignUp registers a new identity. It neither signs in nor persists anything.
func (s *AuthSession) SignUp(ctx context.Context, in SignUpInput) (SignUpResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return SignUpResult{}, apperrors.ValidationField("email", "email is required")
	}
	if in.Password == "" {
		return SignUpResult{}, apperrors.ValidationField("password", "password is required")
	}
	role, ok := domainauth.ParseRole(string(in.Role))
	if !ok {
		return SignUpResult{}, apperrors.ValidationField("role", "role must be candidate, recruiter or admin")
	}

	res, err := s.identity.Register(ctx, domainauth.RegisterRequest{
		Email:    email,
		Password: in.Password,
		Role:     role,
		Profile:  in.Profile.Payload(role),
	})
	s.metrics.RecordSignUp(err)
	if err != nil {
		s.logger.InfoContext(ctx, "sign-up rejected", "error", err, "code", apperrors.GetCode(err))
		return SignUpResult{}, err
	}
	return SignUpResult{User: res.User}, nil
}

// SignOut ends the session. The remote logout is best effort; local state,
// the credential and every durable key are cleared regardless. The returned
// error only reports a failure to clear durable storage.
func (s *AuthSession) SignOut(ctx context.Context) error {
	var remoteErr error
	if s.credentials.Credential(ctx) != "" {
		remoteErr = s.identity.Logout(ctx)
		if remoteErr != nil {
			s.logger.WarnContext(ctx, "remote logout failed, clearing local session anyway", "error", remoteErr)
		}
	}
	s.metrics.RecordSignOut(remoteErr)

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	storeErr := clearRecord(context.WithoutCancel(ctx), s.records)
	s.credentials.SetCredential("")

	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
	s.commit(domainauth.StateAnonymous, nil, false)

	if storeErr != nil {
		s.logger.ErrorContext(ctx, "clear session record failed", "error", storeErr)
		return apperrors.Wrap(storeErr, apperrors.ErrCodeInternal, "could not clear saved session")
	}
	s.logger.InfoContext(ctx, "signed out")
	return nil
}

// ResetPassword is not wired to the identity service yet. It validates the
// address and reports the operation as unimplemented.
func (s *AuthSession) ResetPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.ValidationField("email", "email is required")
	}
	s.logger.DebugContext(ctx, "password reset requested but not available")
	return apperrors.Unimplemented("password reset is not available yet")
}
