package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	"github.com/target/jobboard-portal/internal/mocks"
	mockauth "github.com/target/jobboard-portal/internal/mocks/auth"
	"github.com/target/jobboard-portal/internal/observability/metrics"
	"github.com/target/jobboard-portal/internal/service"
	"go.uber.org/mock/gomock"
)

type portalFixture struct {
	idp     *mocks.MockIdentityService
	store   *mockauth.MemoryRecordStore
	creds   *mockauth.CredentialHolder
	session *service.AuthSession
	reg     *prometheus.Registry
	handler http.Handler
}

type fixtureOption func(*RouterServices)

func withLimiter(l *ClientLimiter) fixtureOption {
	return func(s *RouterServices) { s.LoginLimiter = l }
}

func newPortalFixture(t *testing.T, opts ...fixtureOption) *portalFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &portalFixture{
		idp:   mocks.NewMockIdentityService(ctrl),
		store: mockauth.NewMemoryRecordStore(nil),
		creds: &mockauth.CredentialHolder{},
		reg:   prometheus.NewRegistry(),
	}
	collector := metrics.NewCollector(f.reg)
	f.session = service.NewAuthSession(service.AuthSessionOptions{
		Identity:    f.idp,
		Records:     f.store,
		Credentials: f.creds,
		Metrics:     collector,
	})
	t.Cleanup(f.session.Close)

	services := RouterServices{
		Session:  f.session,
		Guard:    service.NewRouteGuard(f.session, collector),
		Gatherer: f.reg,
	}
	for _, opt := range opts {
		opt(&services)
	}
	f.handler = NewRouter(services)
	return f
}

// restoreAnonymous completes restoration from empty storage.
func (f *portalFixture) restoreAnonymous(t *testing.T) {
	t.Helper()
	require.NoError(t, f.session.Restore(context.Background()))
}

// signInAs signs the session in with the given server-side role.
func (f *portalFixture) signInAs(t *testing.T, role domainauth.Role) {
	t.Helper()
	f.expectLogin(role, "tok-"+string(role))
	_, err := f.session.SignIn(context.Background(), service.SignInInput{Email: "user@example.com", Password: "pw"})
	require.NoError(t, err)
}

func (f *portalFixture) expectLogin(role domainauth.Role, token string) *gomock.Call {
	return f.idp.EXPECT().Login(gomock.Any(), gomock.Any()).Return(domainauth.LoginResult{
		User:    domainauth.Attributes{"id": "u-1", "email": "user@example.com"},
		Profile: domainauth.Attributes{"role": string(role), "full_name": "Test User"},
		Session: domainauth.SessionInfo{AccessToken: token},
	}, nil)
}

func (f *portalFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
