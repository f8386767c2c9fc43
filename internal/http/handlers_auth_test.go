package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	apperrors "github.com/target/jobboard-portal/internal/errors"
	"go.uber.org/mock/gomock"
)

func decodeError(t *testing.T, body []byte) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestLogin_JSONSuccessRedirectsToRoleDashboard(t *testing.T) {
	f := newPortalFixture(t)
	f.restoreAnonymous(t)
	f.idp.EXPECT().Login(gomock.Any(), domainauth.LoginRequest{
		Email: "user@example.com", Password: "pw", Role: domainauth.RoleRecruiter,
	}).Return(domainauth.LoginResult{
		User:    domainauth.Attributes{"id": "u-1"},
		Profile: domainauth.Attributes{"role": "recruiter"},
		Session: domainauth.SessionInfo{AccessToken: "tok"},
	}, nil)

	rec := f.do(jsonRequest(http.MethodPost, "/login",
		`{"email":"user@example.com","password":"pw","role":"recruiter","remember_me":true}`))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/recruiter-dashboard", rec.Header().Get("Location"))
	stored := f.store.Snapshot()
	assert.Equal(t, "tok", stored[domainauth.KeyAuthToken])
	assert.Equal(t, "true", stored[domainauth.KeyRememberMe])
	assert.Equal(t, domainauth.StateAuthenticated, f.session.State())
}

func TestLogin_FormHonorsSafeRedirect(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		target   string
		expected string
	}{
		{name: "form field", target: "/login", body: "email=user%40example.com&password=pw&redirect_uri=%2Fprofile", expected: "/profile"},
		{name: "query parameter", target: "/login?redirect_uri=%2Fprofile%3Ftab%3D2", body: "email=user%40example.com&password=pw", expected: "/profile?tab=2"},
		{name: "external target ignored", target: "/login", body: "email=user%40example.com&password=pw&redirect_uri=%2F%2Fevil.example", expected: "/candidate-dashboard"},
		{name: "absolute url ignored", target: "/login?redirect_uri=https%3A%2F%2Fevil.example%2F", body: "email=user%40example.com&password=pw", expected: "/candidate-dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPortalFixture(t)
			f.expectLogin(domainauth.RoleCandidate, "tok")

			rec := f.do(formRequest(http.MethodPost, tt.target, tt.body))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.expected, rec.Header().Get("Location"))
			_, remembered := f.store.Snapshot()[domainauth.KeyRememberMe]
			assert.False(t, remembered)
		})
	}
}

func TestLogin_FormRememberMe(t *testing.T) {
	f := newPortalFixture(t)
	f.expectLogin(domainauth.RoleAdmin, "tok")

	rec := f.do(formRequest(http.MethodPost, "/login", "email=a%40example.com&password=pw&remember_me=on"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin-dashboard", rec.Header().Get("Location"))
	assert.Equal(t, "true", f.store.Snapshot()[domainauth.KeyRememberMe])
}

func TestLogin_RejectedByIdentityService(t *testing.T) {
	f := newPortalFixture(t)
	f.restoreAnonymous(t)
	f.idp.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(domainauth.LoginResult{}, apperrors.Application("Invalid login credentials"))

	rec := f.do(jsonRequest(http.MethodPost, "/login", `{"email":"a@example.com","password":"bad"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec.Body.Bytes())
	assert.Equal(t, "application", body["error"])
	assert.Equal(t, "Invalid login credentials", body["message"])
	assert.Empty(t, f.store.Snapshot())
	assert.Equal(t, domainauth.StateAnonymous, f.session.State())
}

func TestLogin_TransportFailure(t *testing.T) {
	f := newPortalFixture(t)
	f.idp.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(domainauth.LoginResult{}, apperrors.Transport("HTTP error, status 503", nil))

	rec := f.do(jsonRequest(http.MethodPost, "/login", `{"email":"a@example.com","password":"pw"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "HTTP error, status 503", decodeError(t, rec.Body.Bytes())["message"])
}

func TestLogin_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing password", body: `{"email":"a@example.com"}`, field: "password"},
		{name: "missing email", body: `{"password":"pw"}`, field: "email"},
		{name: "unknown role", body: `{"email":"a@example.com","password":"pw","role":"owner"}`, field: "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPortalFixture(t)

			rec := f.do(jsonRequest(http.MethodPost, "/login", tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec.Body.Bytes())
			assert.Equal(t, "validation", body["error"])
			assert.Equal(t, tt.field, body["field"])
		})
	}
}

func TestLogin_MalformedJSON(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.do(jsonRequest(http.MethodPost, "/login", `{"email":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeError(t, rec.Body.Bytes())["error"])
}

func TestLogin_RateLimited(t *testing.T) {
	limiter := NewClientLimiter(LimiterConfig{PerMinute: 1, Burst: 1}, nil)
	t.Cleanup(limiter.Stop)
	f := newPortalFixture(t, withLimiter(limiter))
	f.idp.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(domainauth.LoginResult{}, apperrors.Application("Invalid login credentials"))

	first := f.do(jsonRequest(http.MethodPost, "/login", `{"email":"a@example.com","password":"pw"}`))
	second := f.do(jsonRequest(http.MethodPost, "/login", `{"email":"a@example.com","password":"pw"}`))

	assert.Equal(t, http.StatusUnauthorized, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestRegister_FormBuildsRoleProfile(t *testing.T) {
	f := newPortalFixture(t)
	f.idp.EXPECT().Register(gomock.Any(), domainauth.RegisterRequest{
		Email:    "cam@example.com",
		Password: "longenough",
		Role:     domainauth.RoleCandidate,
		Profile: domainauth.Attributes{
			"role":                "candidate",
			"full_name":           "Cam Candidate",
			"years_of_experience": 5,
			"skills":              []string{"go", "sql", "k8s"},
		},
	}).Return(domainauth.RegisterResult{User: domainauth.Attributes{"id": "new-1"}}, nil)

	rec := f.do(formRequest(http.MethodPost, "/register",
		"email=cam%40example.com&password=longenough&role=candidate&full_name=Cam+Candidate"+
			"&experience_level=senior&skills=go%2C+sql&skills=k8s&company_name=ignored"))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"user":{"id":"new-1"}}`, rec.Body.String())
	assert.Empty(t, f.store.Snapshot())
	assert.Equal(t, domainauth.StateRestoring, f.session.State())
}

func TestRegister_Rejected(t *testing.T) {
	f := newPortalFixture(t)
	f.idp.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(domainauth.RegisterResult{}, apperrors.Application("email already registered"))

	rec := f.do(jsonRequest(http.MethodPost, "/register",
		`{"email":"r@example.com","password":"pw","role":"recruiter","company_name":"Acme"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email already registered", decodeError(t, rec.Body.Bytes())["message"])
}

func TestRegister_InvalidRole(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.do(jsonRequest(http.MethodPost, "/register", `{"email":"r@example.com","password":"pw","role":"boss"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "role", decodeError(t, rec.Body.Bytes())["field"])
}

func TestLogout_ClearsSessionAndRedirects(t *testing.T) {
	f := newPortalFixture(t)
	f.signInAs(t, domainauth.RoleCandidate)
	f.idp.EXPECT().Logout(gomock.Any()).Return(nil)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, f.store.Snapshot())
	assert.Equal(t, domainauth.StateAnonymous, f.session.State())
	assert.Empty(t, f.creds.Credential(context.Background()))
}

func TestLogout_RemoteFailureStillSignsOut(t *testing.T) {
	f := newPortalFixture(t)
	f.signInAs(t, domainauth.RoleCandidate)
	f.idp.EXPECT().Logout(gomock.Any()).Return(apperrors.Transport("HTTP error, status 500", nil))

	rec := f.do(httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, f.store.Snapshot())
	assert.Equal(t, domainauth.StateAnonymous, f.session.State())
}

func TestResetPassword(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.do(formRequest(http.MethodPost, "/reset-password", "email=a%40example.com"))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "unimplemented", decodeError(t, rec.Body.Bytes())["error"])

	rec = f.do(jsonRequest(http.MethodPost, "/reset-password", `{"email":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLandingFor(t *testing.T) {
	assert.Equal(t, "/admin-dashboard", landingFor(domainauth.RoleAdmin, ""))
	assert.Equal(t, "/admin-dashboard", landingFor(domainauth.RoleAdmin, "/"))
	assert.Equal(t, "/jobs/42", landingFor(domainauth.RoleAdmin, "/jobs/42"))
	assert.Equal(t, "/candidate-dashboard", landingFor(domainauth.RoleCandidate, `\\evil`))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", " ", "c,"}))
	assert.Nil(t, splitList(nil))
}

func TestFormBool(t *testing.T) {
	assert.True(t, formBool("on"))
	assert.True(t, formBool("true"))
	assert.True(t, formBool("1"))
	assert.False(t, formBool(""))
	assert.False(t, formBool("nope"))
}
