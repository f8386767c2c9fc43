package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobboard-portal/internal/adapters/apiclient"
	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	apperrors "github.com/target/jobboard-portal/internal/errors"
)

type route struct {
	status int
	body   string
}

func setup(t *testing.T, routes map[string]route) (*Service, *apiclient.Client, func(string) *http.Request) {
	t.Helper()
	var mu sync.Mutex
	seen := map[string]*http.Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		mu.Lock()
		seen[key] = r.Clone(context.Background())
		mu.Unlock()
		rt, ok := routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(rt.status)
		_, _ = w.Write([]byte(rt.body))
	}))
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	lookup := func(key string) *http.Request {
		mu.Lock()
		defer mu.Unlock()
		return seen[key]
	}
	return NewService(client), client, lookup
}

func TestLogin_Success(t *testing.T) {
	svc, _, seen := setup(t, map[string]route{
		"POST /auth/login": {200, `{"success":true,"data":{
			"user":{"id":"u1","email":"c@example.com"},
			"profile":{"role":"candidate","full_name":"Cam"},
			"session":{"access_token":"tok","refresh_token":"r"}}}`},
	})

	res, err := svc.Login(context.Background(), domainauth.LoginRequest{
		Email: "c@example.com", Password: "pw", Role: domainauth.RoleCandidate,
	})

	require.NoError(t, err)
	assert.Equal(t, "tok", res.Session.AccessToken)
	assert.Equal(t, "r", res.Session.RefreshToken)
	assert.Equal(t, "u1", res.User["id"])
	assert.Equal(t, "candidate", res.Profile["role"])
	require.NotNil(t, seen("POST /auth/login"))
}

func TestLogin_ApplicationFailure(t *testing.T) {
	svc, _, _ := setup(t, map[string]route{
		"POST /auth/login": {200, `{"success":false,"message":"Invalid login credentials"}`},
	})

	_, err := svc.Login(context.Background(), domainauth.LoginRequest{Email: "e", Password: "p"})
	require.Error(t, err)
	assert.True(t, apperrors.IsApplication(err))
	assert.Equal(t, "Invalid login credentials", err.Error())
}

func TestLogin_ApplicationFailureWithoutMessage(t *testing.T) {
	svc, _, _ := setup(t, map[string]route{
		"POST /auth/login": {200, `{"success":false}`},
	})

	_, err := svc.Login(context.Background(), domainauth.LoginRequest{Email: "e", Password: "p"})
	assert.EqualError(t, err, "request failed")
}

func TestLogin_HTTPFailureCarriesServerMessage(t *testing.T) {
	svc, _, _ := setup(t, map[string]route{
		"POST /auth/login": {403, `{"success":false,"message":"This account is not a recruiter"}`},
	})

	_, err := svc.Login(context.Background(), domainauth.LoginRequest{Email: "e", Password: "p", Role: domainauth.RoleRecruiter})
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, "This account is not a recruiter", apperrors.UserMessage(err))
	httpErr, ok := apiclient.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 403, httpErr.Status)
}

func TestLogin_MissingAccessToken(t *testing.T) {
	svc, _, _ := setup(t, map[string]route{
		"POST /auth/login": {200, `{"success":true,"data":{"user":{"id":"u"},"session":{}}}`},
	})

	_, err := svc.Login(context.Background(), domainauth.LoginRequest{Email: "e", Password: "p"})
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestLogin_RequestBody(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies <- body
		_, _ = w.Write([]byte(`{"success":false,"message":"no"}`))
	}))
	defer srv.Close()
	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, _ = NewService(client).Login(context.Background(), domainauth.LoginRequest{
		Email: "r@example.com", Password: "pw", Role: domainauth.RoleRecruiter,
	})

	assert.Equal(t, map[string]any{"email": "r@example.com", "password": "pw", "role": "recruiter"}, <-bodies)
}

func TestRegister_Success(t *testing.T) {
	svc, _, _ := setup(t, map[string]route{
		"POST /auth/register": {201, `{"success":true,"data":{"user":{"id":"new","email":"n@example.com"}}}`},
	})

	res, err := svc.Register(context.Background(), domainauth.RegisterRequest{
		Email: "n@example.com", Password: "pw", Role: domainauth.RoleCandidate,
		Profile: domainauth.Attributes{"years_of_experience": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", res.User["id"])
}

func TestMe_Success(t *testing.T) {
	svc, client, seen := setup(t, map[string]route{
		"GET /users/me": {200, `{"success":true,"data":{"user":{"id":"u"},"profile":{"role":"admin"}}}`},
	})
	client.SetCredential("tok")

	res, err := svc.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", res.Profile["role"])
	assert.Equal(t, "Bearer tok", seen("GET /users/me").Header.Get("Authorization"))
}

func TestMe_MalformedData(t *testing.T) {
	svc, _, _ := setup(t, map[string]route{
		"GET /users/me": {200, `{"success":true,"data":"oops"}`},
	})

	_, err := svc.Me(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestMe_MissingData(t *testing.T) {
	svc, _, _ := setup(t, map[string]route{
		"GET /users/me": {200, `{"success":true}`},
	})

	_, err := svc.Me(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing data")
}

func TestLogout(t *testing.T) {
	svc, client, seen := setup(t, map[string]route{
		"POST /auth/logout": {200, `anything`},
	})
	client.SetCredential("tok")

	require.NoError(t, svc.Logout(context.Background()))
	assert.Equal(t, "Bearer tok", seen("POST /auth/logout").Header.Get("Authorization"))
}

func TestLogout_Failure(t *testing.T) {
	svc, _, _ := setup(t, map[string]route{
		"POST /auth/logout": {500, `{}`},
	})

	err := svc.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, "HTTP error, status 500", err.Error())
}

func TestCanceledContext(t *testing.T) {
	svc, _, _ := setup(t, map[string]route{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Me(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsCanceled(err))
}
