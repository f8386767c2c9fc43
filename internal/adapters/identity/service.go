package identity

// Package identity implements ports.IdentityService over the identity-service JSON API.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/target/jobboard-portal/internal/adapters/apiclient"
	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	apperrors "github.com/target/jobboard-portal/internal/errors"
)

// Endpoints of the identity-service contract.
const (
	EndpointLogin    = "/auth/login"
	EndpointRegister = "/auth/register"
	EndpointLogout   = "/auth/logout"
	EndpointMe       = "/users/me"
)

const defaultFailureMessage = "request failed"

// Sender is the transport the service talks through.
type Sender interface {
	Send(ctx context.Context, endpoint string, opts apiclient.RequestOptions, out any) error
}

// Service is the HTTP implementation of ports.IdentityService.
type Service struct {
	client Sender
}

// NewService constructs a Service on top of a transport.
func NewService(client Sender) *Service {
	return &Service{client: client}
}

// envelope is the shared response shape {success, message?, data}.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginData struct {
	User    domainauth.Attributes  `json:"user"`
	Profile domainauth.Attributes  `json:"profile"`
	Session domainauth.SessionInfo `json:"session"`
}

type userData struct {
	User    domainauth.Attributes `json:"user"`
	Profile domainauth.Attributes `json:"profile"`
}

// Login implements ports.IdentityService.
func (s *Service) Login(ctx context.Context, in domainauth.LoginRequest) (domainauth.LoginResult, error) {
	var data loginData
	if err := s.call(ctx, http.MethodPost, EndpointLogin, in, &data); err != nil {
		return domainauth.LoginResult{}, err
	}
	if data.Session.AccessToken == "" {
		return domainauth.LoginResult{}, apperrors.Transport("malformed login response: missing access token", nil)
	}
	return domainauth.LoginResult{User: data.User, Profile: data.Profile, Session: data.Session}, nil
}

// Register implements ports.IdentityService.
func (s *Service) Register(ctx context.Context, in domainauth.RegisterRequest) (domainauth.RegisterResult, error) {
	var data userData
	if err := s.call(ctx, http.MethodPost, EndpointRegister, in, &data); err != nil {
		return domainauth.RegisterResult{}, err
	}
	return domainauth.RegisterResult{User: data.User}, nil
}

// Logout implements ports.IdentityService. Any 2xx body shape is accepted.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.client.Send(ctx, EndpointLogout, apiclient.RequestOptions{Method: http.MethodPost}, nil); err != nil {
		return transportError(err)
	}
	return nil
}

// Me implements ports.IdentityService.
func (s *Service) Me(ctx context.Context) (domainauth.MeResult, error) {
	var data userData
	if err := s.call(ctx, http.MethodGet, EndpointMe, nil, &data); err != nil {
		return domainauth.MeResult{}, err
	}
	if data.User == nil {
		return domainauth.MeResult{}, apperrors.Transport("malformed profile response: missing user", nil)
	}
	return domainauth.MeResult{User: data.User, Profile: data.Profile}, nil
}

func (s *Service) call(ctx context.Context, method, endpoint string, body, dst any) error {
	var env envelope
	opts := apiclient.RequestOptions{Method: method}
	if body != nil {
		opts.Body = body
	}
	if err := s.client.Send(ctx, endpoint, opts, &env); err != nil {
		return transportError(err)
	}
	if !env.Success {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = defaultFailureMessage
		}
		return apperrors.Application(msg)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return apperrors.Transport("malformed response: missing data", nil)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return apperrors.Transport("malformed response", err)
	}
	return nil
}

// transportError carries the server message (or generic status text) for HTTP
// failures and the transport error text otherwise.
func transportError(err error) error {
	if httpErr, ok := apiclient.AsHTTPError(err); ok {
		return apperrors.Transport(httpErr.Message, httpErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "request canceled")
	}
	return apperrors.Transport(err.Error(), err)
}
