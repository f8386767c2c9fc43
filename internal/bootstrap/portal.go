package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/target/jobboard-portal/config"
	"github.com/target/jobboard-portal/internal/adapters/apiclient"
	"github.com/target/jobboard-portal/internal/adapters/identity"
	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	"github.com/target/jobboard-portal/internal/observability/metrics"
	"github.com/target/jobboard-portal/internal/ports"
	"github.com/target/jobboard-portal/internal/service"
)

// PortalOptions groups the dependencies of BuildPortal.
type PortalOptions struct {
	Identity config.IdentityConfig
	Records  ports.RecordStore
	// Registerer receives the auth metrics. Metrics are disabled when nil.
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

// Portal is the wired session stack shared by the CLI and the portal server.
type Portal struct {
	Session *service.AuthSession
	Guard   *service.RouteGuard
	Client  *apiclient.Client
}

// BuildPortal wires the SessionStore, identity adapter, AuthSession and RouteGuard.
// The session starts in the restoring state; call Session.Restore.
func BuildPortal(opts PortalOptions) (*Portal, error) {
	if opts.Records == nil {
		return nil, errors.New("portal requires a record store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	records := opts.Records
	client, err := apiclient.New(apiclient.Config{
		BaseURL: opts.Identity.BaseURL,
		Timeout: opts.Identity.Timeout,
		Fallback: func(ctx context.Context) (string, error) {
			values, err := records.Get(ctx, domainauth.KeyAuthToken)
			if err != nil {
				return "", err
			}
			return values[domainauth.KeyAuthToken], nil
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build identity client: %w", err)
	}

	var recorder metrics.AuthRecorder = metrics.Nop{}
	if opts.Registerer != nil {
		recorder = metrics.NewCollector(opts.Registerer)
	}

	session := service.NewAuthSession(service.AuthSessionOptions{
		Identity:    identity.NewService(client),
		Records:     records,
		Credentials: client,
		Logger:      logger,
		Metrics:     recorder,
	})
	return &Portal{
		Session: session,
		Guard:   service.NewRouteGuard(session, recorder),
		Client:  client,
	}, nil
}
