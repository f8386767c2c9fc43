package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/target/jobboard-portal/config"
	"github.com/target/jobboard-portal/internal/adapters/devidentity"
	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	httpx "github.com/target/jobboard-portal/internal/http"
	"golang.org/x/sync/errgroup"
)

// PortalServerConfig contains dependencies for RunPortalServer.
type PortalServerConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// Listener overrides HTTP.Addr (tests).
	Listener net.Listener
}

// RunPortalServer serves the portal until ctx is canceled. The session is
// restored in the background, so guarded views answer 503 until it settles.
func RunPortalServer(ctx context.Context, cfg PortalServerConfig) (err error) {
	if cfg.Config == nil {
		return errors.New("portal server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	backend, err := OpenRecordStore(ctx, StorageDeps{Config: appCfg, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close session store: %w", cerr))
		}
	}()
	logger.Info("session store opened", "backend", backend.Describe)

	var (
		registerer prometheus.Registerer
		gatherer   prometheus.Gatherer
	)
	if appCfg.Observability.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registerer, gatherer = reg, reg
	}

	portal, err := BuildPortal(PortalOptions{
		Identity:   appCfg.Identity,
		Records:    backend.Store,
		Registerer: registerer,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer portal.Session.Close()

	limiter := httpx.NewClientLimiter(httpx.LimiterConfig{
		PerMinute: appCfg.HTTP.LoginPerMinute,
		Burst:     appCfg.HTTP.LoginBurst,
	}, logger)
	defer limiter.Stop()

	router := httpx.NewRouter(httpx.RouterServices{
		Session:      portal.Session,
		Guard:        portal.Guard,
		Gatherer:     gatherer,
		LoginLimiter: limiter,
		Logger:       logger,
	})
	server := NewHTTPServer(HTTPServerConfig{HTTP: appCfg.HTTP, Handler: router, Logger: logger})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if rerr := portal.Session.Restore(gctx); rerr != nil {
			logger.WarnContext(gctx, "session restore did not complete", "error", rerr)
			return nil
		}
		logger.InfoContext(gctx, "session restored", "state", portal.Session.State().String())
		return nil
	})
	g.Go(func() error {
		return ServeHTTP(gctx, server, cfg.Listener, appCfg.HTTP.ShutdownTimeout, logger)
	})
	return g.Wait()
}

// BuildDevIdentity constructs the development identity server from config.
func BuildDevIdentity(cfg config.DevIdentityConfig, logger *slog.Logger) (*devidentity.Server, error) {
	seeds, err := cfg.SeedUsers()
	if err != nil {
		return nil, err
	}
	users := make([]devidentity.SeedUser, 0, len(seeds))
	for _, s := range seeds {
		users = append(users, devidentity.SeedUser{
			Email:    s.Email,
			Password: s.Password,
			Role:     domainauth.Role(s.Role),
			FullName: s.FullName,
		})
	}
	return devidentity.New(devidentity.Config{
		SigningKey: []byte(cfg.SigningKey),
		TokenTTL:   cfg.TokenTTL,
		Users:      users,
		Logger:     logger,
	})
}

// DevIdentityServerConfig contains dependencies for RunDevIdentityServer.
type DevIdentityServerConfig struct {
	Config   *config.AppConfig
	Logger   *slog.Logger
	Listener net.Listener
}

// RunDevIdentityServer serves the development identity service until ctx is canceled.
func RunDevIdentityServer(ctx context.Context, cfg DevIdentityServerConfig) error {
	if cfg.Config == nil {
		return errors.New("dev identity config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idp, err := BuildDevIdentity(cfg.Config.DevIdentity, logger)
	if err != nil {
		return fmt.Errorf("build dev identity: %w", err)
	}

	httpCfg := cfg.Config.HTTP
	httpCfg.Addr = cfg.Config.DevIdentity.Addr
	server := NewHTTPServer(HTTPServerConfig{HTTP: httpCfg, Handler: idp, Logger: logger})
	return ServeHTTP(ctx, server, cfg.Listener, httpCfg.ShutdownTimeout, logger)
}
