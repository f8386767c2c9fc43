package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/target/jobboard-portal/config"
	"github.com/target/jobboard-portal/internal/bootstrap"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr, loadConfig: bootstrap.LoadConfig}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries what every command needs. Config and logger are loaded once,
// before the first command runs.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	loadConfig func() (config.AppConfig, error)
	cfg        config.AppConfig
	logger     *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	var (
		logLevel    string
		sessionFile string
		identityURL string
	)

	root := &cobra.Command{
		Use:   "jobboard",
		Short: "Sign in to the job board and serve the portal",
		Long: `jobboard manages the job board session on this machine.

The session is kept in durable storage (a JSON file by default) and is
restored before every command, so a sign-in survives restarts until
you sign out.

Examples:
  jobboard login --email rita@example.com --role recruiter --remember
  jobboard whoami
  jobboard route /admin-dashboard
  jobboard serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "version", "help":
				return nil
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Observability.LogLevel = logLevel
				cfg.Observability.Sanitize()
			}
			if sessionFile != "" {
				cfg.Storage.Backend = config.StoreBackendFile
				cfg.Storage.File = sessionFile
			}
			if identityURL != "" {
				cfg.Identity.BaseURL = identityURL
				cfg.Identity.Sanitize()
			}
			a.cfg = cfg
			a.logger = bootstrap.NewLogger(a.errOut, cfg.Observability.SlogLevel())
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")
	root.PersistentFlags().StringVar(&sessionFile, "session-file", "", "Keep the session in this file (overrides SESSION_STORE)")
	root.PersistentFlags().StringVar(&identityURL, "identity-url", "", "Identity service base URL (default from IDENTITY_BASE_URL)")

	root.AddCommand(
		loginCmd(a),
		registerCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		routeCmd(a),
		resetPasswordCmd(a),
		serveCmd(a),
		devIdentityCmd(a),
		versionCmd(a),
	)
	return root
}

// withSession opens durable storage, restores the session and hands it to fn.
func (a *app) withSession(ctx context.Context, fn func(*bootstrap.Portal) error) (err error) {
	backend, err := bootstrap.OpenRecordStore(ctx, bootstrap.StorageDeps{Config: &a.cfg, Logger: a.logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			a.logger.ErrorContext(ctx, "close session store failed", "error", cerr)
		}
	}()

	portal, err := bootstrap.BuildPortal(bootstrap.PortalOptions{
		Identity: a.cfg.Identity,
		Records:  backend.Store,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	defer portal.Session.Close()

	if err := portal.Session.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	return fn(portal)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
