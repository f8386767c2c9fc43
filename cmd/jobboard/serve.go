package main

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/target/jobboard-portal/internal/bootstrap"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the portal HTTP server",
		Long: `Run the portal HTTP server.

The session is restored in the background; guarded views answer 503
with Retry-After until it settles. SIGINT or SIGTERM shuts the server
down gracefully.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			logger := bootstrap.InitLogger(a.cfg.Observability.SlogLevel())
			logger.InfoContext(cmd.Context(), "starting portal",
				"version", version,
				"identity", a.cfg.Identity.BaseURL,
				"store", string(a.cfg.Storage.Backend),
			)
			return bootstrap.RunPortalServer(cmd.Context(), bootstrap.PortalServerConfig{
				Config: &a.cfg,
				Logger: logger,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from HTTP_ADDR)")
	return cmd
}

func devIdentityCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "dev-identity",
		Short: "Run an in-memory identity service for local development",
		Long: `Run an in-memory identity service implementing /auth/login,
/auth/register, /auth/logout and /users/me.

Accounts are seeded from DEV_IDENTITY_USERS ("email:password:role[:full name]"
entries separated by ";") and are lost on exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.DevIdentity.Addr = addr
			}
			logger := bootstrap.InitLogger(a.cfg.Observability.SlogLevel())
			return bootstrap.RunDevIdentityServer(cmd.Context(), bootstrap.DevIdentityServerConfig{
				Config: &a.cfg,
				Logger: logger,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from DEV_IDENTITY_ADDR)")
	return cmd
}

func versionCmd(a *app) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			if short {
				a.printf("%s\n", version)
				return
			}
			a.printf("Version:    %s\n", version)
			a.printf("Commit:     %s\n", commit)
			a.printf("Built:      %s\n", date)
			a.printf("Go version: %s\n", runtime.Version())
			a.printf("OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}
