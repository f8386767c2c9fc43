package httpx

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Session SessionService
	Guard   Guard
	// Gatherer backs GET /metrics. The route is omitted when nil.
	Gatherer prometheus.Gatherer
	// LoginLimiter throttles POST /login and POST /register per client. Optional.
	LoginLimiter *ClientLimiter
	Logger       *slog.Logger
}

// NewRouter creates the portal router. Logging and Recover are applied by the caller.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	health := healthHandler(services.Session)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(services.Gatherer, promhttp.HandlerOpts{}))
	}

	auth := &AuthHandlers{Session: services.Session, Logger: logger}
	registerAuthRoutes(mux, auth, services.LoginLimiter)
	registerViewRoutes(mux, services.Guard)

	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, limiter *ClientLimiter) {
	throttled := func(fn http.HandlerFunc) http.Handler {
		if limiter == nil {
			return fn
		}
		return limiter.Middleware(fn)
	}
	mux.Handle("GET /session", http.HandlerFunc(h.CurrentSession))
	mux.Handle("POST /login", throttled(h.Login))
	mux.Handle("POST /register", throttled(h.Register))
	mux.Handle("POST /logout", http.HandlerFunc(h.Logout))
	mux.Handle("POST /reset-password", throttled(h.ResetPassword))
}

func registerViewRoutes(mux *http.ServeMux, guard Guard) {
	for _, v := range protectedViews() {
		mux.Handle("GET "+v.Path, RequireSession(guard, v.Roles...)(viewHandler(v.Path)))
	}
}
