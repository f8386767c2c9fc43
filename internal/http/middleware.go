package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	"github.com/target/jobboard-portal/internal/service"
)

const requestIDHeader = "X-Request-Id"

// Logging returns a middleware that logs HTTP requests and responses.
// Every response carries an X-Request-Id, reused from the request when present.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Guard decides whether a protected view may render.
type Guard interface {
	Decide(required []domainauth.Role, attempted string) service.Decision
}

// RequireSession returns a middleware that admits the request only when the
// session is authenticated with one of roles (any role when roles is empty).
//
// While the session is still restoring it answers 503 with Retry-After so
// clients poll instead of being bounced to the sign-in page.
func RequireSession(guard Guard, roles ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.Decide(roles, r.URL.RequestURI())
			switch d.Outcome {
			case service.OutcomeLoading:
				w.Header().Set("Retry-After", "1")
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"state": domainauth.StateRestoring.String()})
			case service.OutcomeRedirect:
				http.Redirect(w, r, d.Target, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r.WithContext(SetUserInContext(r.Context(), d.User)))
			}
		})
	}
}
