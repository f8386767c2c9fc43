package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	apperrors "github.com/target/jobboard-portal/internal/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Restore outcomes.
const (
	RestoreAnonymous     = "anonymous"
	RestoreAuthenticated = "authenticated"
	RestoreDegraded      = "degraded"
	RestoreDiscarded     = "discarded"
)

// AuthRecorder receives session lifecycle events. The session and the route
// guard depend on this interface; Nop satisfies it when metrics are disabled.
type AuthRecorder interface {
	RecordSignIn(err error)
	RecordSignUp(err error)
	RecordSignOut(remoteErr error)
	RecordRestore(outcome string)
	RecordGuardDecision(outcome string)
}

// Nop discards every event.
type Nop struct{}

func (Nop) RecordSignIn(error)         {}
func (Nop) RecordSignUp(error)         {}
func (Nop) RecordSignOut(error)        {}
func (Nop) RecordRestore(string)       {}
func (Nop) RecordGuardDecision(string) {}

// Collector is the Prometheus implementation of AuthRecorder.
type Collector struct {
	signIn   *prometheus.CounterVec
	signUp   *prometheus.CounterVec
	signOut  *prometheus.CounterVec
	restore  *prometheus.CounterVec
	decision *prometheus.CounterVec
}

var _ AuthRecorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_auth_sign_in_total",
			Help: "Sign-in attempts by result and error code.",
		}, []string{"result", "code"}),
		signUp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_auth_sign_up_total",
			Help: "Registration attempts by result and error code.",
		}, []string{"result", "code"}),
		signOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_auth_sign_out_total",
			Help: "Sign-outs by remote logout result. Local state is cleared either way.",
		}, []string{"remote"}),
		restore: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_auth_restore_total",
			Help: "Session restorations by outcome.",
		}, []string{"outcome"}),
		decision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_route_guard_decisions_total",
			Help: "Route guard decisions by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(c.signIn, c.signUp, c.signOut, c.restore, c.decision)
	return c
}

// RecordSignIn records a sign-in attempt.
func (c *Collector) RecordSignIn(err error) {
	c.signIn.WithLabelValues(resultLabels(err)...).Inc()
}

// RecordSignUp records a registration attempt.
func (c *Collector) RecordSignUp(err error) {
	c.signUp.WithLabelValues(resultLabels(err)...).Inc()
}

// RecordSignOut records a sign-out and whether the remote logout call succeeded.
func (c *Collector) RecordSignOut(remoteErr error) {
	remote := ResultSuccess
	if remoteErr != nil {
		remote = ResultError
	}
	c.signOut.WithLabelValues(remote).Inc()
}

// RecordRestore records the outcome of a restoration.
func (c *Collector) RecordRestore(outcome string) {
	c.restore.WithLabelValues(outcome).Inc()
}

// RecordGuardDecision records a route guard decision.
func (c *Collector) RecordGuardDecision(outcome string) {
	c.decision.WithLabelValues(outcome).Inc()
}

func resultLabels(err error) []string {
	if err == nil {
		return []string{ResultSuccess, ""}
	}
	code := string(apperrors.GetCode(err))
	if code == "" {
		code = "unknown"
	}
	return []string{ResultError, code}
}
