package service

import (
	"net/url"
	"slices"
	"strings"

	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	"github.com/target/jobboard-portal/internal/observability/metrics"
)

// Outcome is the result kind of a route guard evaluation.
type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomeLoading
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is what a protected view should do for the current session.
type Decision struct {
	Outcome Outcome
	// Target is set for OutcomeRedirect.
	Target string
	// User is set for OutcomeRender.
	User *domainauth.UserView
}

// SnapshotSource is the read side of AuthSession.
type SnapshotSource interface {
	Snapshot() domainauth.Snapshot
}

// RouteGuard authorizes navigation to protected views. It only reads session state.
type RouteGuard struct {
	session SnapshotSource
	metrics metrics.AuthRecorder
}

// NewRouteGuard constructs a RouteGuard. A nil recorder disables metrics.
func NewRouteGuard(session SnapshotSource, rec metrics.AuthRecorder) *RouteGuard {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &RouteGuard{session: session, metrics: rec}
}

// Decide evaluates the current session against the roles a view requires.
// attempted is the location the caller tried to reach.
func (g *RouteGuard) Decide(required []domainauth.Role, attempted string) Decision {
	d := Decide(g.session.Snapshot(), required, attempted)
	g.metrics.RecordGuardDecision(d.Outcome.String())
	return d
}

// Decide is the pure form of RouteGuard.Decide. The first matching rule wins:
// restoring renders loading, anonymous redirects to sign-in, a role outside a
// non-empty required set redirects to that role's default view, otherwise render.
func Decide(snap domainauth.Snapshot, required []domainauth.Role, attempted string) Decision {
	switch snap.State {
	case domainauth.StateRestoring:
		return Decision{Outcome: OutcomeLoading}
	case domainauth.StateAuthenticated:
	default:
		return Decision{Outcome: OutcomeRedirect, Target: SignInLocation(attempted)}
	}
	if snap.User == nil {
		return Decision{Outcome: OutcomeRedirect, Target: SignInLocation(attempted)}
	}

	if len(required) > 0 && !slices.Contains(required, snap.User.Role) {
		return Decision{Outcome: OutcomeRedirect, Target: domainauth.DefaultRoute(snap.User.Role)}
	}
	return Decision{Outcome: OutcomeRender, User: snap.User}
}

// SignInLocation is the sign-in view carrying the location to return to afterwards.
func SignInLocation(attempted string) string {
	return domainauth.RouteSignIn + "?redirect_uri=" + url.QueryEscape(SafeReturnPath(attempted))
}

// SafeReturnPath limits a return location to an in-app relative path.
// Anything else, including protocol-relative URLs, becomes "/".
func SafeReturnPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	if strings.ContainsAny(candidate, "\\\r\n") {
		return "/"
	}
	return candidate
}
