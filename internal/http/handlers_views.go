package httpx

import (
	"net/http"

	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
)

// RouteProfile is the view available to every signed-in role.
const RouteProfile = "/profile"

// protectedView is a guarded portal view and the roles allowed to open it.
type protectedView struct {
	Path  string
	Roles []domainauth.Role
}

// protectedViews lists the portal's guarded views. An empty role list admits any signed-in user.
func protectedViews() []protectedView {
	return []protectedView{
		{Path: domainauth.RouteCandidateDashboard, Roles: []domainauth.Role{domainauth.RoleCandidate}},
		{Path: domainauth.RouteRecruiterDashboard, Roles: []domainauth.Role{domainauth.RoleRecruiter}},
		{Path: domainauth.RouteAdminDashboard, Roles: []domainauth.Role{domainauth.RoleAdmin}},
		{Path: RouteProfile},
	}
}

type viewResponse struct {
	View string               `json:"view"`
	User *domainauth.UserView `json:"user"`
}

// viewHandler renders the view payload for the user admitted by RequireSession.
func viewHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := GetUserFromContext(r.Context())
		WriteJSON(w, http.StatusOK, viewResponse{View: path, User: user})
	}
}
