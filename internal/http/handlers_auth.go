package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	domainauth "github.com/target/jobboard-portal/internal/domain/auth"
	apperrors "github.com/target/jobboard-portal/internal/errors"
	"github.com/target/jobboard-portal/internal/service"
)

// SessionService is the part of service.AuthSession the portal drives.
type SessionService interface {
	Snapshot() domainauth.Snapshot
	SignIn(ctx context.Context, in service.SignInInput) (service.SignInResult, error)
	SignUp(ctx context.Context, in service.SignUpInput) (service.SignUpResult, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
}

// AuthHandlers serves the sign-in, registration and sign-out endpoints.
type AuthHandlers struct {
	Session SessionService
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	RememberMe  bool   `json:"remember_me"`
	RedirectURI string `json:"redirect_uri"`
}

type registerRequest struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	Role            string   `json:"role"`
	FullName        string   `json:"full_name"`
	Phone           string   `json:"phone"`
	Location        string   `json:"location"`
	CompanyName     string   `json:"company_name"`
	CompanyWebsite  string   `json:"company_website"`
	JobTitle        string   `json:"job_title"`
	ExperienceLevel string   `json:"experience_level"`
	Skills          []string `json:"skills"`
	Headline        string   `json:"headline"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// CurrentSession handles GET /session.
func (h *AuthHandlers) CurrentSession(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, h.Session.Snapshot())
}

// Login handles POST /login with a JSON or form body. On success the client
// is sent to the requested in-app location, or the role's dashboard.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isJSON(r) {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		if !parseForm(w, r) {
			return
		}
		req = loginRequest{
			Email:       r.PostFormValue("email"),
			Password:    r.PostFormValue("password"),
			Role:        r.PostFormValue("role"),
			RememberMe:  formBool(r.PostFormValue("remember_me")),
			RedirectURI: r.PostFormValue("redirect_uri"),
		}
	}
	if req.RedirectURI == "" {
		req.RedirectURI = r.URL.Query().Get("redirect_uri")
	}

	var role domainauth.Role
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := domainauth.ParseRole(req.Role)
		if !ok {
			writeAppError(w, apperrors.ValidationField("role", "role must be candidate, recruiter or admin"), http.StatusBadRequest)
			return
		}
		role = parsed
	}

	res, err := h.Session.SignIn(r.Context(), service.SignInInput{
		Email:      req.Email,
		Password:   req.Password,
		Role:       role,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		writeAppError(w, err, http.StatusUnauthorized)
		return
	}

	http.Redirect(w, r, landingFor(res.User.Role, req.RedirectURI), http.StatusSeeOther)
}

// landingFor prefers a safe requested location over the role's dashboard.
func landingFor(role domainauth.Role, requested string) string {
	if strings.TrimSpace(requested) != "" {
		if p := service.SafeReturnPath(requested); p != "/" {
			return p
		}
	}
	return domainauth.DefaultRoute(role)
}

// Register handles POST /register. It creates the identity without signing in.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if isJSON(r) {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		if !parseForm(w, r) {
			return
		}
		req = registerRequest{
			Email:           r.PostFormValue("email"),
			Password:        r.PostFormValue("password"),
			Role:            r.PostFormValue("role"),
			FullName:        r.PostFormValue("full_name"),
			Phone:           r.PostFormValue("phone"),
			Location:        r.PostFormValue("location"),
			CompanyName:     r.PostFormValue("company_name"),
			CompanyWebsite:  r.PostFormValue("company_website"),
			JobTitle:        r.PostFormValue("job_title"),
			ExperienceLevel: r.PostFormValue("experience_level"),
			Skills:          splitList(r.PostForm["skills"]),
			Headline:        r.PostFormValue("headline"),
		}
	}

	res, err := h.Session.SignUp(r.Context(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     domainauth.Role(req.Role),
		Profile: domainauth.RegistrationProfile{
			FullName:        req.FullName,
			Phone:           req.Phone,
			Location:        req.Location,
			CompanyName:     req.CompanyName,
			CompanyWebsite:  req.CompanyWebsite,
			JobTitle:        req.JobTitle,
			ExperienceLevel: req.ExperienceLevel,
			Skills:          req.Skills,
			Headline:        req.Headline,
		},
	})
	if err != nil {
		writeAppError(w, err, http.StatusBadRequest)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"user": res.User})
}

// Logout handles POST /logout. The session is anonymous afterwards even when
// durable storage could not be cleared, so the client is always redirected.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.SignOut(r.Context()); err != nil {
		h.logger().ErrorContext(r.Context(), "sign-out left durable state behind", "error", err)
	}
	http.Redirect(w, r, domainauth.RouteSignIn, http.StatusSeeOther)
}

// ResetPassword handles POST /reset-password.
func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if isJSON(r) {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		if !parseForm(w, r) {
			return
		}
		req.Email = r.PostFormValue("email")
	}

	if err := h.Session.ResetPassword(r.Context(), req.Email); err != nil {
		writeAppError(w, err, http.StatusBadGateway)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return false
	}
	return true
}

func formBool(v string) bool {
	if strings.EqualFold(v, "on") {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// splitList accepts repeated fields and comma-separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
