package httpx

import (
	"net/http"
)

type healthResponse struct {
	Status  string `json:"status"`
	Session string `json:"session,omitempty"`
}

// healthHandler reports liveness and, when a session is wired, its lifecycle state.
func healthHandler(session SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := healthResponse{Status: "ok"}
		if session != nil {
			body.Session = session.Snapshot().State.String()
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		WriteJSON(w, http.StatusOK, body)
	}
}
