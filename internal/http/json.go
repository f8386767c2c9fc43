package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	apperrors "github.com/target/jobboard-portal/internal/errors"
)

const maxBodyBytes = 1 << 20

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// isJSON reports whether the request body is declared as JSON.
func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	body := map[string]string{"error": p.ErrCode, "message": apperrors.UserMessage(p.Err)}
	var appErr *apperrors.AppError
	if errors.As(p.Err, &appErr) && appErr.Field != "" {
		body["field"] = appErr.Field
	}
	WriteJSON(w, p.Code, body)
}

// writeAppError maps an AppError code to an HTTP status. rejected is used for
// identity-service rejections (application and transport failures).
func writeAppError(w http.ResponseWriter, err error, rejected int) {
	code := apperrors.GetCode(err)
	status := rejected
	switch code {
	case apperrors.ErrCodeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrCodeCanceled:
		status = http.StatusConflict
	case apperrors.ErrCodeUnimplemented:
		status = http.StatusNotImplemented
	case apperrors.ErrCodeInternal, apperrors.ErrCodeCorruption:
		status = http.StatusInternalServerError
	case apperrors.ErrCodeApplication, apperrors.ErrCodeTransport:
	default:
		code = "internal"
		status = http.StatusInternalServerError
	}
	WriteError(w, ErrorParams{Code: status, ErrCode: string(code), Err: err})
}
