package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/report"
	"github.com/bobmcallan/navcheck/internal/services/run"
	"github.com/bobmcallan/navcheck/internal/services/validation"
)

// maxBodyBytes limits request bodies. Evaluate requests carry whole
// snapshots, so the limit is generous.
const maxBodyBytes = 32 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteJSON encodes body as the response with status code.
func WriteJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, ErrorResponse{Error: message})
}

// WriteErrorWithCode adds a machine-readable code to the error body.
func WriteErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// WriteServiceError maps service errors onto HTTP status codes.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, run.ErrInvalidRequest):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_request")
	case errors.Is(err, validation.ErrNoData):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "no_data")
	case errors.Is(err, models.ErrNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, report.ErrNothingToChart):
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), "nothing_to_chart")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// RequireMethod answers 405 with an Allow header unless r uses one of
// methods.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON decodes the request body into v, answering 400 when the body
// is missing or malformed.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// QueryInt reads a non-negative integer query parameter, returning def when
// it is absent. The second result is false for malformed values.
func QueryInt(r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// PathParam returns the segment between prefix and suffix, so
// PathParam(r, "/api/validations/runs/", "/export") yields the run id. With
// an empty suffix the segment ends at the next slash.
func PathParam(r *http.Request, prefix, suffix string) string {
	rest, ok := strings.CutPrefix(r.URL.Path, prefix)
	if !ok {
		return ""
	}
	if suffix == "" {
		suffix = "/"
	}
	if seg, _, found := strings.Cut(rest, suffix); found {
		return seg
	}
	return rest
}
