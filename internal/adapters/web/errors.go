package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"retail-erp/internal/ai"
	"retail-erp/internal/app"
	"retail-erp/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps an application error to an error code and HTTP status.
func classify(err error) (string, int) {
	var le *app.ListsError
	switch {
	case errors.Is(err, core.ErrNotSignedIn):
		return "UNAUTHORIZED", http.StatusUnauthorized
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrNoSuchLine),
		errors.Is(err, core.ErrUnknownField):
		return "VALIDATION_ERROR", http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return "NOT_FOUND", http.StatusNotFound
	case errors.Is(err, ai.ErrDisabled):
		return "ASSISTANT_DISABLED", http.StatusServiceUnavailable
	case errors.Is(err, core.ErrPartialCommit):
		return "PARTIAL_COMMIT", http.StatusBadGateway
	case errors.As(err, &le), errors.Is(err, core.ErrRemote):
		return "BACKEND_ERROR", http.StatusBadGateway
	}
	var oe *app.OpError
	if errors.As(err, &oe) {
		return "BACKEND_ERROR", http.StatusBadGateway
	}
	return "INTERNAL_ERROR", http.StatusInternalServerError
}

// writeAppError writes err as JSON using its classified code and status.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := classify(err)
	writeError(w, r, err.Error(), code, status)
}
