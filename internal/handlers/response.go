package handlers

import (
	"encoding/json"
	"net/http"

	"aller-discovery/internal/contextutil"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	Error string `json:"error"`
	// Request id to quote when reporting the failure
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	_ = writeJSON(w, statusCode, ErrorResponse{
		Error:     message,
		RequestID: contextutil.RequestID(r.Context()),
	})
}
