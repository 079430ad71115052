package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the error body shape shared by every endpoint.
// Failure responses are deliberately generic; Code is for clients that
// want to branch without parsing messages.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondError sends a JSON error response with a machine-readable error code.
func RespondError(w http.ResponseWriter, message, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}
