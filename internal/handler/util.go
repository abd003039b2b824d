package handler

import (
	"encoding/json"
	"net/http"

	"github.com/heartline-ai/counseling-platform/internal/middleware"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response. The correlation ID is echoed in
// the body so clients can quote it when reporting a failed turn.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	body := map[string]string{"error": message}
	if id := middleware.GetCorrelationID(r.Context()); id != "" {
		body["correlation_id"] = id
	}
	writeJSON(w, status, body)
}
