package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	logpkg "github.com/planweave/planweave/internal/logger"
	"github.com/planweave/planweave/internal/models"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSONError sends an error JSON response
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if len(message) > 200 {
		message = message[:200] + "..."
	}

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondEngineError maps an engine failure onto an HTTP status. Parse
// errors can quote document content, so the message is sanitized before
// it leaves the server.
func respondEngineError(w http.ResponseWriter, err error) {
	message := logpkg.SanitizeError(err)
	switch {
	case models.IsNotFound(err):
		respondJSONError(w, http.StatusNotFound, "Not Found", message)
	case models.IsMalformed(err):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", message)
	case models.IsKind(err, models.KindImportLimitExceeded):
		respondJSONError(w, http.StatusUnprocessableEntity, "Import Limit Exceeded", message)
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", message)
	}
}
