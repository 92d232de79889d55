// Package api implements the JSON REST surface consumed by the dashboard
// frontend. Every response uses a common envelope so the frontend can
// branch on success without inspecting status codes.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/xBwomp/famCalendar/internal/metrics"
)

// Envelope is the wire shape of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Respond writes a success envelope. A nil data omits the data field.
func Respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// RespondMessage writes a success envelope with a human-readable message.
func RespondMessage(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// Error writes a failure envelope with the given client-facing message.
func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Error: message})
}

// InternalError logs err with the request ID and writes a generic failure
// envelope. The real error never reaches the client.
func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	LogError(r, message, err)
	Error(w, http.StatusInternalServerError, "internal server error")
}

// LogError records an error against the request without responding.
func LogError(r *http.Request, message string, err error) {
	if requestID := metrics.RequestIDFromContext(r.Context()); requestID != "" {
		log.Printf("[ERROR] RequestID=%s: %s: %v", requestID, message, err)
	} else {
		log.Printf("[ERROR] %s: %v", message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("[ERROR] failed to encode response: %v", err)
	}
}
